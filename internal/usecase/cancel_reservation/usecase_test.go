package cancel_reservation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/auth"
	"github.com/m04kA/SMC-ReservationService/internal/clock"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/infra/idempotency"
	"github.com/m04kA/SMC-ReservationService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ReservationService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/inventory"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/payments"
	"github.com/m04kA/SMC-ReservationService/internal/saga"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
	"github.com/m04kA/SMC-ReservationService/pkg/ptr"
	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

var (
	testNow   = time.Date(2024, 5, 25, 9, 0, 0, 0, time.UTC)
	testOwner = domain.Identity{UserID: "u-1", Username: "ana", Role: domain.RoleClient}
)

type fakeInventory struct {
	releases []string
	tokens   []string
	err      error
}

func (f *fakeInventory) Release(_ context.Context, token, lockID string) error {
	f.releases = append(f.releases, lockID)
	f.tokens = append(f.tokens, token)
	return f.err
}

type fakePayments struct {
	refunds  []payments.RefundRequest
	tokens   []string
	err      error
	onRefund func()
}

func (f *fakePayments) Refund(_ context.Context, token string, refund payments.RefundRequest) error {
	f.refunds = append(f.refunds, refund)
	f.tokens = append(f.tokens, token)
	if f.onRefund != nil {
		f.onRefund()
	}
	return f.err
}

type fakePublisher struct {
	topics []string
}

func (f *fakePublisher) Publish(_ context.Context, topic string, _ domain.ReservationEvent) error {
	f.topics = append(f.topics, topic)
	return nil
}

// conflictingStore отдает ErrConflict заданное число раз перед настоящей записью
type conflictingStore struct {
	*memory.Store
	conflicts int
}

func (s *conflictingStore) Update(ctx context.Context, id string, mutate reservation.Mutator) (*domain.Reservation, error) {
	if s.conflicts > 0 {
		s.conflicts--
		return nil, reservation.ErrConflict
	}
	return s.Store.Update(ctx, id, mutate)
}

type fixture struct {
	uc        *UseCase
	store     *conflictingStore
	issuer    *auth.Issuer
	inventory *fakeInventory
	payments  *fakePayments
	publisher *fakePublisher
	guard     *idempotency.MemoryGuard
	service   *reservations.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clk := clock.NewFixed(testNow)
	issuer, err := auth.NewIssuer(auth.Config{
		Secret:     []byte("test-secret"),
		DefaultTTL: 5 * time.Minute,
		SessionTTL: 30 * time.Minute,
	}, auth.WithClock(clk))
	require.NoError(t, err)

	f := &fixture{
		store:     &conflictingStore{Store: memory.NewStore(clk)},
		issuer:    issuer,
		inventory: &fakeInventory{},
		payments:  &fakePayments{},
		publisher: &fakePublisher{},
		guard:     idempotency.NewMemoryGuard(clk, time.Minute),
	}

	log := logger.NewNop()
	f.uc = NewUseCase(f.store, issuer, f.inventory, f.payments, f.publisher, f.guard,
		saga.NewExecutor("cancel_reservation", time.Second, log), reservation.DefaultConflictRetries, log)
	f.uc.timeProvider = clk
	f.service = reservations.NewService(f.store, f.publisher, f.guard, reservation.DefaultConflictRetries, log)
	return f
}

func (f *fixture) seed(t *testing.T, status domain.Status, lockID *string) {
	t.Helper()
	_, err := f.store.Create(context.Background(), &domain.Reservation{
		ReservationID: "res-1",
		ClientID:      "C1",
		HotelID:       "H1",
		RoomID:        "R1",
		StartDate:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Status:        status,
		TotalAmount:   types.Money(25000),
		LockID:        lockID,
		Owner:         testOwner,
	})
	require.NoError(t, err)
}

func TestExecute_CancelsConfirmedReservation(t *testing.T) {
	f := newFixture(t)
	f.seed(t, domain.StatusConfirmed, nil)

	resp, err := f.uc.Execute(context.Background(), &Request{Identity: testOwner, ReservationID: "res-1"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCancelled, resp.Status)
	assert.Equal(t, types.Money(25000), resp.Refunded)
	assert.False(t, resp.ReleasedLock)

	require.Len(t, f.payments.refunds, 1)
	assert.Equal(t, payments.RefundRequest{ReservationID: "res-1", Amount: types.Money(25000)}, f.payments.refunds[0])
	assert.Empty(t, f.inventory.releases)
	assert.Equal(t, []string{domain.TopicReservationCancelled}, f.publisher.topics)

	stored, err := f.store.GetByID(context.Background(), "res-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, stored.Status)
}

func TestExecute_CheckoutIsNotCancellable(t *testing.T) {
	f := newFixture(t)
	f.seed(t, domain.StatusConfirmed, nil)
	for _, e := range []domain.Event{domain.EventCheckIn, domain.EventCheckOut} {
		_, err := f.store.Update(context.Background(), "res-1", func(r *domain.Reservation) error {
			return r.Apply(e, testNow)
		})
		require.NoError(t, err)
	}
	before, err := f.store.GetByID(context.Background(), "res-1")
	require.NoError(t, err)

	_, err = f.uc.Execute(context.Background(), &Request{Identity: testOwner, ReservationID: "res-1"})

	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	assert.Equal(t, 1, strings.Count(err.Error(), domain.ErrIllegalTransition.Error()), err.Error())
	assert.Empty(t, f.payments.refunds)
	assert.Empty(t, f.inventory.releases)
	assert.Empty(t, f.publisher.topics)

	after, err := f.store.GetByID(context.Background(), "res-1")
	require.NoError(t, err)
	assert.Equal(t, before, after, "no mutation")
}

func TestExecute_ReleasesActiveHold(t *testing.T) {
	f := newFixture(t)
	f.seed(t, domain.StatusCreated, ptr.Ptr("L1"))

	resp, err := f.uc.Execute(context.Background(), &Request{Identity: testOwner, ReservationID: "res-1"})
	require.NoError(t, err)

	assert.True(t, resp.ReleasedLock)
	assert.Equal(t, []string{"L1"}, f.inventory.releases)
	assert.Empty(t, f.payments.refunds, "nothing charged before confirmation")

	stored, err := f.store.GetByID(context.Background(), "res-1")
	require.NoError(t, err)
	assert.Nil(t, stored.LockID)
	assert.Equal(t, domain.StatusCancelled, stored.Status)

	t.Run("already released hold is tolerated", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, domain.StatusCreated, ptr.Ptr("L1"))
		f.inventory.err = inventory.ErrLockNotFound

		_, err := f.uc.Execute(context.Background(), &Request{Identity: testOwner, ReservationID: "res-1"})
		assert.NoError(t, err)
	})
}

func TestExecute_StaffActsWithOwnerToken(t *testing.T) {
	f := newFixture(t)
	f.seed(t, domain.StatusConfirmed, nil)
	staff := domain.Identity{UserID: "desk-7", Role: domain.RoleReception}

	_, err := f.uc.Execute(context.Background(), &Request{Identity: staff, ReservationID: "res-1"})
	require.NoError(t, err)

	require.Len(t, f.payments.tokens, 1)
	claims, err := f.issuer.Verify(f.payments.tokens[0])
	require.NoError(t, err)
	assert.Equal(t, testOwner, claims.Identity(), "token carries the stored owner identity")
}

func TestExecute_RefundFailureLeavesReservationUntouched(t *testing.T) {
	f := newFixture(t)
	f.seed(t, domain.StatusConfirmed, nil)
	f.payments.err = payments.ErrRefundRejected

	_, err := f.uc.Execute(context.Background(), &Request{Identity: testOwner, ReservationID: "res-1"})

	assert.ErrorIs(t, err, ErrSagaFailed)
	assert.ErrorIs(t, err, domain.ErrExternalUnavailable)
	assert.Empty(t, f.publisher.topics)

	stored, err := f.store.GetByID(context.Background(), "res-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, stored.Status)
}

func TestExecute_CheckInCannotInterleaveWithRefund(t *testing.T) {
	f := newFixture(t)
	f.seed(t, domain.StatusConfirmed, nil)
	reception := domain.Identity{UserID: "desk-1", Role: domain.RoleReception}

	var checkInErr error
	f.payments.onRefund = func() {
		_, checkInErr = f.service.CheckIn(context.Background(), "res-1", reception)
	}

	resp, err := f.uc.Execute(context.Background(), &Request{Identity: testOwner, ReservationID: "res-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, resp.Status)

	assert.ErrorIs(t, checkInErr, domain.ErrConflict, "check-in rejected while the refund is in flight")
	assert.Len(t, f.payments.refunds, 1)
	assert.Equal(t, []string{domain.TopicReservationCancelled}, f.publisher.topics)

	stored, err := f.store.GetByID(context.Background(), "res-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, stored.Status)

	t.Run("check-in after the cancellation is illegal", func(t *testing.T) {
		_, err := f.service.CheckIn(context.Background(), "res-1", reception)
		assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	})
}

func TestExecute_GuardHeld(t *testing.T) {
	f := newFixture(t)
	f.seed(t, domain.StatusConfirmed, nil)

	release, err := f.guard.Acquire(context.Background(), "res-1")
	require.NoError(t, err)
	defer release(context.Background())

	_, err = f.uc.Execute(context.Background(), &Request{Identity: testOwner, ReservationID: "res-1"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Empty(t, f.payments.refunds)
}

func TestExecute_ConflictRetries(t *testing.T) {
	t.Run("retried until written", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, domain.StatusConfirmed, nil)
		f.store.conflicts = 2

		resp, err := f.uc.Execute(context.Background(), &Request{Identity: testOwner, ReservationID: "res-1"})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, resp.Status)
	})

	t.Run("surfaced when retries run out", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, domain.StatusConfirmed, nil)
		f.store.conflicts = 10

		_, err := f.uc.Execute(context.Background(), &Request{Identity: testOwner, ReservationID: "res-1"})
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.ErrorIs(t, err, ErrNotCommitted, "refund already sent")
		assert.Empty(t, f.publisher.topics)
	})
}

func TestExecute_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		req     *Request
		wantErr error
	}{
		{name: "empty id", req: &Request{Identity: testOwner}, wantErr: domain.ErrInvalidInput},
		{name: "missing identity", req: &Request{ReservationID: "res-1"}, wantErr: domain.ErrUnauthorized},
		{name: "unknown reservation", req: &Request{Identity: testOwner, ReservationID: "nope"}, wantErr: domain.ErrNotFound},
		{
			name:    "another client",
			req:     &Request{Identity: domain.Identity{UserID: "u-2", Role: domain.RoleClient}, ReservationID: "res-1"},
			wantErr: domain.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seed(t, domain.StatusConfirmed, nil)

			_, err := f.uc.Execute(context.Background(), tt.req)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Empty(t, f.payments.refunds)
			assert.Empty(t, f.publisher.topics)
		})
	}
}
