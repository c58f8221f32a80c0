package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/clock"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/ptr"
	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

var testNow = time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)

func newReservation(id string) *domain.Reservation {
	return &domain.Reservation{
		ReservationID: id,
		ClientID:      "C1",
		HotelID:       "H1",
		RoomID:        "R1",
		StartDate:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Status:        domain.StatusConfirmed,
		TotalAmount:   types.Money(25000),
		Owner:         domain.Identity{UserID: "u-1", Role: domain.RoleClient},
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewStore(clock.NewFixed(testNow))

	created, err := store.Create(ctx, newReservation("res-1"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.Version)
	assert.Equal(t, testNow, created.CreatedAt)

	got, err := store.GetByID(ctx, "res-1")
	require.NoError(t, err)
	assert.Equal(t, created, got)

	t.Run("duplicate id", func(t *testing.T) {
		_, err := store.Create(ctx, newReservation("res-1"))
		assert.ErrorIs(t, err, domain.ErrDuplicateID)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("not found", func(t *testing.T) {
		_, err := store.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("returned copies are detached", func(t *testing.T) {
		got.Status = domain.StatusCancelled
		again, err := store.GetByID(ctx, "res-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusConfirmed, again.Status)
	})
}

func TestStore_Update(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(testNow)
	store := NewStore(clk)

	_, err := store.Create(ctx, newReservation("res-1"))
	require.NoError(t, err)

	t.Run("applies transition and bumps version", func(t *testing.T) {
		clk.Advance(time.Minute)
		updated, err := store.Update(ctx, "res-1", func(r *domain.Reservation) error {
			return r.Apply(domain.EventCheckIn, clk.Now())
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCheckedIn, updated.Status)
		assert.Equal(t, int64(2), updated.Version)
		assert.Equal(t, testNow.Add(time.Minute), updated.UpdatedAt)
	})

	t.Run("mutator error aborts without write", func(t *testing.T) {
		errStop := errors.New("stop")
		_, err := store.Update(ctx, "res-1", func(r *domain.Reservation) error {
			r.Status = domain.StatusCheckedOut
			return errStop
		})
		assert.ErrorIs(t, err, errStop)

		got, err := store.GetByID(ctx, "res-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCheckedIn, got.Status)
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("illegal status change rejected", func(t *testing.T) {
		_, err := store.Update(ctx, "res-1", func(r *domain.Reservation) error {
			r.Status = domain.StatusCreated
			return nil
		})
		assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	})

	t.Run("immutable field rejected", func(t *testing.T) {
		_, err := store.Update(ctx, "res-1", func(r *domain.Reservation) error {
			r.LockID = ptr.Ptr("L9")
			r.TotalAmount = types.Money(1)
			return nil
		})
		assert.ErrorIs(t, err, domain.ErrImmutableField)
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := store.Update(ctx, "missing", func(r *domain.Reservation) error { return nil })
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestStore_StaleWriteCannotUndoCancel(t *testing.T) {
	ctx := context.Background()
	store := NewStore(clock.NewFixed(testNow))
	_, err := store.Create(ctx, newReservation("res-1"))
	require.NoError(t, err)

	// изменение, построенное по версии до отмены
	modify := func(r *domain.Reservation) error {
		r.Status = domain.StatusConfirmed
		return nil
	}

	_, err = store.Update(ctx, "res-1", func(r *domain.Reservation) error {
		_, cancelErr := store.Update(ctx, "res-1", func(c *domain.Reservation) error {
			return c.Apply(domain.EventCancel, testNow)
		})
		require.NoError(t, cancelErr)
		return modify(r)
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = store.Update(ctx, "res-1", modify)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition, "retry sees the cancellation")

	_, err = store.Update(ctx, "res-1", func(r *domain.Reservation) error {
		r.EndDate = r.EndDate.AddDate(0, 0, 1)
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrImmutableField)

	got, err := store.GetByID(ctx, "res-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status)
	assert.Equal(t, int64(2), got.Version)
}

func TestStore_ConcurrentUpdateConflict(t *testing.T) {
	ctx := context.Background()
	store := NewStore(clock.NewFixed(testNow))
	_, err := store.Create(ctx, newReservation("res-1"))
	require.NoError(t, err)

	const writers = 8
	var (
		wg        sync.WaitGroup
		ready     sync.WaitGroup
		release   = make(chan struct{})
		succeeded atomic.Int32
		conflicts atomic.Int32
	)
	ready.Add(writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, "res-1", func(r *domain.Reservation) error {
				// все писатели прочитали одну и ту же версию
				ready.Done()
				<-release
				return r.Apply(domain.EventCancel, testNow)
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, domain.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}

	ready.Wait()
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(writers-1), conflicts.Load())

	got, err := store.GetByID(ctx, "res-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status)
	assert.Equal(t, int64(2), got.Version)
}
