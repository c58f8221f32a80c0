package cancel_reservation

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationService/internal/clock"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/payments"
	"github.com/m04kA/SMC-ReservationService/internal/saga"
)

// Имена шагов саги отмены
const (
	StepReleaseHold   = "release_hold"
	StepRefundPayment = "refund_payment"
)

// UseCase use case отмены бронирования
type UseCase struct {
	repo            ReservationRepository
	issuer          TokenIssuer
	inventory       InventoryClient
	payments        PaymentsClient
	publisher       EventPublisher
	guard           ReservationGuard
	runner          SagaRunner
	timeProvider    TimeProvider
	conflictRetries int
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	repo ReservationRepository,
	issuer TokenIssuer,
	inventory InventoryClient,
	payments PaymentsClient,
	publisher EventPublisher,
	guard ReservationGuard,
	runner SagaRunner,
	conflictRetries int,
	logger Logger,
) *UseCase {
	return &UseCase{
		repo:            repo,
		issuer:          issuer,
		inventory:       inventory,
		payments:        payments,
		publisher:       publisher,
		guard:           guard,
		runner:          runner,
		timeProvider:    clock.NewSystem(),
		conflictRetries: conflictRetries,
		logger:          logger,
	}
}

// Execute выполняет сагу отмены
// Недопустимый переход отклоняется до любых внешних вызовов.
// Чтение, внешние шаги и запись выполняются под захватом reservation_id,
// поэтому заезд или выезд не может вклиниться между возвратом и записью.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CancelReservation: reservation_id=%s, user=%s, role=%s", req.ReservationID, req.Identity.UserID, req.Identity.Role)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CancelReservation: validation failed: %v", err)
		return nil, err
	}

	// 2. Захват reservation_id до чтения
	release, err := uc.guard.Acquire(ctx, req.ReservationID)
	if err != nil {
		uc.logger.Warn("CancelReservation: reservation_id=%s guard not acquired: %v", req.ReservationID, err)
		return nil, err
	}
	defer release(context.WithoutCancel(ctx))

	// Получаем бронирование
	current, err := uc.repo.GetByID(ctx, req.ReservationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.logger.Warn("CancelReservation: reservation_id=%s not found", req.ReservationID)
			return nil, ErrReservationNotFound
		}
		uc.logger.Error("CancelReservation: failed to get reservation_id=%s: %v", req.ReservationID, err)
		return nil, fmt.Errorf("%w: get reservation: %w", ErrInternal, err)
	}

	// 3. Права вызывающего
	if !canCancel(current, req.Identity) {
		uc.logger.Warn("CancelReservation: user=%s may not cancel reservation_id=%s owned by %s",
			req.Identity.UserID, current.ReservationID, current.Owner.UserID)
		return nil, ErrForbidden
	}

	// 4. Предварительная проверка перехода, без побочных эффектов
	if _, err := domain.Transition(current.Status, domain.EventCancel); err != nil {
		uc.logger.Warn("CancelReservation: reservation_id=%s in %s cannot be cancelled", current.ReservationID, current.Status)
		return nil, fmt.Errorf("%w: cannot cancel reservation in %s", ErrNotCancellable, current.Status)
	}

	// 5. Токен от имени владельца брони, а не текущей сессии
	token, _, err := uc.issuer.Issue(current.Owner, domain.ScopeReservationsWrite, 0)
	if err != nil {
		uc.logger.Error("CancelReservation: failed to issue token for owner=%s: %v", current.Owner.UserID, err)
		return nil, fmt.Errorf("%w: issue token: %w", ErrInternal, err)
	}

	// 6. Внешние шаги
	steps, resp := uc.steps(token, current)
	if len(steps) > 0 {
		if _, err := uc.runner.Run(ctx, steps...); err != nil {
			uc.logger.Warn("CancelReservation: reservation_id=%s external step failed: %v", current.ReservationID, err)
			return nil, fmt.Errorf("%w: %w", ErrSagaFailed, err)
		}
	}

	// 7. Фиксация перехода с повтором при конкурентной записи
	// После внешних шагов отмена доводится до конца и без вызывающего
	ctx = context.WithoutCancel(ctx)
	cancelled, err := reservation.UpdateWithRetry(ctx, uc.repo, current.ReservationID, func(r *domain.Reservation) error {
		return r.Apply(domain.EventCancel, uc.timeProvider.Now())
	}, uc.conflictRetries)
	if err != nil {
		if len(steps) > 0 {
			uc.logger.Error("CancelReservation: reservation_id=%s steps %v done but cancellation not committed, needs reconciliation: %v",
				current.ReservationID, stepNames(steps), err)
			return nil, fmt.Errorf("%w: %w", ErrNotCommitted, err)
		}
		switch {
		case errors.Is(err, domain.ErrIllegalTransition):
			uc.logger.Warn("CancelReservation: reservation_id=%s changed concurrently: %v", current.ReservationID, err)
			return nil, fmt.Errorf("%w: reservation changed concurrently", ErrNotCancellable)
		case errors.Is(err, domain.ErrConflict):
			uc.logger.Warn("CancelReservation: reservation_id=%s conflict after %d retries", current.ReservationID, uc.conflictRetries)
			return nil, err
		default:
			uc.logger.Error("CancelReservation: failed to update reservation_id=%s: %v", current.ReservationID, err)
			return nil, fmt.Errorf("%w: update reservation: %w", ErrInternal, err)
		}
	}

	uc.logger.Info("CancelReservation: reservation_id=%s cancelled", cancelled.ReservationID)

	// 8. Уведомление после фиксации состояния
	if err := uc.publisher.Publish(ctx, domain.TopicReservationCancelled, domain.NewReservationEvent(cancelled)); err != nil {
		uc.logger.Warn("CancelReservation: reservation_id=%s event not queued: %v", cancelled.ReservationID, err)
	}

	resp.ReservationID = cancelled.ReservationID
	resp.Status = cancelled.Status
	resp.UpdatedAt = cancelled.UpdatedAt
	return resp, nil
}

// steps собирает внешние шаги отмены по текущему состоянию брони
func (uc *UseCase) steps(token string, r *domain.Reservation) ([]saga.Step, *Response) {
	resp := &Response{}
	var steps []saga.Step

	if r.HasActiveLock() {
		lockID := *r.LockID
		resp.ReleasedLock = true
		steps = append(steps, saga.Step{
			Name: StepReleaseHold,
			Action: func(ctx context.Context) error {
				err := uc.inventory.Release(ctx, token, lockID)
				if errors.Is(err, domain.ErrNotFound) {
					uc.logger.Info("CancelReservation: lock_id=%s already released", lockID)
					return nil
				}
				return err
			},
		})
	}

	if r.Status == domain.StatusConfirmed && r.TotalAmount.IsPositive() {
		resp.Refunded = r.TotalAmount
		steps = append(steps, saga.Step{
			Name: StepRefundPayment,
			Action: func(ctx context.Context) error {
				return uc.payments.Refund(ctx, token, payments.RefundRequest{
					ReservationID: r.ReservationID,
					Amount:        r.TotalAmount,
				})
			},
		})
	}

	return steps, resp
}

func stepNames(steps []saga.Step) []string {
	names := make([]string, 0, len(steps))
	for _, step := range steps {
		names = append(names, step.Name)
	}
	return names
}
