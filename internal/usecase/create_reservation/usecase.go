package create_reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationService/internal/clock"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/infra/reconciliation"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/confirmation"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/inventory"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/pricing"
	"github.com/m04kA/SMC-ReservationService/internal/saga"
	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

// Имена шагов саги создания
const (
	StepHoldRoom       = "hold_room"
	StepPriceRoom      = "price_room"
	StepConfirmPackage = "confirm_package"
	StepPersist        = "persist_reservation"
)

// UseCase use case создания бронирования (сага hold -> price -> confirm -> persist)
type UseCase struct {
	repo         ReservationRepository
	issuer       TokenIssuer
	inventory    InventoryClient
	pricing      PricingClient
	confirmation ConfirmationClient
	publisher    EventPublisher
	guard        SagaGuard
	recorder     OrphanRecorder
	runner       SagaRunner
	timeProvider TimeProvider
	newID        IDGenerator
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	repo ReservationRepository,
	issuer TokenIssuer,
	inventory InventoryClient,
	pricing PricingClient,
	confirmation ConfirmationClient,
	publisher EventPublisher,
	guard SagaGuard,
	recorder OrphanRecorder,
	runner SagaRunner,
	logger Logger,
) *UseCase {
	return &UseCase{
		repo:         repo,
		issuer:       issuer,
		inventory:    inventory,
		pricing:      pricing,
		confirmation: confirmation,
		publisher:    publisher,
		guard:        guard,
		recorder:     recorder,
		runner:       runner,
		timeProvider: clock.NewSystem(),
		newID:        uuid.NewString,
		logger:       logger,
	}
}

// persistCheckTimeout ограничивает перечитывание записи после неуспешной фиксации
const persistCheckTimeout = 2 * time.Second

// sagaState результаты шагов, которые нужны следующим шагам
type sagaState struct {
	lockID    string
	amount    types.Money
	persisted *domain.Reservation
	// duplicate выставляется, если reservation_id уже занят конкурентной сагой
	duplicate bool
}

// Execute выполняет сагу создания бронирования
// Неуспешное создание не оставляет записи в хранилище
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateReservation: user=%s, client=%s, hotel=%s, room=%s, dates=%s..%s, key=%q",
		req.Identity.UserID, req.ClientID, req.HotelID, req.RoomID, req.StartDate, req.EndDate, req.IdempotencyKey)

	// 1. Валидация входных данных
	s, err := validateRequest(req)
	if err != nil {
		uc.logger.Warn("CreateReservation: validation failed: %v", err)
		return nil, err
	}

	// 2. Идентичность вызывающего
	if req.Identity.IsZero() {
		uc.logger.Warn("CreateReservation: missing caller identity")
		return nil, ErrMissingIdentity
	}

	// 3. Идентификатор бронирования
	reservationID := req.IdempotencyKey
	if reservationID == "" {
		reservationID = uc.newID()
	}

	// 4. Повтор запроса возвращает существующее состояние без запуска саги
	if req.IdempotencyKey != "" {
		if resp, err := uc.replay(ctx, reservationID, req.Identity, s); resp != nil || err != nil {
			return resp, err
		}
	}

	// 5. Захват reservation_id на время саги
	release, err := uc.guard.Acquire(ctx, reservationID)
	if err != nil {
		uc.logger.Warn("CreateReservation: reservation_id=%s guard not acquired: %v", reservationID, err)
		return nil, err
	}
	defer release(context.WithoutCancel(ctx))

	// Пока ждали захват, конкурентная сага могла завершиться
	if req.IdempotencyKey != "" {
		if resp, err := uc.replay(ctx, reservationID, req.Identity, s); resp != nil || err != nil {
			return resp, err
		}
	}

	// 6. Внутренний токен от имени вызывающего
	token, _, err := uc.issuer.Issue(req.Identity, domain.ScopeReservationsWrite, 0)
	if err != nil {
		uc.logger.Error("CreateReservation: failed to issue token for user=%s: %v", req.Identity.UserID, err)
		return nil, fmt.Errorf("%w: issue token: %w", ErrInternal, err)
	}

	// 7. Сага
	state := &sagaState{}
	report, err := uc.runner.Run(ctx, uc.steps(token, reservationID, req.Identity, s, state)...)
	if err != nil {
		return uc.handleFailure(ctx, reservationID, req.Identity, s, state, report, err)
	}

	reservation := state.persisted
	ctx = context.WithoutCancel(ctx)
	uc.logger.Info("CreateReservation: reservation_id=%s %s, total=%s",
		reservation.ReservationID, reservation.Status, reservation.TotalAmount)

	// 8. Уведомление после фиксации состояния
	if err := uc.publisher.Publish(ctx, domain.TopicReservationCreated, domain.NewReservationEvent(reservation)); err != nil {
		uc.logger.Warn("CreateReservation: reservation_id=%s event not queued: %v", reservation.ReservationID, err)
	}

	return newResponse(reservation, false), nil
}

func (uc *UseCase) steps(token, reservationID string, owner domain.Identity, s *stay, state *sagaState) []saga.Step {
	startDate := s.startDate.Format(domain.DateFormat)
	endDate := s.endDate.Format(domain.DateFormat)

	return []saga.Step{
		{
			Name: StepHoldRoom,
			Action: func(ctx context.Context) error {
				lockID, err := uc.inventory.Hold(ctx, token, inventory.HoldRequest{
					ReservationID: reservationID,
					HotelID:       s.hotelID,
					RoomID:        s.roomID,
					StartDate:     startDate,
					EndDate:       endDate,
				})
				if err != nil {
					return err
				}
				state.lockID = lockID
				return nil
			},
			Compensate: func(ctx context.Context) error {
				err := uc.inventory.Release(ctx, token, state.lockID)
				if errors.Is(err, domain.ErrNotFound) {
					// захват уже освобожден
					uc.logger.Info("CreateReservation: lock_id=%s already released", state.lockID)
					return nil
				}
				return err
			},
		},
		{
			Name: StepPriceRoom,
			Action: func(ctx context.Context) error {
				amount, err := uc.pricing.Quote(ctx, token, pricing.QuoteRequest{
					HotelID:   s.hotelID,
					RoomID:    s.roomID,
					StartDate: startDate,
					EndDate:   endDate,
					LockID:    state.lockID,
				})
				if err != nil {
					return err
				}
				state.amount = amount
				return nil
			},
		},
		{
			Name: StepConfirmPackage,
			Action: func(ctx context.Context) error {
				return uc.confirmation.Confirm(ctx, token, confirmation.Request{
					ReservationID: reservationID,
					ClientID:      s.clientID,
					HotelID:       s.hotelID,
					RoomID:        s.roomID,
					StartDate:     startDate,
					EndDate:       endDate,
					LockID:        state.lockID,
					Amount:        state.amount,
				})
			},
			Compensate: func(ctx context.Context) error {
				if state.duplicate {
					// подтверждение под этим reservation_id принадлежит победившей саге
					uc.logger.Info("CreateReservation: reservation_id=%s owned by concurrent saga, confirmation kept", reservationID)
					return nil
				}
				return uc.confirmation.Cancel(ctx, token, reservationID)
			},
		},
		{
			Name: StepPersist,
			Action: func(ctx context.Context) error {
				now := uc.timeProvider.Now()
				reservation := &domain.Reservation{
					ReservationID: reservationID,
					ClientID:      s.clientID,
					HotelID:       s.hotelID,
					RoomID:        s.roomID,
					StartDate:     s.startDate,
					EndDate:       s.endDate,
					Status:        domain.StatusCreated,
					TotalAmount:   state.amount,
					LockID:        &state.lockID,
					Owner:         owner,
					CreatedAt:     now,
				}
				// захват превращается в подтвержденное бронирование, lock_id очищается
				if err := reservation.Apply(domain.EventConfirm, now); err != nil {
					return err
				}

				created, err := uc.repo.Create(ctx, reservation)
				if errors.Is(err, domain.ErrDuplicateID) {
					state.duplicate = true
					return err
				}
				if err != nil {
					// запись могла зафиксироваться, а ответ потеряться
					stored, ok := uc.persistedDespite(ctx, reservationID, owner, s, err)
					if !ok {
						return err
					}
					created = stored
				}
				state.persisted = created
				return nil
			},
		},
	}
}

// handleFailure завершает неуспешную сагу: регистрирует осиротевший захват
// и превращает гонку повторов в успешный ответ с существующим состоянием
func (uc *UseCase) handleFailure(
	ctx context.Context,
	reservationID string,
	owner domain.Identity,
	s *stay,
	state *sagaState,
	report *saga.Report,
	sagaErr error,
) (*Response, error) {
	degraded := false
	for _, failure := range report.CompensationFailures {
		switch failure.Step {
		case StepHoldRoom:
			degraded = true
			_ = uc.recorder.Record(context.WithoutCancel(ctx), reconciliation.OrphanedHold{
				LockID:        state.lockID,
				ReservationID: reservationID,
				Owner:         owner,
				Reason:        failure.Err.Error(),
			})
		case StepConfirmPackage:
			degraded = true
			uc.logger.Error("CreateReservation: reservation_id=%s confirmation not cancelled, manual follow-up needed: %v",
				reservationID, failure.Err)
		}
	}

	if errors.Is(sagaErr, domain.ErrDuplicateID) {
		ctx = context.WithoutCancel(ctx)
		uc.logger.Warn("CreateReservation: reservation_id=%s created concurrently, returning stored state", reservationID)
		existing, err := uc.repo.GetByID(ctx, reservationID)
		if err != nil {
			uc.logger.Error("CreateReservation: failed to load raced reservation_id=%s: %v", reservationID, err)
			return nil, fmt.Errorf("%w: load raced reservation: %w", ErrInternal, err)
		}
		if !sameStay(existing, s) || !canReplay(existing, owner) {
			return nil, ErrIdempotencyKeyReused
		}
		return newResponse(existing, true), nil
	}

	uc.logger.Warn("CreateReservation: reservation_id=%s failed at %s, compensated %v: %v",
		reservationID, report.FailedStep, report.Compensated, sagaErr)

	var err error
	if report.FailedStep == StepPersist {
		// ошибка хранилища не должна выглядеть как отказ внешнего сервиса
		uc.logger.Error("CreateReservation: reservation_id=%s not persisted: %v", reservationID, sagaErr)
		err = fmt.Errorf("%w: %w: %v", ErrSagaFailed, ErrPersistFailed, sagaErr)
	} else {
		err = fmt.Errorf("%w: %w", ErrSagaFailed, sagaErr)
	}
	if degraded {
		err = errors.Join(err, ErrCompensationDegraded)
	}
	return nil, err
}

// persistedDespite перечитывает бронь после неуспешного Create
// Возвращает сохраненную запись, если она совпадает с запросом этой саги
func (uc *UseCase) persistedDespite(ctx context.Context, reservationID string, owner domain.Identity, s *stay, createErr error) (*domain.Reservation, bool) {
	checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistCheckTimeout)
	defer cancel()

	stored, err := uc.repo.GetByID(checkCtx, reservationID)
	if err != nil {
		uc.logger.Warn("CreateReservation: reservation_id=%s create failed (%v), re-read failed: %v", reservationID, createErr, err)
		return nil, false
	}
	if !sameStay(stored, s) || stored.Owner.UserID != owner.UserID {
		return nil, false
	}

	uc.logger.Warn("CreateReservation: reservation_id=%s create reported %v but record is stored, treating as committed",
		reservationID, createErr)
	return stored, true
}

// replay возвращает существующее бронирование, если запрос уже выполнялся
// Возвращает nil, nil, если записи нет и сагу нужно запускать
func (uc *UseCase) replay(ctx context.Context, reservationID string, caller domain.Identity, s *stay) (*Response, error) {
	existing, err := uc.repo.GetByID(ctx, reservationID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		uc.logger.Error("CreateReservation: failed to check reservation_id=%s: %v", reservationID, err)
		return nil, fmt.Errorf("%w: check existing reservation: %w", ErrInternal, err)
	}

	if !sameStay(existing, s) || !canReplay(existing, caller) {
		uc.logger.Warn("CreateReservation: idempotency key %s reused by user=%s for a different request", reservationID, caller.UserID)
		return nil, ErrIdempotencyKeyReused
	}

	uc.logger.Info("CreateReservation: reservation_id=%s already exists in %s, saga skipped", reservationID, existing.Status)
	return newResponse(existing, true), nil
}

func canReplay(existing *domain.Reservation, caller domain.Identity) bool {
	return existing.Owner.UserID == caller.UserID || caller.IsStaff()
}
