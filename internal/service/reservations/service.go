package reservations

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationService/internal/clock"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
)

// Service сервис чтения бронирований и переходов заезда/выезда
type Service struct {
	repo            ReservationRepository
	publisher       EventPublisher
	guard           ReservationGuard
	timeProvider    TimeProvider
	conflictRetries int
	logger          Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(repo ReservationRepository, publisher EventPublisher, guard ReservationGuard, conflictRetries int, logger Logger) *Service {
	return &Service{
		repo:            repo,
		publisher:       publisher,
		guard:           guard,
		timeProvider:    clock.NewSystem(),
		conflictRetries: conflictRetries,
		logger:          logger,
	}
}

// GetByID получает бронирование по reservation_id
// Клиент видит только свои бронирования, сотрудники отеля видят все
func (s *Service) GetByID(ctx context.Context, reservationID string, caller domain.Identity) (*models.ReservationResponse, error) {
	s.logger.Info("GetByID: fetching reservation_id=%s for user=%s", reservationID, caller.UserID)

	if caller.IsZero() {
		return nil, ErrMissingIdentity
	}
	if reservationID == "" || len(reservationID) > domain.MaxIDLength {
		return nil, fmt.Errorf("%w: invalid reservation_id", ErrInvalidInput)
	}

	r, err := s.repo.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("GetByID: reservation_id=%s not found", reservationID)
			return nil, ErrReservationNotFound
		}
		s.logger.Error("GetByID: repository error for reservation_id=%s: %v", reservationID, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	if r.Owner.UserID != caller.UserID && !caller.IsStaff() {
		s.logger.Warn("GetByID: access denied for user=%s to reservation_id=%s", caller.UserID, reservationID)
		return nil, ErrAccessDenied
	}

	return models.FromDomainReservation(r), nil
}

// CheckIn переводит подтвержденное бронирование в CHECKIN
func (s *Service) CheckIn(ctx context.Context, reservationID string, caller domain.Identity) (*models.ReservationResponse, error) {
	return s.transition(ctx, "CheckIn", reservationID, caller, domain.EventCheckIn, domain.TopicReservationCheckedIn)
}

// CheckOut переводит бронирование из CHECKIN в CHECKOUT
func (s *Service) CheckOut(ctx context.Context, reservationID string, caller domain.Identity) (*models.ReservationResponse, error) {
	return s.transition(ctx, "CheckOut", reservationID, caller, domain.EventCheckOut, domain.TopicReservationCheckedOut)
}

// transition применяет событие через таблицу переходов и публикует событие после записи
// Заезд и выезд отмечают только сотрудники отеля.
// Пока идет отмена этого reservation_id, переход отклоняется с ErrConflict
func (s *Service) transition(
	ctx context.Context,
	op string,
	reservationID string,
	caller domain.Identity,
	event domain.Event,
	topic string,
) (*models.ReservationResponse, error) {
	s.logger.Info("%s: reservation_id=%s by user=%s role=%s", op, reservationID, caller.UserID, caller.Role)

	if caller.IsZero() {
		return nil, ErrMissingIdentity
	}
	if !caller.IsStaff() {
		s.logger.Warn("%s: role=%s may not change reservation_id=%s", op, caller.Role, reservationID)
		return nil, ErrAccessDenied
	}
	if reservationID == "" || len(reservationID) > domain.MaxIDLength {
		return nil, fmt.Errorf("%w: invalid reservation_id", ErrInvalidInput)
	}

	release, err := s.guard.Acquire(ctx, reservationID)
	if err != nil {
		s.logger.Warn("%s: reservation_id=%s busy: %v", op, reservationID, err)
		return nil, err
	}
	defer release(context.WithoutCancel(ctx))

	updated, err := reservation.UpdateWithRetry(ctx, s.repo, reservationID, func(r *domain.Reservation) error {
		return r.Apply(event, s.timeProvider.Now())
	}, s.conflictRetries)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			s.logger.Warn("%s: reservation_id=%s not found", op, reservationID)
			return nil, ErrReservationNotFound
		case errors.Is(err, domain.ErrIllegalTransition), errors.Is(err, domain.ErrConflict):
			s.logger.Warn("%s: reservation_id=%s rejected: %v", op, reservationID, err)
			return nil, err
		default:
			s.logger.Error("%s: repository error for reservation_id=%s: %v", op, reservationID, err)
			return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
		}
	}

	if err := s.publisher.Publish(ctx, topic, domain.NewReservationEvent(updated)); err != nil {
		s.logger.Warn("%s: reservation_id=%s event not queued: %v", op, reservationID, err)
	}

	s.logger.Info("%s: reservation_id=%s now %s", op, reservationID, updated.Status)
	return models.FromDomainReservation(updated), nil
}
