package reservation

import (
	"context"
	"errors"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// DefaultConflictRetries число повторов при конкурентной записи
const DefaultConflictRetries = 3

// Updater хранилище с оптимистичной записью
type Updater interface {
	Update(ctx context.Context, reservationID string, mutate Mutator) (*domain.Reservation, error)
}

// UpdateWithRetry повторяет Update при ErrConflict: каждая попытка заново читает запись
// и заново применяет mutate. Остальные ошибки возвращаются сразу.
func UpdateWithRetry(ctx context.Context, u Updater, reservationID string, mutate Mutator, retries int) (*domain.Reservation, error) {
	if retries < 0 {
		retries = 0
	}

	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		var updated *domain.Reservation
		updated, err = u.Update(ctx, reservationID, mutate)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, err
}
