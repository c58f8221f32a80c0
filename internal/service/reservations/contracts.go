package reservations

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/infra/idempotency"
	"github.com/m04kA/SMC-ReservationService/internal/infra/storage/reservation"
)

// ReservationRepository интерфейс хранилища бронирований
type ReservationRepository interface {
	GetByID(ctx context.Context, reservationID string) (*domain.Reservation, error)
	Update(ctx context.Context, reservationID string, mutate reservation.Mutator) (*domain.Reservation, error)
}

// EventPublisher интерфейс публикации доменных событий
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event domain.ReservationEvent) error
}

// ReservationGuard сериализует изменения одного reservation_id
type ReservationGuard interface {
	Acquire(ctx context.Context, reservationID string) (idempotency.Release, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
