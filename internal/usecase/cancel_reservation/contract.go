package cancel_reservation

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/auth"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/infra/idempotency"
	"github.com/m04kA/SMC-ReservationService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/payments"
	"github.com/m04kA/SMC-ReservationService/internal/saga"
)

// ReservationRepository интерфейс хранилища бронирований
type ReservationRepository interface {
	GetByID(ctx context.Context, reservationID string) (*domain.Reservation, error)
	Update(ctx context.Context, reservationID string, mutate reservation.Mutator) (*domain.Reservation, error)
}

// TokenIssuer интерфейс выпуска внутренних токенов
type TokenIssuer interface {
	Issue(identity domain.Identity, scope string, ttl time.Duration) (string, *auth.Claims, error)
}

// InventoryClient интерфейс освобождения захвата номера
type InventoryClient interface {
	Release(ctx context.Context, token, lockID string) error
}

// PaymentsClient интерфейс клиента сервиса платежей
type PaymentsClient interface {
	Refund(ctx context.Context, token string, refund payments.RefundRequest) error
}

// EventPublisher интерфейс публикации доменных событий
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event domain.ReservationEvent) error
}

// ReservationGuard сериализует изменения одного reservation_id между сагами и переходами
type ReservationGuard interface {
	Acquire(ctx context.Context, reservationID string) (idempotency.Release, error)
}

// SagaRunner интерфейс исполнителя саги
type SagaRunner interface {
	Run(ctx context.Context, steps ...saga.Step) (*saga.Report, error)
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
