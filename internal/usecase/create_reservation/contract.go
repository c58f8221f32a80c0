package create_reservation

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/auth"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/infra/idempotency"
	"github.com/m04kA/SMC-ReservationService/internal/infra/reconciliation"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/confirmation"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/inventory"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/pricing"
	"github.com/m04kA/SMC-ReservationService/internal/saga"
	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

// ReservationRepository интерфейс хранилища бронирований
type ReservationRepository interface {
	Create(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error)
	GetByID(ctx context.Context, reservationID string) (*domain.Reservation, error)
}

// TokenIssuer интерфейс выпуска внутренних токенов
type TokenIssuer interface {
	Issue(identity domain.Identity, scope string, ttl time.Duration) (string, *auth.Claims, error)
}

// InventoryClient интерфейс клиента сервиса инвентаря
type InventoryClient interface {
	Hold(ctx context.Context, token string, hold inventory.HoldRequest) (string, error)
	Release(ctx context.Context, token, lockID string) error
}

// PricingClient интерфейс клиента сервиса цен
type PricingClient interface {
	Quote(ctx context.Context, token string, quote pricing.QuoteRequest) (types.Money, error)
}

// ConfirmationClient интерфейс клиента сервиса подтверждения
type ConfirmationClient interface {
	Confirm(ctx context.Context, token string, pkg confirmation.Request) error
	Cancel(ctx context.Context, token, reservationID string) error
}

// EventPublisher интерфейс публикации доменных событий
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event domain.ReservationEvent) error
}

// SagaGuard интерфейс захвата reservation_id на время саги
type SagaGuard interface {
	Acquire(ctx context.Context, reservationID string) (idempotency.Release, error)
}

// OrphanRecorder интерфейс регистрации неосвобожденных захватов
type OrphanRecorder interface {
	Record(ctx context.Context, hold reconciliation.OrphanedHold) error
}

// SagaRunner интерфейс исполнителя саги
type SagaRunner interface {
	Run(ctx context.Context, steps ...saga.Step) (*saga.Report, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// IDGenerator генерирует reservation_id, если клиент не передал ключ идемпотентности
type IDGenerator func() string

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
