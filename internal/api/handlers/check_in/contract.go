package check_in

import (
	"context"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
)

// ReservationService сервис переходов заезда
type ReservationService interface {
	CheckIn(ctx context.Context, reservationID string, caller domain.Identity) (*models.ReservationResponse, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
