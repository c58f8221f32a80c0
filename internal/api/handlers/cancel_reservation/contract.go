package cancel_reservation

import (
	"context"

	uc "github.com/m04kA/SMC-ReservationService/internal/usecase/cancel_reservation"
)

// UseCase сага отмены бронирования
type UseCase interface {
	Execute(ctx context.Context, req *uc.Request) (*uc.Response, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
