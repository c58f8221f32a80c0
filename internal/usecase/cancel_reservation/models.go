package cancel_reservation

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

// Request модель запроса на отмену бронирования
type Request struct {
	Identity      domain.Identity
	ReservationID string
}

// Response подтверждение отмены
type Response struct {
	ReservationID string
	Status        domain.Status
	ReleasedLock  bool        // захват номера был освобожден
	Refunded      types.Money // сумма запрошенного возврата, 0 если возврата не было
	UpdatedAt     time.Time
}
