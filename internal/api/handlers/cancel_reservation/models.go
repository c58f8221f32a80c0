package cancel_reservation

import (
	"time"

	uc "github.com/m04kA/SMC-ReservationService/internal/usecase/cancel_reservation"
	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

// CancelReservationRequest тело запроса отмены, если идентификатор не передан в пути
type CancelReservationRequest struct {
	ReservationID string `json:"reservation_id"`
}

// CancelReservationResponse подтверждение отмены
type CancelReservationResponse struct {
	ReservationID string      `json:"reservation_id"`
	Status        string      `json:"status"`
	ReleasedLock  bool        `json:"released_lock"`
	Refunded      types.Money `json:"refunded_amount"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// FromUseCaseResponse конвертирует ответ usecase в ответ API
func FromUseCaseResponse(resp *uc.Response) *CancelReservationResponse {
	return &CancelReservationResponse{
		ReservationID: resp.ReservationID,
		Status:        string(resp.Status),
		ReleasedLock:  resp.ReleasedLock,
		Refunded:      resp.Refunded,
		UpdatedAt:     resp.UpdatedAt,
	}
}
