package create_reservation

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	uc "github.com/m04kA/SMC-ReservationService/internal/usecase/create_reservation"
	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

// CreateReservationRequest тело запроса на создание бронирования
type CreateReservationRequest struct {
	ClientID  string `json:"client_id"`
	HotelID   string `json:"hotel_id"`
	RoomID    string `json:"room_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ToUseCaseRequest собирает запрос usecase из тела, ключа идемпотентности и идентичности
func (r *CreateReservationRequest) ToUseCaseRequest(identity domain.Identity, idempotencyKey string) *uc.Request {
	return &uc.Request{
		Identity:       identity,
		IdempotencyKey: idempotencyKey,
		ClientID:       r.ClientID,
		HotelID:        r.HotelID,
		RoomID:         r.RoomID,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
	}
}

// CreateReservationResponse ответ с подтвержденным бронированием
type CreateReservationResponse struct {
	Status        string      `json:"status"`
	ReservationID string      `json:"reservation_id"`
	TotalAmount   types.Money `json:"total_amount"`
	LockID        *string     `json:"lock_id"`
	ClientID      string      `json:"client_id"`
	HotelID       string      `json:"hotel_id"`
	RoomID        string      `json:"room_id"`
	StartDate     string      `json:"start_date"`
	EndDate       string      `json:"end_date"`
	CreatedAt     time.Time   `json:"created_at"`
}

// FromUseCaseResponse конвертирует ответ usecase в ответ API
func FromUseCaseResponse(resp *uc.Response) *CreateReservationResponse {
	return &CreateReservationResponse{
		Status:        string(resp.Status),
		ReservationID: resp.ReservationID,
		TotalAmount:   resp.TotalAmount,
		LockID:        resp.LockID,
		ClientID:      resp.ClientID,
		HotelID:       resp.HotelID,
		RoomID:        resp.RoomID,
		StartDate:     resp.StartDate.Format(domain.DateFormat),
		EndDate:       resp.EndDate.Format(domain.DateFormat),
		CreatedAt:     resp.CreatedAt,
	}
}
