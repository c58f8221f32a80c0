package models

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

// ReservationResponse представление бронирования для API
type ReservationResponse struct {
	ReservationID string      `json:"reservation_id"`
	ClientID      string      `json:"client_id"`
	HotelID       string      `json:"hotel_id"`
	RoomID        string      `json:"room_id"`
	StartDate     string      `json:"start_date"`
	EndDate       string      `json:"end_date"`
	Status        string      `json:"status"`
	TotalAmount   types.Money `json:"total_amount"`
	LockID        *string     `json:"lock_id"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// FromDomainReservation конвертирует доменную модель в ответ API
func FromDomainReservation(r *domain.Reservation) *ReservationResponse {
	return &ReservationResponse{
		ReservationID: r.ReservationID,
		ClientID:      r.ClientID,
		HotelID:       r.HotelID,
		RoomID:        r.RoomID,
		StartDate:     r.StartDate.Format(domain.DateFormat),
		EndDate:       r.EndDate.Format(domain.DateFormat),
		Status:        string(r.Status),
		TotalAmount:   r.TotalAmount,
		LockID:        r.LockID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
