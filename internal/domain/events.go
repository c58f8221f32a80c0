package domain

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

// Топики доменных событий
const (
	TopicReservationCreated    = "reserva.creada"
	TopicReservationCancelled  = "reserva.cancelada"
	TopicReservationCheckedIn  = "reserva.checkin"
	TopicReservationCheckedOut = "reserva.checkout"
)

// ReservationEvent payload of every reservation domain event
type ReservationEvent struct {
	ReservationID string      `json:"reservation_id"`
	ClientID      string      `json:"client_id"`
	HotelID       string      `json:"hotel_id"`
	RoomID        string      `json:"room_id"`
	Status        Status      `json:"status"`
	StartDate     string      `json:"start_date"`
	EndDate       string      `json:"end_date"`
	TotalAmount   types.Money `json:"total_amount"`
	OccurredAt    time.Time   `json:"occurred_at"`
}

// NewReservationEvent builds the event payload from the committed state
func NewReservationEvent(r *Reservation) ReservationEvent {
	return ReservationEvent{
		ReservationID: r.ReservationID,
		ClientID:      r.ClientID,
		HotelID:       r.HotelID,
		RoomID:        r.RoomID,
		Status:        r.Status,
		StartDate:     r.StartDate.Format(DateFormat),
		EndDate:       r.EndDate.Format(DateFormat),
		TotalAmount:   r.TotalAmount,
		OccurredAt:    r.UpdatedAt,
	}
}
