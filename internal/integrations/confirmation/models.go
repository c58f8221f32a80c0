package confirmation

import "github.com/m04kA/SMC-ReservationService/pkg/types"

// Request пакет бронирования на подтверждение
type Request struct {
	ReservationID string      `json:"reservation_id"`
	ClientID      string      `json:"client_id"`
	HotelID       string      `json:"hotel_id"`
	RoomID        string      `json:"room_id"`
	StartDate     string      `json:"start_date"`
	EndDate       string      `json:"end_date"`
	LockID        string      `json:"lock_id"`
	Amount        types.Money `json:"amount"`
}
