package pricing

import "github.com/m04kA/SMC-ReservationService/pkg/types"

// QuoteRequest запрос на расчет цены проживания
type QuoteRequest struct {
	HotelID   string `json:"hotel_id"`
	RoomID    string `json:"room_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	LockID    string `json:"lock_id"`
}

// QuoteResponse итоговая цена
type QuoteResponse struct {
	Amount   types.Money `json:"amount"`
	Currency string      `json:"currency,omitempty"`
}
