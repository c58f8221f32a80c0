package inventory

// HoldRequest запрос на захват номера
type HoldRequest struct {
	ReservationID string `json:"reservation_id"`
	HotelID       string `json:"hotel_id"`
	RoomID        string `json:"room_id"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
}

// HoldResponse ответ на захват номера
type HoldResponse struct {
	LockID string `json:"lock_id"`
}
