package create_reservation

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

// Request модель запроса на создание бронирования
type Request struct {
	Identity       domain.Identity // Вызывающий, от имени которого выполняется сага
	IdempotencyKey string          // Ключ идемпотентности клиента, становится reservation_id (опционально)
	ClientID       string
	HotelID        string
	RoomID         string
	StartDate      string // YYYY-MM-DD
	EndDate        string // YYYY-MM-DD
}

// Response модель ответа с итоговым состоянием бронирования
type Response struct {
	ReservationID string
	ClientID      string
	HotelID       string
	RoomID        string
	StartDate     time.Time
	EndDate       time.Time
	Status        domain.Status
	TotalAmount   types.Money
	LockID        *string

	// Replayed true, если бронирование уже существовало и сага не запускалась
	Replayed bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// stay разобранный и проверенный запрос
type stay struct {
	clientID  string
	hotelID   string
	roomID    string
	startDate time.Time
	endDate   time.Time
}

func newResponse(r *domain.Reservation, replayed bool) *Response {
	return &Response{
		ReservationID: r.ReservationID,
		ClientID:      r.ClientID,
		HotelID:       r.HotelID,
		RoomID:        r.RoomID,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		Status:        r.Status,
		TotalAmount:   r.TotalAmount,
		LockID:        r.LockID,
		Replayed:      replayed,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
