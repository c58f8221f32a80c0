package create_reservation

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// validateRequest валидирует входные данные запроса до запуска саги
func validateRequest(req *Request) (*stay, error) {
	if err := validateID("client_id", req.ClientID); err != nil {
		return nil, err
	}
	if err := validateID("hotel_id", req.HotelID); err != nil {
		return nil, err
	}
	if err := validateID("room_id", req.RoomID); err != nil {
		return nil, err
	}
	if req.IdempotencyKey != "" {
		if err := validateID("idempotency key", req.IdempotencyKey); err != nil {
			return nil, err
		}
	}

	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}

	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start_date must be before end_date", ErrInvalidInput)
	}
	if nights := int(end.Sub(start).Hours() / 24); nights > domain.MaxStayNights {
		return nil, fmt.Errorf("%w: stay of %d nights exceeds %d", ErrInvalidInput, nights, domain.MaxStayNights)
	}

	return &stay{
		clientID:  req.ClientID,
		hotelID:   req.HotelID,
		roomID:    req.RoomID,
		startDate: start,
		endDate:   end,
	}, nil
}

func validateID(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	if len(value) > domain.MaxIDLength {
		return fmt.Errorf("%w: %s longer than %d characters", ErrInvalidInput, field, domain.MaxIDLength)
	}
	return nil
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	t, err := time.Parse(domain.DateFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD: %v", ErrInvalidInput, field, err)
	}
	return t, nil
}

// sameStay проверяет, что повтор запроса описывает то же бронирование
func sameStay(existing *domain.Reservation, s *stay) bool {
	return existing.ClientID == s.clientID &&
		existing.HotelID == s.hotelID &&
		existing.RoomID == s.roomID &&
		existing.StartDate.Equal(s.startDate) &&
		existing.EndDate.Equal(s.endDate)
}
