package cancel_reservation

import (
	"fmt"
	"strings"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if strings.TrimSpace(req.ReservationID) == "" {
		return fmt.Errorf("%w: reservation_id is required", ErrInvalidInput)
	}
	if len(req.ReservationID) > domain.MaxIDLength {
		return fmt.Errorf("%w: reservation_id longer than %d characters", ErrInvalidInput, domain.MaxIDLength)
	}
	if req.Identity.IsZero() {
		return ErrMissingIdentity
	}
	return nil
}

// canCancel проверяет, что вызывающий владелец брони или сотрудник отеля
func canCancel(r *domain.Reservation, caller domain.Identity) bool {
	return r.Owner.UserID == caller.UserID || caller.IsStaff()
}
