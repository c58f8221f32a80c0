package reservations

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

var (
	// ErrReservationNotFound возвращается, когда бронирование не найдено
	ErrReservationNotFound = fmt.Errorf("reservations: %w", domain.ErrNotFound)

	// ErrAccessDenied возвращается, когда у вызывающего нет прав на операцию
	ErrAccessDenied = fmt.Errorf("reservations: access denied: %w", domain.ErrForbidden)

	// ErrMissingIdentity возвращается, если запрос пришел без идентичности вызывающего
	ErrMissingIdentity = fmt.Errorf("reservations: missing caller identity: %w", domain.ErrUnauthorized)

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("reservations: %w", domain.ErrInvalidInput)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("reservations: internal error")
)
