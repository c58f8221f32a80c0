package inventory

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

var (
	// ErrUnavailable возвращается, когда номер нельзя захватить на эти даты
	ErrUnavailable = fmt.Errorf("inventory: room unavailable: %w", domain.ErrExternalUnavailable)

	// ErrLockNotFound возвращается, когда захват уже освобожден или истек
	ErrLockNotFound = fmt.Errorf("inventory: lock not found: %w", domain.ErrNotFound)

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = fmt.Errorf("inventory client: internal error: %w", domain.ErrExternalUnavailable)

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = fmt.Errorf("inventory client: invalid response: %w", domain.ErrExternalUnavailable)

	// ErrEmptyLockID возвращается, если сервис подтвердил захват без идентификатора
	ErrEmptyLockID = errors.New("inventory client: empty lock_id")
)
