package confirmation

import (
	"fmt"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

var (
	// ErrRejected возвращается, когда пакет бронирования отклонен
	ErrRejected = fmt.Errorf("confirmation: package rejected: %w", domain.ErrExternalUnavailable)

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = fmt.Errorf("confirmation client: internal error: %w", domain.ErrExternalUnavailable)

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = fmt.Errorf("confirmation client: invalid response: %w", domain.ErrExternalUnavailable)
)
