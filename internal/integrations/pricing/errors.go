package pricing

import (
	"fmt"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

var (
	// ErrUnavailable возвращается, когда цену нельзя рассчитать
	ErrUnavailable = fmt.Errorf("pricing: quote unavailable: %w", domain.ErrExternalUnavailable)

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = fmt.Errorf("pricing client: internal error: %w", domain.ErrExternalUnavailable)

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = fmt.Errorf("pricing client: invalid response: %w", domain.ErrExternalUnavailable)
)
