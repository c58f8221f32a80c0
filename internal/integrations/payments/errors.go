package payments

import (
	"fmt"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

var (
	// ErrRefundRejected возвращается, когда сервис платежей отказал в возврате
	ErrRefundRejected = fmt.Errorf("payments: refund rejected: %w", domain.ErrExternalUnavailable)

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = fmt.Errorf("payments client: internal error: %w", domain.ErrExternalUnavailable)

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = fmt.Errorf("payments client: invalid response: %w", domain.ErrExternalUnavailable)
)
