package saga

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

var (
	// ErrStepFailed возвращается, когда один из шагов саги завершился ошибкой
	ErrStepFailed = errors.New("saga: step failed")

	// ErrStepTimeout шаг не уложился в отведенное время, считается отказом внешнего сервиса
	ErrStepTimeout = fmt.Errorf("%w: saga: step timed out", domain.ErrExternalUnavailable)
)
