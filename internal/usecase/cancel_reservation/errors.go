package cancel_reservation

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("cancel_reservation: %w", domain.ErrInvalidInput)

	// ErrMissingIdentity возвращается, если запрос пришел без идентичности вызывающего
	ErrMissingIdentity = fmt.Errorf("cancel_reservation: missing caller identity: %w", domain.ErrUnauthorized)

	// ErrReservationNotFound возвращается, когда бронирование не найдено
	ErrReservationNotFound = fmt.Errorf("cancel_reservation: %w", domain.ErrNotFound)

	// ErrForbidden возвращается, когда вызывающий не владелец брони и не сотрудник отеля
	ErrForbidden = fmt.Errorf("cancel_reservation: %w", domain.ErrForbidden)

	// ErrNotCancellable возвращается, когда статус брони не допускает отмену
	ErrNotCancellable = fmt.Errorf("cancel_reservation: %w", domain.ErrIllegalTransition)

	// ErrSagaFailed возвращается, когда внешний шаг отмены не выполнен
	ErrSagaFailed = errors.New("cancel_reservation: saga failed")

	// ErrNotCommitted возвращается, если внешние шаги выполнены, а отмена не записана
	ErrNotCommitted = errors.New("cancel_reservation: external steps done but cancellation not committed")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("cancel_reservation: internal error")
)
