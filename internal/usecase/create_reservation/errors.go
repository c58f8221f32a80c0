package create_reservation

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("create_reservation: %w", domain.ErrInvalidInput)

	// ErrMissingIdentity возвращается, если запрос пришел без идентичности вызывающего
	ErrMissingIdentity = fmt.Errorf("create_reservation: missing caller identity: %w", domain.ErrUnauthorized)

	// ErrIdempotencyKeyReused возвращается, если ключ уже использован для другой брони
	ErrIdempotencyKeyReused = fmt.Errorf("create_reservation: idempotency key reused with different request: %w", domain.ErrConflict)

	// ErrSagaFailed возвращается, когда сага создания завершилась компенсацией
	ErrSagaFailed = errors.New("create_reservation: saga failed")

	// ErrCompensationDegraded присоединяется к ошибке саги, если компенсация не завершилась
	ErrCompensationDegraded = errors.New("create_reservation: compensation incomplete")

	// ErrPersistFailed возвращается, если хранилище не приняло бронь и записи под reservation_id нет
	ErrPersistFailed = fmt.Errorf("create_reservation: reservation not persisted: %w", ErrInternal)

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_reservation: internal error")
)
