package reservation

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

var (
	// ErrReservationNotFound возвращается, когда бронирование не найдено
	ErrReservationNotFound = fmt.Errorf("reservation.repository: %w", domain.ErrNotFound)

	// ErrDuplicateID возвращается, когда бронирование с таким reservation_id уже существует
	ErrDuplicateID = fmt.Errorf("reservation.repository: %w", domain.ErrDuplicateID)

	// ErrConflict возвращается, когда версия записи изменилась после чтения
	ErrConflict = fmt.Errorf("reservation.repository: %w", domain.ErrConflict)

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("reservation.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("reservation.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("reservation.repository: failed to scan row")
)
