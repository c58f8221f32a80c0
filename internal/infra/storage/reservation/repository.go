package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/psqlbuilder"
)

const (
	tableReservations = "reservations"

	// pqUniqueViolation код ошибки PostgreSQL при нарушении уникального индекса
	pqUniqueViolation = "23505"
)

var reservationColumns = []string{
	"reservation_id",
	"client_id",
	"hotel_id",
	"room_id",
	"start_date",
	"end_date",
	"status",
	"total_amount",
	"lock_id",
	"owner_user_id",
	"owner_username",
	"owner_role",
	"version",
	"created_at",
	"updated_at",
}

// Repository репозиторий бронирований в PostgreSQL
// Одна строка на reservation_id, конкурентные записи разрешаются через столбец version
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет новое бронирование
// Возвращает ErrDuplicateID, если reservation_id уже занят
func (r *Repository) Create(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error) {
	query, args, err := psqlbuilder.Insert(tableReservations).
		Columns(
			"reservation_id",
			"client_id",
			"hotel_id",
			"room_id",
			"start_date",
			"end_date",
			"status",
			"total_amount",
			"lock_id",
			"owner_user_id",
			"owner_username",
			"owner_role",
			"version",
		).
		Values(
			reservation.ReservationID,
			reservation.ClientID,
			reservation.HotelID,
			reservation.RoomID,
			reservation.StartDate,
			reservation.EndDate,
			reservation.Status,
			reservation.TotalAmount,
			reservation.LockID,
			reservation.Owner.UserID,
			reservation.Owner.Username,
			reservation.Owner.Role,
			1,
		).
		Suffix("RETURNING version, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	created := reservation.Clone()
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&created.Version, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return nil, fmt.Errorf("%w: reservation_id=%s", ErrDuplicateID, reservation.ReservationID)
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return created, nil
}

// GetByID получает бронирование по reservation_id
func (r *Repository) GetByID(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	query, args, err := psqlbuilder.Select(reservationColumns...).
		From(tableReservations).
		Where(squirrel.Eq{"reservation_id": reservationID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	reservation, err := scanReservation(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan reservation: %v", ErrScanRow, err)
	}

	return reservation, nil
}

// Update применяет mutate к копии текущего состояния и записывает результат,
// только если версия строки не изменилась с момента чтения
// Изменение статуса проверяется таблицей переходов, неизменяемые поля не записываются
func (r *Repository) Update(ctx context.Context, reservationID string, mutate Mutator) (*domain.Reservation, error) {
	current, err := r.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	if err := domain.VerifyUpdate(current, next); err != nil {
		return nil, err
	}

	query, args, err := psqlbuilder.Update(tableReservations).
		Set("status", next.Status).
		Set("lock_id", next.LockID).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"reservation_id": reservationID, "version": current.Version}).
		Suffix("RETURNING version, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	err = r.db.QueryRowContext(ctx, query, args...).Scan(&next.Version, &next.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// строка либо удалена, либо обновлена конкурентной записью
		return nil, fmt.Errorf("%w: reservation_id=%s version=%d", ErrConflict, reservationID, current.Version)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	return next, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	var (
		reservation domain.Reservation
		lockID      sql.NullString
		updatedAt   sql.NullTime
	)

	err := row.Scan(
		&reservation.ReservationID,
		&reservation.ClientID,
		&reservation.HotelID,
		&reservation.RoomID,
		&reservation.StartDate,
		&reservation.EndDate,
		&reservation.Status,
		&reservation.TotalAmount,
		&lockID,
		&reservation.Owner.UserID,
		&reservation.Owner.Username,
		&reservation.Owner.Role,
		&reservation.Version,
		&reservation.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lockID.Valid {
		reservation.LockID = &lockID.String
	}
	reservation.UpdatedAt = updatedAt.Time

	return &reservation, nil
}
