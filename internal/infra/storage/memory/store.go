package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/m04kA/SMC-ReservationService/internal/clock"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/infra/storage/reservation"
)

// Store хранилище бронирований в памяти процесса
// Семантика совпадает с reservation.Repository: запись по версии, те же ошибки
type Store struct {
	mu    sync.RWMutex
	clock clock.Clock
	items map[string]*domain.Reservation
}

// NewStore создает пустое хранилище
func NewStore(clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Store{
		clock: clk,
		items: make(map[string]*domain.Reservation),
	}
}

// Create сохраняет новое бронирование
func (s *Store) Create(_ context.Context, r *domain.Reservation) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[r.ReservationID]; ok {
		return nil, fmt.Errorf("%w: reservation_id=%s", reservation.ErrDuplicateID, r.ReservationID)
	}

	now := s.clock.Now()
	stored := r.Clone()
	stored.Version = 1
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.items[r.ReservationID] = stored

	return stored.Clone(), nil
}

// GetByID возвращает копию бронирования
func (s *Store) GetByID(_ context.Context, reservationID string) (*domain.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.items[reservationID]
	if !ok {
		return nil, reservation.ErrReservationNotFound
	}
	return stored.Clone(), nil
}

// Update читает запись, применяет mutate к копии без блокировки и записывает,
// только если версия не изменилась с момента чтения
func (s *Store) Update(ctx context.Context, reservationID string, mutate reservation.Mutator) (*domain.Reservation, error) {
	current, err := s.GetByID(ctx, reservationID)
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

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.items[reservationID]
	if !ok || stored.Version != current.Version {
		return nil, fmt.Errorf("%w: reservation_id=%s version=%d", reservation.ErrConflict, reservationID, current.Version)
	}

	next.Version = current.Version + 1
	next.UpdatedAt = s.clock.Now()
	s.items[reservationID] = next

	return next.Clone(), nil
}

// Len возвращает количество записей
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
