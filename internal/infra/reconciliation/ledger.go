package reconciliation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

const ledgerKey = "reservations:orphaned_holds"

var (
	// ErrLedger возвращается при ошибке хранилища осиротевших захватов
	ErrLedger = errors.New("reconciliation: ledger unavailable")

	// ErrDecode возвращается, если запись в хранилище повреждена
	ErrDecode = errors.New("reconciliation: failed to decode entry")
)

// OrphanedHold захват номера, который сага не смогла освободить
type OrphanedHold struct {
	LockID        string          `json:"lock_id"`
	ReservationID string          `json:"reservation_id"`
	Owner         domain.Identity `json:"owner"`
	Reason        string          `json:"reason"`
	RecordedAt    time.Time       `json:"recorded_at"`
	Attempts      int             `json:"attempts"`
}

// Ledger хранилище осиротевших захватов, ключ записи lock_id
type Ledger interface {
	Add(ctx context.Context, hold OrphanedHold) error
	List(ctx context.Context) ([]OrphanedHold, error)
	Remove(ctx context.Context, lockID string) error
}

// RedisLedger хранит захваты в redis hash, общий для всех экземпляров сервиса
type RedisLedger struct {
	rdb redis.Cmdable
}

// NewRedisLedger создает ledger поверх redis
func NewRedisLedger(rdb redis.Cmdable) *RedisLedger {
	return &RedisLedger{rdb: rdb}
}

// Add сохраняет или перезаписывает запись
func (l *RedisLedger) Add(ctx context.Context, hold OrphanedHold) error {
	raw, err := json.Marshal(hold)
	if err != nil {
		return fmt.Errorf("%w: Add - encode lock_id=%s: %v", ErrLedger, hold.LockID, err)
	}
	if err := l.rdb.HSet(ctx, ledgerKey, hold.LockID, raw).Err(); err != nil {
		return fmt.Errorf("%w: Add - hset lock_id=%s: %v", ErrLedger, hold.LockID, err)
	}
	return nil
}

// List возвращает все записи в порядке регистрации
func (l *RedisLedger) List(ctx context.Context) ([]OrphanedHold, error) {
	entries, err := l.rdb.HGetAll(ctx, ledgerKey).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: List - hgetall: %v", ErrLedger, err)
	}

	holds := make([]OrphanedHold, 0, len(entries))
	for lockID, raw := range entries {
		var hold OrphanedHold
		if err := json.Unmarshal([]byte(raw), &hold); err != nil {
			return nil, fmt.Errorf("%w: lock_id=%s: %v", ErrDecode, lockID, err)
		}
		holds = append(holds, hold)
	}
	sortByRecordedAt(holds)
	return holds, nil
}

// Remove удаляет запись
func (l *RedisLedger) Remove(ctx context.Context, lockID string) error {
	if err := l.rdb.HDel(ctx, ledgerKey, lockID).Err(); err != nil {
		return fmt.Errorf("%w: Remove - hdel lock_id=%s: %v", ErrLedger, lockID, err)
	}
	return nil
}

// MemoryLedger хранилище в памяти процесса
type MemoryLedger struct {
	mu    sync.Mutex
	holds map[string]OrphanedHold
}

// NewMemoryLedger создает пустой ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{holds: make(map[string]OrphanedHold)}
}

func (l *MemoryLedger) Add(_ context.Context, hold OrphanedHold) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.holds[hold.LockID] = hold
	return nil
}

func (l *MemoryLedger) List(_ context.Context) ([]OrphanedHold, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	holds := make([]OrphanedHold, 0, len(l.holds))
	for _, hold := range l.holds {
		holds = append(holds, hold)
	}
	sortByRecordedAt(holds)
	return holds, nil
}

func (l *MemoryLedger) Remove(_ context.Context, lockID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.holds, lockID)
	return nil
}

func sortByRecordedAt(holds []OrphanedHold) {
	sort.Slice(holds, func(i, j int) bool {
		if holds[i].RecordedAt.Equal(holds[j].RecordedAt) {
			return holds[i].LockID < holds[j].LockID
		}
		return holds[i].RecordedAt.Before(holds[j].RecordedAt)
	})
}
