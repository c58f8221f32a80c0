package idempotency

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-ReservationService/internal/clock"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

const keyPrefix = "reservations:saga:"

// DefaultTTL время жизни захвата, если сага не освободила его сама
const DefaultTTL = 2 * time.Minute

var (
	// ErrHeld возвращается, когда сага или переход для этого reservation_id уже выполняется
	ErrHeld = fmt.Errorf("idempotency: reservation operation in progress: %w", domain.ErrConflict)

	// ErrGuard возвращается при ошибке хранилища захватов
	ErrGuard = errors.New("idempotency: guard unavailable")
)

// Release освобождает захват
type Release func(ctx context.Context)

// RedisGuard сериализует создание брони с одним reservation_id между экземплярами сервиса
type RedisGuard struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedisGuard создает захват на SET NX PX
func NewRedisGuard(rdb redis.Cmdable, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisGuard{rdb: rdb, ttl: ttl}
}

// releaseScript удаляет ключ, только если он все еще принадлежит владельцу
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Acquire захватывает reservationID или возвращает ErrHeld
func (g *RedisGuard) Acquire(ctx context.Context, reservationID string) (Release, error) {
	key := keyPrefix + reservationID
	token := uuid.NewString()

	ok, err := g.rdb.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: Acquire - setnx %s: %v", ErrGuard, key, err)
	}
	if !ok {
		return nil, ErrHeld
	}

	return func(ctx context.Context) {
		_ = releaseScript.Run(ctx, g.rdb, []string{key}, token).Err()
	}, nil
}

// MemoryGuard захват в памяти процесса, используется когда redis выключен
type MemoryGuard struct {
	mu    sync.Mutex
	clock clock.Clock
	ttl   time.Duration
	held  map[string]time.Time
}

// NewMemoryGuard создает захват в памяти
func NewMemoryGuard(clk clock.Clock, ttl time.Duration) *MemoryGuard {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryGuard{clock: clk, ttl: ttl, held: make(map[string]time.Time)}
}

// Acquire захватывает reservationID или возвращает ErrHeld
func (g *MemoryGuard) Acquire(_ context.Context, reservationID string) (Release, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	if expires, ok := g.held[reservationID]; ok && now.Before(expires) {
		return nil, ErrHeld
	}

	expires := now.Add(g.ttl)
	g.held[reservationID] = expires

	return func(context.Context) {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.held[reservationID] == expires {
			delete(g.held, reservationID)
		}
	}, nil
}
