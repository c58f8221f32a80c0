package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

const spoolKey = "reservations:pending_events"

// ErrSpool возвращается при ошибке хранилища недоставленных событий
var ErrSpool = errors.New("events: spool unavailable")

// Pending событие, ожидающее повторной доставки
type Pending struct {
	Topic   string `json:"topic"`
	Key     string `json:"key"`
	Payload []byte `json:"payload"`
	Reason  string `json:"reason"`
}

// Spool хранилище событий, которые не удалось доставить или поставить в очередь
type Spool interface {
	Push(ctx context.Context, event Pending) error
	Pop(ctx context.Context, max int) ([]Pending, error)
}

// RedisSpool хранит события в redis list и переживает рестарт процесса
type RedisSpool struct {
	rdb redis.Cmdable
}

// NewRedisSpool создает spool поверх redis
func NewRedisSpool(rdb redis.Cmdable) *RedisSpool {
	return &RedisSpool{rdb: rdb}
}

func (s *RedisSpool) Push(ctx context.Context, event Pending) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: Push - encode %s key=%s: %v", ErrSpool, event.Topic, event.Key, err)
	}
	if err := s.rdb.RPush(ctx, spoolKey, raw).Err(); err != nil {
		return fmt.Errorf("%w: Push - rpush %s key=%s: %v", ErrSpool, event.Topic, event.Key, err)
	}
	return nil
}

// Pop забирает до max самых старых событий
func (s *RedisSpool) Pop(ctx context.Context, max int) ([]Pending, error) {
	entries, err := s.rdb.LPopCount(ctx, spoolKey, max).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Pop - lpop: %v", ErrSpool, err)
	}

	out := make([]Pending, 0, len(entries))
	for _, raw := range entries {
		var event Pending
		if err := json.Unmarshal([]byte(raw), &event); err != nil {
			// поврежденная запись не должна блокировать остальные
			continue
		}
		out = append(out, event)
	}
	return out, nil
}

// MemorySpool хранилище в памяти процесса
type MemorySpool struct {
	mu     sync.Mutex
	events []Pending
}

// NewMemorySpool создает пустой spool
func NewMemorySpool() *MemorySpool {
	return &MemorySpool{}
}

func (s *MemorySpool) Push(_ context.Context, event Pending) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemorySpool) Pop(_ context.Context, max int) ([]Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if max > len(s.events) {
		max = len(s.events)
	}
	out := append([]Pending(nil), s.events[:max]...)
	s.events = s.events[max:]
	return out, nil
}

// Len количество ожидающих событий
func (s *MemorySpool) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}
