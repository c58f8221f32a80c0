package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/metrics"
)

// Значения по умолчанию
const (
	DefaultBufferSize   = 256
	DefaultWorkers      = 2
	DefaultMaxAttempts  = 5
	DefaultRetryBackoff = 200 * time.Millisecond
	DefaultRedeliver    = time.Second
	deliveryTimeout     = 10 * time.Second
	redeliverBatch      = 32
)

// Publisher транспорт доставки событий
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Metrics приемник метрик доставки
type Metrics interface {
	ObserveEvent(topic, outcome string)
}

// Config параметры очереди
type Config struct {
	BufferSize   int
	Workers      int
	MaxAttempts  int
	RetryBackoff time.Duration
	// Redeliver период повторной доставки событий из spool
	Redeliver time.Duration
}

type envelope struct {
	ctx     context.Context
	topic   string
	key     string
	payload []byte
}

// Notifier асинхронно доставляет доменные события с повторными попытками (at-least-once)
// Publish никогда не блокирует вызывающего: при заполненном буфере событие уходит в spool.
// События, не доставленные за MaxAttempts, тоже сохраняются в spool и доставляются повторно
type Notifier struct {
	publisher Publisher
	logger    Logger
	metrics   Metrics
	spool     Spool
	cfg       Config

	mu     sync.RWMutex
	closed bool
	queue  chan envelope

	wg     sync.WaitGroup
	relay  sync.WaitGroup
	stop   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// Option настраивает Notifier
type Option func(*Notifier)

// WithMetrics подключает сбор метрик
func WithMetrics(m Metrics) Option {
	return func(n *Notifier) {
		n.metrics = m
	}
}

// WithSpool подключает хранилище недоставленных событий
// По умолчанию используется MemorySpool
func WithSpool(s Spool) Option {
	return func(n *Notifier) {
		if s != nil {
			n.spool = s
		}
	}
}

// NewNotifier создает очередь и запускает воркеры доставки
func NewNotifier(publisher Publisher, cfg Config, logger Logger, opts ...Option) *Notifier {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	if cfg.Redeliver <= 0 {
		cfg.Redeliver = DefaultRedeliver
	}

	ctx, cancel := context.WithCancel(context.Background())
	n := &Notifier{
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
		spool:     NewMemorySpool(),
		queue:     make(chan envelope, cfg.BufferSize),
		stop:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(n)
	}

	for i := 0; i < cfg.Workers; i++ {
		n.wg.Add(1)
		go n.worker()
	}
	n.relay.Add(1)
	go n.redeliver()

	return n
}

// Publish ставит событие в очередь и сразу возвращает управление
// Событие публикуется только после фиксации состояния, ошибка не отменяет сагу
func (n *Notifier) Publish(ctx context.Context, topic string, event domain.ReservationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEncode, topic, err)
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		return ErrClosed
	}

	env := envelope{
		ctx:     context.WithoutCancel(ctx),
		topic:   topic,
		key:     event.ReservationID,
		payload: payload,
	}

	select {
	case n.queue <- env:
		return nil
	default:
	}

	if err := n.spill(env, "buffer full"); err != nil {
		n.logger.Error("Publish: buffer full and spool failed, dropping %s for reservation_id=%s: %v", topic, event.ReservationID, err)
		n.observe(topic, metrics.OutcomeDropped)
		return fmt.Errorf("%w: %s reservation_id=%s: %v", ErrBufferFull, topic, event.ReservationID, err)
	}
	n.logger.Warn("Publish: buffer full, %s for reservation_id=%s spooled", topic, event.ReservationID)
	return nil
}

// Close прекращает прием событий и дожидается доставки очереди
// Если ctx истекает раньше, незавершенные повторы прерываются
func (n *Notifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	close(n.stop)
	n.mu.Unlock()

	// relay больше не кладет события в очередь, ее можно закрыть
	n.relay.Wait()
	n.mu.Lock()
	close(n.queue)
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		n.cancel()
		return nil
	case <-ctx.Done():
		n.cancel()
		<-done
		return fmt.Errorf("%w: %v", ErrDrainTimeout, ctx.Err())
	}
}

func (n *Notifier) worker() {
	defer n.wg.Done()
	for env := range n.queue {
		n.deliver(env)
	}
}

func (n *Notifier) deliver(env envelope) {
	var lastErr error

	for attempt := 1; attempt <= n.cfg.MaxAttempts; attempt++ {
		if n.ctx.Err() != nil {
			n.giveUp(env, "shutdown", lastErr)
			return
		}

		lastErr = n.attempt(env)
		if lastErr == nil {
			n.observe(env.topic, metrics.OutcomeSuccess)
			return
		}

		if attempt == n.cfg.MaxAttempts {
			break
		}

		n.logger.Warn("deliver: %s reservation_id=%s attempt %d/%d failed: %v",
			env.topic, env.key, attempt, n.cfg.MaxAttempts, lastErr)

		backoff := n.cfg.RetryBackoff * time.Duration(1<<(attempt-1))
		select {
		case <-time.After(backoff):
		case <-n.ctx.Done():
			n.giveUp(env, "shutdown", lastErr)
			return
		}
	}

	n.giveUp(env, fmt.Sprintf("undelivered after %d attempts", n.cfg.MaxAttempts), lastErr)
}

// giveUp сохраняет событие в spool; без spool событие теряется
func (n *Notifier) giveUp(env envelope, reason string, lastErr error) {
	n.observe(env.topic, metrics.OutcomeFailure)
	if err := n.spill(env, fmt.Sprintf("%s: %v", reason, lastErr)); err != nil {
		n.logger.Error("deliver: %s reservation_id=%s lost (%s: %v): %v", env.topic, env.key, reason, lastErr, err)
		n.observe(env.topic, metrics.OutcomeDropped)
		return
	}
	n.logger.Warn("deliver: %s reservation_id=%s spooled for redelivery (%s): %v", env.topic, env.key, reason, lastErr)
}

func (n *Notifier) spill(env envelope, reason string) error {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()
	err := n.spool.Push(ctx, Pending{Topic: env.topic, Key: env.key, Payload: env.payload, Reason: reason})
	if err == nil {
		n.observe(env.topic, metrics.OutcomeSpooled)
	}
	return err
}

// redeliver периодически возвращает события из spool в очередь доставки
func (n *Notifier) redeliver() {
	defer n.relay.Done()

	ticker := time.NewTicker(n.cfg.Redeliver)
	defer ticker.Stop()

	for {
		select {
		case <-n.stop:
			return
		case <-ticker.C:
			n.requeue()
		}
	}
}

func (n *Notifier) requeue() {
	free := cap(n.queue) - len(n.queue)
	if free <= 0 {
		return
	}
	if free > redeliverBatch {
		free = redeliverBatch
	}

	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	pending, err := n.spool.Pop(ctx, free)
	if err != nil {
		n.logger.Warn("redeliver: spool unavailable: %v", err)
		return
	}

	for _, p := range pending {
		env := envelope{ctx: context.Background(), topic: p.Topic, key: p.Key, payload: p.Payload}
		select {
		case n.queue <- env:
			n.logger.Info("redeliver: %s reservation_id=%s requeued (%s)", p.Topic, p.Key, p.Reason)
		default:
			// очередь заполнилась конкурентными Publish
			if err := n.spool.Push(ctx, p); err != nil {
				n.logger.Error("redeliver: %s reservation_id=%s lost: %v", p.Topic, p.Key, err)
				n.observe(p.Topic, metrics.OutcomeDropped)
			}
		}
	}
}

func (n *Notifier) attempt(env envelope) error {
	ctx, cancel := context.WithTimeout(env.ctx, deliveryTimeout)
	defer cancel()
	return n.publisher.Publish(ctx, env.topic, env.key, env.payload)
}

func (n *Notifier) observe(topic, outcome string) {
	if n.metrics != nil {
		n.metrics.ObserveEvent(topic, outcome)
	}
}
