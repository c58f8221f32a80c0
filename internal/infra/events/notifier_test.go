package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

type published struct {
	topic   string
	key     string
	payload []byte
}

type fakePublisher struct {
	mu       sync.Mutex
	failures int
	calls    int
	out      []published
	block    chan struct{}
}

func (p *fakePublisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	if p.block != nil {
		<-p.block
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.failures > 0 {
		p.failures--
		return errors.New("broker unavailable")
	}
	p.out = append(p.out, published{topic: topic, key: key, payload: payload})
	return nil
}

func (p *fakePublisher) delivered() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.out...)
}

type fakeMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (m *fakeMetrics) ObserveEvent(_, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = map[string]int{}
	}
	m.outcomes[outcome]++
}

func (m *fakeMetrics) count(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcomes[outcome]
}

func testEvent(id string) domain.ReservationEvent {
	return domain.ReservationEvent{
		ReservationID: id,
		ClientID:      "C1",
		HotelID:       "H1",
		RoomID:        "R1",
		Status:        domain.StatusConfirmed,
		StartDate:     "2024-06-01",
		EndDate:       "2024-06-03",
		TotalAmount:   types.Money(25000),
	}
}

func TestNotifier_Delivers(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNotifier(pub, Config{Workers: 1}, logger.NewNop())

	require.NoError(t, n.Publish(context.Background(), domain.TopicReservationCreated, testEvent("res-1")))
	require.NoError(t, n.Close(context.Background()))

	out := pub.delivered()
	require.Len(t, out, 1)
	assert.Equal(t, domain.TopicReservationCreated, out[0].topic)
	assert.Equal(t, "res-1", out[0].key)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out[0].payload, &decoded))
	assert.Equal(t, "CONFIRMADA", decoded["status"])
	assert.Equal(t, "250.00", decoded["total_amount"])
}

func TestNotifier_RetriesUntilDelivered(t *testing.T) {
	pub := &fakePublisher{failures: 2}
	m := &fakeMetrics{}
	n := NewNotifier(pub, Config{Workers: 1, MaxAttempts: 3, RetryBackoff: time.Millisecond}, logger.NewNop(), WithMetrics(m))

	require.NoError(t, n.Publish(context.Background(), domain.TopicReservationCancelled, testEvent("res-1")))
	require.NoError(t, n.Close(context.Background()))

	assert.Len(t, pub.delivered(), 1)
	assert.Equal(t, 3, pub.calls)
	assert.Equal(t, 1, m.count("success"))
}

func TestNotifier_GivesUpAfterMaxAttempts(t *testing.T) {
	pub := &fakePublisher{failures: 10}
	m := &fakeMetrics{}
	spool := NewMemorySpool()
	n := NewNotifier(pub, Config{Workers: 1, MaxAttempts: 2, RetryBackoff: time.Millisecond, Redeliver: time.Hour},
		logger.NewNop(), WithMetrics(m), WithSpool(spool))

	require.NoError(t, n.Publish(context.Background(), domain.TopicReservationCreated, testEvent("res-1")))
	require.NoError(t, n.Close(context.Background()))

	assert.Empty(t, pub.delivered())
	assert.Equal(t, 2, pub.calls)
	assert.Equal(t, 1, m.count("failure"))
	assert.Equal(t, 1, m.count("spooled"))
	assert.Equal(t, 0, m.count("dropped"))

	pending, err := spool.Pop(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, domain.TopicReservationCreated, pending[0].Topic)
	assert.Equal(t, "res-1", pending[0].Key)
	assert.Contains(t, pending[0].Reason, "undelivered after 2 attempts")
}

func TestNotifier_RedeliversSpooledEvents(t *testing.T) {
	pub := &fakePublisher{failures: 2}
	m := &fakeMetrics{}
	n := NewNotifier(pub, Config{Workers: 1, MaxAttempts: 1, Redeliver: 5 * time.Millisecond}, logger.NewNop(), WithMetrics(m))

	require.NoError(t, n.Publish(context.Background(), domain.TopicReservationCancelled, testEvent("res-1")))

	assert.Eventually(t, func() bool { return len(pub.delivered()) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, n.Close(context.Background()))

	out := pub.delivered()
	require.Len(t, out, 1)
	assert.Equal(t, domain.TopicReservationCancelled, out[0].topic)
	assert.Equal(t, "res-1", out[0].key)
	assert.Equal(t, 2, m.count("spooled"))
	assert.Equal(t, 1, m.count("success"))
}

func TestNotifier_FullBufferDoesNotBlock(t *testing.T) {
	pub := &fakePublisher{block: make(chan struct{})}
	m := &fakeMetrics{}
	spool := NewMemorySpool()
	n := NewNotifier(pub, Config{BufferSize: 1, Workers: 1, Redeliver: time.Hour}, logger.NewNop(), WithMetrics(m), WithSpool(spool))

	// первое событие занимает воркер, второе буфер, третье уходит в spool
	var errs []error
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 3; i++ {
			errs = append(errs, n.Publish(context.Background(), domain.TopicReservationCreated, testEvent("res-1")))
			time.Sleep(10 * time.Millisecond)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full buffer")
	}

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, m.count("spooled"))
	assert.Equal(t, 0, m.count("dropped"))
	assert.Equal(t, 1, spool.Len())

	close(pub.block)
	require.NoError(t, n.Close(context.Background()))
	assert.Len(t, pub.delivered(), 2)
}

type brokenSpool struct{}

func (brokenSpool) Push(context.Context, Pending) error { return ErrSpool }

func (brokenSpool) Pop(context.Context, int) ([]Pending, error) { return nil, nil }

func TestNotifier_FullBufferWithoutSpool(t *testing.T) {
	pub := &fakePublisher{block: make(chan struct{})}
	m := &fakeMetrics{}
	n := NewNotifier(pub, Config{BufferSize: 1, Workers: 1}, logger.NewNop(), WithMetrics(m), WithSpool(brokenSpool{}))

	require.NoError(t, n.Publish(context.Background(), domain.TopicReservationCreated, testEvent("res-1")))
	assert.Eventually(t, func() bool { return len(n.queue) == 0 }, time.Second, time.Millisecond, "worker picked up the first event")
	require.NoError(t, n.Publish(context.Background(), domain.TopicReservationCreated, testEvent("res-2")))

	err := n.Publish(context.Background(), domain.TopicReservationCreated, testEvent("res-3"))
	assert.ErrorIs(t, err, ErrBufferFull)
	assert.Equal(t, 1, m.count("dropped"))

	close(pub.block)
	require.NoError(t, n.Close(context.Background()))
}

func TestNotifier_PublishAfterClose(t *testing.T) {
	n := NewNotifier(&fakePublisher{}, Config{}, logger.NewNop())
	require.NoError(t, n.Close(context.Background()))
	require.NoError(t, n.Close(context.Background()))

	err := n.Publish(context.Background(), domain.TopicReservationCreated, testEvent("res-1"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNotifier_CloseTimeout(t *testing.T) {
	pub := &fakePublisher{failures: 100}
	n := NewNotifier(pub, Config{Workers: 1, MaxAttempts: 100, RetryBackoff: time.Hour}, logger.NewNop())
	require.NoError(t, n.Publish(context.Background(), domain.TopicReservationCreated, testEvent("res-1")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := n.Close(ctx)
	assert.ErrorIs(t, err, ErrDrainTimeout)
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaPublisher(w)

	require.NoError(t, p.Publish(context.Background(), domain.TopicReservationCheckedIn, "res-1", []byte(`{}`)))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, domain.TopicReservationCheckedIn, msg.Topic)
	assert.Equal(t, []byte("res-1"), msg.Key)
	require.NotEmpty(t, msg.Headers)
	assert.Equal(t, HeaderEventType, msg.Headers[0].Key)
	assert.Equal(t, []byte(domain.TopicReservationCheckedIn), msg.Headers[0].Value)

	t.Run("writer error", func(t *testing.T) {
		p := NewKafkaPublisher(&fakeWriter{err: errors.New("no leader")})
		err := p.Publish(context.Background(), domain.TopicReservationCheckedIn, "res-1", nil)
		assert.ErrorIs(t, err, ErrPublish)
	})
}
