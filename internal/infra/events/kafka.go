package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// HeaderEventType заголовок с типом события
const HeaderEventType = "event_type"

// Writer часть kafka.Writer, которой пользуется KafkaPublisher
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher публикует события в kafka, топик совпадает с типом события
type KafkaPublisher struct {
	writer Writer
}

// NewKafkaWriter создает writer для списка брокеров
func NewKafkaWriter(brokers []string, clientID string) *kafka.Writer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
	if clientID != "" {
		w.Transport = &kafka.Transport{ClientID: clientID}
	}
	return w
}

// NewKafkaPublisher создает publisher поверх writer
func NewKafkaPublisher(writer Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// Publish записывает одно сообщение: ключ reservation_id сохраняет порядок событий одной брони
func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	msg := kafka.Message{
		Topic:   topic,
		Key:     []byte(key),
		Value:   payload,
		Headers: injectTrace(ctx, []kafka.Header{{Key: HeaderEventType, Value: []byte(topic)}}),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: kafka topic=%s: %v", ErrPublish, topic, err)
	}
	return nil
}

// Close закрывает writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func injectTrace(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return headers
}
