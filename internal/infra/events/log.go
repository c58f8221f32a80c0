package events

import "context"

// LogPublisher пишет события в лог, используется когда kafka выключена
type LogPublisher struct {
	logger Logger
}

// NewLogPublisher создает publisher, который только логирует события
func NewLogPublisher(logger Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish логирует событие
func (p *LogPublisher) Publish(_ context.Context, topic, key string, payload []byte) error {
	p.logger.Info("event %s key=%s payload=%s", topic, key, payload)
	return nil
}
