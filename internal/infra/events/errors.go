package events

import "errors"

var (
	// ErrBufferFull возвращается, когда очередь заполнена, а spool не принял событие
	ErrBufferFull = errors.New("events: buffer full")

	// ErrClosed возвращается при публикации после Close
	ErrClosed = errors.New("events: notifier closed")

	// ErrEncode возвращается при ошибке сериализации события
	ErrEncode = errors.New("events: failed to encode event")

	// ErrDrainTimeout возвращается, если очередь не успела опустеть до завершения
	ErrDrainTimeout = errors.New("events: drain timeout")

	// ErrPublish возвращается транспортом при ошибке записи
	ErrPublish = errors.New("events: failed to publish")
)
