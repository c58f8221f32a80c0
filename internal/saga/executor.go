package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/m04kA/SMC-ReservationService/pkg/metrics"
)

const tracerName = "github.com/m04kA/SMC-ReservationService/internal/saga"

// DefaultStepTimeout время на один шаг, если не задано явно
const DefaultStepTimeout = 5 * time.Second

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Metrics приемник метрик саги
type Metrics interface {
	ObserveSagaStep(saga, step, outcome string, duration time.Duration)
	ObserveCompensation(saga, step, outcome string)
	ObserveSagaResult(saga, outcome string)
}

// Executor последовательно выполняет шаги саги и компенсирует выполненные шаги при отказе
type Executor struct {
	name        string
	stepTimeout time.Duration
	logger      Logger
	metrics     Metrics
	tracer      trace.Tracer
}

// Option настраивает Executor
type Option func(*Executor)

// WithMetrics подключает сбор метрик
func WithMetrics(m Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// WithTracer подменяет tracer (по умолчанию глобальный otel tracer)
func WithTracer(t trace.Tracer) Option {
	return func(e *Executor) {
		if t != nil {
			e.tracer = t
		}
	}
}

// NewExecutor создает исполнителя саги с именем name
func NewExecutor(name string, stepTimeout time.Duration, logger Logger, opts ...Option) *Executor {
	if stepTimeout <= 0 {
		stepTimeout = DefaultStepTimeout
	}
	e := &Executor{
		name:        name,
		stepTimeout: stepTimeout,
		logger:      logger,
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run выполняет шаги по порядку
// Отмена ctx вызывающим не прерывает сагу: каждый шаг получает собственный таймаут
// поверх контекста без отмены, поэтому сага всегда доходит до зафиксированного
// или скомпенсированного результата.
// Ошибки компенсаций не возвращаются, они попадают в Report.CompensationFailures.
func (e *Executor) Run(ctx context.Context, steps ...Step) (*Report, error) {
	base := context.WithoutCancel(ctx)
	report := &Report{Saga: e.name}
	completed := make([]Step, 0, len(steps))

	for _, step := range steps {
		if err := e.runStep(base, step); err != nil {
			report.FailedStep = step.Name
			e.logger.Warn("Saga %s: step %s failed: %v, compensating %d completed step(s)",
				e.name, step.Name, err, len(completed))

			e.compensate(base, completed, report)
			e.observeResult(report, false)
			return report, fmt.Errorf("%w: %s: %w", ErrStepFailed, step.Name, err)
		}

		completed = append(completed, step)
		report.Completed = append(report.Completed, step.Name)
	}

	e.observeResult(report, true)
	return report, nil
}

func (e *Executor) runStep(base context.Context, step Step) error {
	stepCtx, cancel := context.WithTimeout(base, e.stepTimeout)
	defer cancel()

	stepCtx, span := e.tracer.Start(stepCtx, "saga."+e.name+"."+step.Name,
		trace.WithAttributes(attribute.String("saga.name", e.name), attribute.String("saga.step", step.Name)))
	defer span.End()

	start := time.Now()
	err := step.Action(stepCtx)
	duration := time.Since(start)

	if err == nil {
		e.observeStep(step.Name, metrics.OutcomeSuccess, duration)
		return nil
	}

	outcome := metrics.OutcomeFailure
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
		outcome = metrics.OutcomeTimeout
		err = fmt.Errorf("%w after %v: %w", ErrStepTimeout, e.stepTimeout, err)
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, outcome)
	e.observeStep(step.Name, outcome, duration)
	return err
}

// compensate откатывает выполненные шаги в обратном порядке
func (e *Executor) compensate(base context.Context, completed []Step, report *Report) {
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.Compensate == nil {
			continue
		}

		compCtx, cancel := context.WithTimeout(base, e.stepTimeout)
		err := step.Compensate(compCtx)
		cancel()

		if err != nil {
			e.logger.Error("Saga %s: compensation of %s failed, left for reconciliation: %v", e.name, step.Name, err)
			report.CompensationFailures = append(report.CompensationFailures, CompensationFailure{Step: step.Name, Err: err})
			e.observeCompensation(step.Name, metrics.OutcomeFailure)
			continue
		}

		e.logger.Info("Saga %s: compensated %s", e.name, step.Name)
		report.Compensated = append(report.Compensated, step.Name)
		e.observeCompensation(step.Name, metrics.OutcomeSuccess)
	}
}

func (e *Executor) observeStep(step, outcome string, duration time.Duration) {
	if e.metrics != nil {
		e.metrics.ObserveSagaStep(e.name, step, outcome, duration)
	}
}

func (e *Executor) observeCompensation(step, outcome string) {
	if e.metrics != nil {
		e.metrics.ObserveCompensation(e.name, step, outcome)
	}
}

func (e *Executor) observeResult(report *Report, ok bool) {
	if e.metrics == nil {
		return
	}
	switch {
	case ok:
		e.metrics.ObserveSagaResult(e.name, "committed")
	case report.Degraded():
		e.metrics.ObserveSagaResult(e.name, "compensated_degraded")
	default:
		e.metrics.ObserveSagaResult(e.name, "compensated")
	}
}
