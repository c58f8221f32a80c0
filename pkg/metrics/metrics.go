package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Исходы шагов саги и доставки событий
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeTimeout = "timeout"
	OutcomeDropped = "dropped"
	OutcomeSpooled = "spooled"
)

// Metrics набор prometheus-метрик сервиса
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	sagaStepsTotal     *prometheus.CounterVec
	sagaStepDuration   *prometheus.HistogramVec
	compensationsTotal *prometheus.CounterVec
	sagaResultsTotal   *prometheus.CounterVec

	eventsTotal *prometheus.CounterVec

	dbOpenConnections prometheus.Gauge
	dbInUse           prometheus.Gauge
	dbIdle            prometheus.Gauge
	dbWaitCount       prometheus.Gauge
	dbQueryDuration   *prometheus.HistogramVec
}

// New создает метрики и регистрирует их в глобальном реестре prometheus
func New(serviceName string) *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, serviceName)
}

// NewWithRegistry создает метрики и регистрирует их в переданном реестре
func NewWithRegistry(reg prometheus.Registerer, serviceName string) *Metrics {
	labels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: labels,
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),
		sagaStepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "saga_steps_total",
			Help:        "Saga steps executed, by outcome",
			ConstLabels: labels,
		}, []string{"saga", "step", "outcome"}),
		sagaStepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "saga_step_duration_seconds",
			Help:        "Saga step duration in seconds",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"saga", "step"}),
		compensationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "saga_compensations_total",
			Help:        "Saga compensations executed, by outcome",
			ConstLabels: labels,
		}, []string{"saga", "step", "outcome"}),
		sagaResultsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "saga_results_total",
			Help:        "Finished sagas, by outcome",
			ConstLabels: labels,
		}, []string{"saga", "outcome"}),
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "domain_events_total",
			Help:        "Domain events delivery attempts, by outcome",
			ConstLabels: labels,
		}, []string{"topic", "outcome"}),
		dbOpenConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Number of established database connections",
			ConstLabels: labels,
		}),
		dbInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Number of database connections currently in use",
			ConstLabels: labels,
		}),
		dbIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_idle_connections",
			Help:        "Number of idle database connections",
			ConstLabels: labels,
		}),
		dbWaitCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_wait_count",
			Help:        "Total number of connections waited for",
			ConstLabels: labels,
		}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query duration in seconds",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.sagaStepsTotal,
		m.sagaStepDuration,
		m.compensationsTotal,
		m.sagaResultsTotal,
		m.eventsTotal,
		m.dbOpenConnections,
		m.dbInUse,
		m.dbIdle,
		m.dbWaitCount,
		m.dbQueryDuration,
	)

	return m
}

// ObserveHTTPRequest фиксирует завершенный HTTP запрос
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveSagaStep фиксирует выполнение шага саги
func (m *Metrics) ObserveSagaStep(saga, step, outcome string, duration time.Duration) {
	m.sagaStepsTotal.WithLabelValues(saga, step, outcome).Inc()
	m.sagaStepDuration.WithLabelValues(saga, step).Observe(duration.Seconds())
}

// ObserveCompensation фиксирует выполнение компенсации
func (m *Metrics) ObserveCompensation(saga, step, outcome string) {
	m.compensationsTotal.WithLabelValues(saga, step, outcome).Inc()
}

// ObserveSagaResult фиксирует итог саги
func (m *Metrics) ObserveSagaResult(saga, outcome string) {
	m.sagaResultsTotal.WithLabelValues(saga, outcome).Inc()
}

// ObserveEvent фиксирует попытку доставки доменного события
func (m *Metrics) ObserveEvent(topic, outcome string) {
	m.eventsTotal.WithLabelValues(topic, outcome).Inc()
}

// ObserveQuery фиксирует длительность запроса к БД
func (m *Metrics) ObserveQuery(operation string, duration time.Duration) {
	m.dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetDBStats обновляет метрики пула соединений
func (m *Metrics) SetDBStats(open, inUse, idle int, waitCount int64) {
	m.dbOpenConnections.Set(float64(open))
	m.dbInUse.Set(float64(inUse))
	m.dbIdle.Set(float64(idle))
	m.dbWaitCount.Set(float64(waitCount))
}
