package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор Prometheus-метрик сервиса
type Metrics struct {
	// HTTP
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// База данных
	dbQueryDuration *prometheus.HistogramVec
	dbQueryErrors   *prometheus.CounterVec
	dbPoolOpen      *prometheus.GaugeVec
	dbPoolIdle      *prometheus.GaugeVec
	dbPoolInUse     *prometheus.GaugeVec

	// Автоматизация статусов
	automationTransitions *prometheus.CounterVec
	automationSkipped     *prometheus.CounterVec
	automationPassSeconds prometheus.Histogram
	automationWriteErrors prometheus.Counter
}

// New создает и регистрирует метрики сервиса
func New(serviceName string) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "path", "status"}),

		httpRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),

		dbQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query duration in seconds",
			ConstLabels: constLabels,
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),

		dbQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_query_errors_total",
			Help:        "Total number of database query errors",
			ConstLabels: constLabels,
		}, []string{"operation"}),

		dbPoolOpen: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_pool_open_connections",
			Help:        "Number of open connections in the pool",
			ConstLabels: constLabels,
		}, []string{"db"}),

		dbPoolIdle: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_pool_idle_connections",
			Help:        "Number of idle connections in the pool",
			ConstLabels: constLabels,
		}, []string{"db"}),

		dbPoolInUse: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_pool_in_use_connections",
			Help:        "Number of connections currently in use",
			ConstLabels: constLabels,
		}, []string{"db"}),

		automationTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_automation_transitions_total",
			Help:        "Total number of automatic booking status transitions",
			ConstLabels: constLabels,
		}, []string{"from", "to"}),

		automationSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_automation_skipped_total",
			Help:        "Candidates skipped during an automation pass",
			ConstLabels: constLabels,
		}, []string{"reason"}),

		automationPassSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:        "booking_automation_pass_duration_seconds",
			Help:        "Duration of a single automation pass",
			ConstLabels: constLabels,
			Buckets:     []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),

		automationWriteErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "booking_automation_write_errors_total",
			Help:        "Failed status writes during automation passes",
			ConstLabels: constLabels,
		}),
	}
}

// ObserveHTTPRequest записывает метрики HTTP запроса
func (m *Metrics) ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveDBQuery записывает метрики запроса к БД
func (m *Metrics) ObserveDBQuery(operation string, duration time.Duration, err error) {
	m.dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.dbQueryErrors.WithLabelValues(operation).Inc()
	}
}

// SetDBPoolStats записывает состояние connection pool
func (m *Metrics) SetDBPoolStats(db string, open, idle, inUse int) {
	m.dbPoolOpen.WithLabelValues(db).Set(float64(open))
	m.dbPoolIdle.WithLabelValues(db).Set(float64(idle))
	m.dbPoolInUse.WithLabelValues(db).Set(float64(inUse))
}

// ObserveTransition записывает автоматический переход статуса
func (m *Metrics) ObserveTransition(from, to string) {
	m.automationTransitions.WithLabelValues(from, to).Inc()
}

// ObserveSkipped записывает пропуск кандидата в проходе автоматизации
func (m *Metrics) ObserveSkipped(reason string) {
	m.automationSkipped.WithLabelValues(reason).Inc()
}

// ObservePass записывает длительность прохода автоматизации
func (m *Metrics) ObservePass(duration time.Duration) {
	m.automationPassSeconds.Observe(duration.Seconds())
}

// ObserveWriteError записывает неудачную запись статуса
func (m *Metrics) ObserveWriteError() {
	m.automationWriteErrors.Inc()
}
