package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the inquiry service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	submissions     *prometheus.CounterVec
	accountsCreated prometheus.Counter
	ordersCreated   prometheus.Counter
	externalErrors  *prometheus.CounterVec
	callDuration    *prometheus.HistogramVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
}

// InquirySnapshot is a point-in-time view of submission counters, served by
// the ops metrics endpoint.
type InquirySnapshot struct {
	Submissions     int64   `json:"submissions"`
	Succeeded       int64   `json:"succeeded"`
	Failed          int64   `json:"failed"`
	SuccessRate     float64 `json:"success_rate"`
	AccountsCreated int64   `json:"accounts_created"`
	OrdersCreated   int64   `json:"orders_created"`
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inquiry_submissions_total",
				Help: "Total inquiry submissions by outcome.",
			},
			[]string{"status"},
		),
		accountsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "inquiry_accounts_created_total",
				Help: "Total customer accounts created by the inquiry flow.",
			},
		),
		ordersCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "inquiry_orders_created_total",
				Help: "Total orders created by the inquiry flow.",
			},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inquiry_external_errors_total",
				Help: "Total errors from the commerce backend.",
			},
			[]string{"service"},
		),
		callDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "inquiry_backend_call_duration_seconds",
				Help:    "Duration of commerce backend calls by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inquiry_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inquiry_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
	}
}

// IncrSubmission increments the submission counter with an outcome label.
func (m *Metrics) IncrSubmission(status string) {
	m.submissions.WithLabelValues(status).Inc()
}

// IncrAccountCreated increments the created-accounts counter.
func (m *Metrics) IncrAccountCreated() {
	m.accountsCreated.Inc()
}

// IncrOrderCreated increments the created-orders counter.
func (m *Metrics) IncrOrderCreated() {
	m.ordersCreated.Inc()
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// RecordCallDuration records the duration of a backend operation.
func (m *Metrics) RecordCallDuration(operation string, d time.Duration) {
	m.callDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// GetInquirySnapshot gathers current counter values for the ops endpoint.
// Prometheus counters expose cumulative values.
func (m *Metrics) GetInquirySnapshot() *InquirySnapshot {
	succeeded := getCounterValue(m.submissions, "success")
	failed := getCounterValue(m.submissions, "error")
	total := succeeded + failed

	successRate := float64(0)
	if total > 0 {
		successRate = succeeded / total
	}

	return &InquirySnapshot{
		Submissions:     int64(total),
		Succeeded:       int64(succeeded),
		Failed:          int64(failed),
		SuccessRate:     successRate,
		AccountsCreated: int64(getPlainCounterValue(m.accountsCreated)),
		OrdersCreated:   int64(getPlainCounterValue(m.ordersCreated)),
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

func getPlainCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
