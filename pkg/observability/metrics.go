package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/promptflow/pkg/domain"
)

// Metrics holds the collectors of a promptflow process.
type Metrics struct {
	Changes            *prometheus.CounterVec
	Imports            *prometheus.CounterVec
	Issues             *prometheus.HistogramVec
	ValidationDuration prometheus.Histogram
	LayoutDuration     prometheus.Histogram
	OpenFlows          prometheus.Gauge
	Requests           *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
// A nil registerer leaves them unregistered, which is handy in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Changes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promptflow_changes_total",
				Help: "Committed store changes by type and operation",
			},
			[]string{"type", "op"},
		),
		Imports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promptflow_imports_total",
				Help: "Document imports by outcome",
			},
			[]string{"result"},
		),
		Issues: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "promptflow_validation_issues",
				Help:    "Issues found per validation pass",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
			},
			[]string{"severity"},
		),
		ValidationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "promptflow_validation_duration_seconds",
			Help:    "Duration of validation passes",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
		LayoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "promptflow_layout_duration_seconds",
			Help: "Duration of automatic layout runs",
		}),
		OpenFlows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "promptflow_open_flows",
			Help: "Flows currently held in the session cache",
		}),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promptflow_http_requests_total",
				Help: "HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Changes, m.Imports, m.Issues, m.ValidationDuration, m.LayoutDuration, m.OpenFlows, m.Requests)
	}
	return m
}

// ObserveChange counts a committed change. It matches the store subscriber signature.
func (m *Metrics) ObserveChange(ev domain.ChangeEvent) {
	if m == nil {
		return
	}
	m.Changes.WithLabelValues(string(ev.Type), ev.Op).Inc()
}

// ObserveValidation records the outcome of a validation pass.
func (m *Metrics) ObserveValidation(took time.Duration, result domain.Result) {
	if m == nil {
		return
	}
	m.ValidationDuration.Observe(took.Seconds())
	m.Issues.WithLabelValues(string(domain.SeverityError)).Observe(float64(len(result.Errors)))
	m.Issues.WithLabelValues(string(domain.SeverityWarning)).Observe(float64(len(result.Warnings)))
}

// ObserveImport counts an import attempt.
func (m *Metrics) ObserveImport(success bool) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.Imports.WithLabelValues(result).Inc()
}

// ObserveLayout records the duration of an automatic layout run.
func (m *Metrics) ObserveLayout(took time.Duration) {
	if m == nil {
		return
	}
	m.LayoutDuration.Observe(took.Seconds())
}

// SetOpenFlows reports the size of the session cache.
func (m *Metrics) SetOpenFlows(n int) {
	if m == nil {
		return
	}
	m.OpenFlows.Set(float64(n))
}

// ObserveRequest counts an HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
