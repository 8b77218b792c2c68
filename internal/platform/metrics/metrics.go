package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. Methods are
// nil-safe so tests can run services without a registry.
type Metrics struct {
	IdentitiesRegistered prometheus.Counter
	DonorsRegistered     prometheus.Counter
	RequestsCreated      prometheus.Counter
	DonationsCompleted   prometheus.Counter
	RequestDuration      *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		IdentitiesRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodbridge_identities_registered_total",
			Help: "Total number of identities registered",
		}),
		DonorsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodbridge_donors_registered_total",
			Help: "Total number of donor profiles registered",
		}),
		RequestsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodbridge_blood_requests_created_total",
			Help: "Total number of blood requests created",
		}),
		DonationsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodbridge_donations_completed_total",
			Help: "Total number of completed donations",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bloodbridge_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

func (m *Metrics) IncIdentitiesRegistered() {
	if m == nil {
		return
	}
	m.IdentitiesRegistered.Inc()
}

func (m *Metrics) IncDonorsRegistered() {
	if m == nil {
		return
	}
	m.DonorsRegistered.Inc()
}

func (m *Metrics) IncRequestsCreated() {
	if m == nil {
		return
	}
	m.RequestsCreated.Inc()
}

func (m *Metrics) IncDonationsCompleted() {
	if m == nil {
		return
	}
	m.DonationsCompleted.Inc()
}

func (m *Metrics) ObserveRequest(route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, status).Observe(seconds)
}
