package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records request and domain counters for the API.
type Metrics struct {
	requestDuration *prometheus.HistogramVec
	movements       *prometheus.CounterVec
	movementDenied  prometheus.Counter
	submissions     prometheus.Counter
	reveals         prometheus.Counter
}

// New registers the service metrics on the provided registerer. A nil
// registerer returns a no-op instance, which keeps tests quiet.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movements_total",
		Help: "Confirmed stock movements by type.",
	}, []string{"type"})
	movementDenied := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_checkout_denied_total",
		Help: "Check-outs rejected for insufficient availability.",
	})
	submissions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "applications_submitted_total",
		Help: "Job applications accepted.",
	})
	reveals := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "application_reveals_total",
		Help: "Applicant identities revealed to reviewers.",
	})
	reg.MustRegister(requestDuration, movements, movementDenied, submissions, reveals)
	return &Metrics{
		requestDuration: requestDuration,
		movements:       movements,
		movementDenied:  movementDenied,
		submissions:     submissions,
		reveals:         reveals,
	}
}

// ObserveRequest records one handled HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, duration time.Duration) {
	if m == nil || m.requestDuration == nil {
		return
	}
	m.requestDuration.WithLabelValues(normalizeLabel(method), normalizeLabel(route), status).Observe(duration.Seconds())
}

// IncMovement counts one confirmed stock movement of the given type.
func (m *Metrics) IncMovement(movementType string) {
	if m == nil || m.movements == nil {
		return
	}
	m.movements.WithLabelValues(normalizeLabel(movementType)).Inc()
}

// IncMovementDenied counts one check-out rejected on availability.
func (m *Metrics) IncMovementDenied() {
	if m == nil || m.movementDenied == nil {
		return
	}
	m.movementDenied.Inc()
}

// IncSubmission counts one accepted application.
func (m *Metrics) IncSubmission() {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.Inc()
}

// IncReveal counts one successful identity reveal.
func (m *Metrics) IncReveal() {
	if m == nil || m.reveals == nil {
		return
	}
	m.reveals.Inc()
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return value
}
