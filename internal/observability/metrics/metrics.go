package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
)

// Metrics exposes application-level instruments.
type Metrics struct {
	registry *prometheus.Registry

	notificationsIngested *prometheus.CounterVec
	notificationsFiltered *prometheus.CounterVec
	verifications         *prometheus.CounterVec
	recognitions          *prometheus.CounterVec
	sessionsCreated       prometheus.Counter
	sessionsCleaned       prometheus.Counter
	rateLimitDenied       *prometheus.CounterVec
}

// New registers the domain instruments on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		notificationsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigiyoro_notifications_ingested_total",
			Help: "Payment notifications ingested, by source and outcome.",
		}, []string{"source", "outcome"}),
		notificationsFiltered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigiyoro_notifications_filtered_total",
			Help: "Payment notifications suppressed by a business filter.",
		}, []string{"reason"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigiyoro_payment_verifications_total",
			Help: "Payment verification attempts, by outcome.",
		}, []string{"outcome"}),
		recognitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigiyoro_visitor_recognitions_total",
			Help: "Visitor recognition attempts, by method.",
		}, []string{"method"}),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigiyoro_visitor_sessions_created_total",
			Help: "Visitor sessions minted.",
		}),
		sessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigiyoro_visitor_sessions_cleaned_total",
			Help: "Expired visitor sessions invalidated by the sweep.",
		}),
		rateLimitDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigiyoro_rate_limit_denied_total",
			Help: "Requests denied by the rate limiter, by endpoint.",
		}, []string{"endpoint"}),
	}

	registry.MustRegister(
		m.notificationsIngested,
		m.notificationsFiltered,
		m.verifications,
		m.recognitions,
		m.sessionsCreated,
		m.sessionsCleaned,
		m.rateLimitDenied,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

func (m *Metrics) RecordNotificationIngested(source, outcome string) {
	if m == nil {
		return
	}
	m.notificationsIngested.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) RecordNotificationFiltered(reason string) {
	if m == nil {
		return
	}
	m.notificationsFiltered.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordVerification(outcome string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordRecognition(method string) {
	if m == nil {
		return
	}
	m.recognitions.WithLabelValues(method).Inc()
}

func (m *Metrics) RecordSessionCreated() {
	if m == nil {
		return
	}
	m.sessionsCreated.Inc()
}

func (m *Metrics) RecordSessionsCleaned(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.sessionsCleaned.Add(float64(count))
}

func (m *Metrics) RecordRateLimitDenied(endpoint string) {
	if m == nil {
		return
	}
	m.rateLimitDenied.WithLabelValues(endpoint).Inc()
}

var Module = fx.Module("observability.metrics",
	fx.Provide(New),
)
