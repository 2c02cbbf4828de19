package lifecycle

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts request lifecycle events per kind.
type Metrics struct {
	created        *prometheus.CounterVec
	reviewed       *prometheus.CounterVec
	alreadyHandled *prometheus.CounterVec
	syncFailures   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "armybot_requests_created_total",
			Help: "Requests created, by kind",
		}, []string{"kind"}),
		reviewed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "armybot_requests_reviewed_total",
			Help: "Review decisions recorded, by kind and outcome",
		}, []string{"kind", "outcome"}),
		alreadyHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "armybot_requests_already_handled_total",
			Help: "Review actions rejected because the request was already handled, by kind",
		}, []string{"kind"}),
		syncFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "armybot_role_sync_failures_total",
			Help: "Platform role/nickname edits that failed after a persisted decision",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.created, m.reviewed, m.alreadyHandled, m.syncFailures)
	}
	return m
}

func (m *Metrics) Created(kind string) {
	if m != nil {
		m.created.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) Reviewed(kind, outcome string) {
	if m != nil {
		m.reviewed.WithLabelValues(kind, outcome).Inc()
	}
}

func (m *Metrics) AlreadyHandled(kind string) {
	if m != nil {
		m.alreadyHandled.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) SyncFailed() {
	if m != nil {
		m.syncFailures.Inc()
	}
}
