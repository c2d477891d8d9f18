package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const outcomeSuccess = "success"

type Metrics struct {
	Invitations     *prometheus.CounterVec
	InviteDuration  prometheus.Histogram
	PublishFailures prometheus.Counter
}

// New registers tenant metrics on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Invitations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tenancy_member_invitations_total",
			Help: "Invite-member commands by outcome (success or error code)",
		}, []string{"outcome"}),
		InviteDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tenancy_member_invite_duration_seconds",
			Help:    "Duration of invite-member command execution",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		PublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "tenancy_member_invited_publish_failures_total",
			Help: "Members persisted whose invited event could not be published",
		}),
	}
}

// ObserveInvite records one command outcome. An empty code means success.
func (m *Metrics) ObserveInvite(code string, start time.Time) {
	if code == "" {
		code = outcomeSuccess
	}
	m.Invitations.WithLabelValues(code).Inc()
	m.InviteDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementPublishFailure() {
	m.PublishFailures.Inc()
}
