package launcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cogni-dao/proposal-launcher/proposal"
)

// Metrics counts submissions by kind and outcome. A nil *Metrics records nothing.
type Metrics struct {
	submissions *prometheus.CounterVec
}

// NewMetrics returns Metrics registered with registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	return &Metrics{
		submissions: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "proposal_launcher_submissions_total",
			Help: "Total number of submissions by proposal kind and outcome",
		}, []string{"kind", "outcome"}),
	}
}

func (m *Metrics) observe(kind proposal.Kind, outcome StateKind) {
	if m == nil {
		return
	}

	m.submissions.WithLabelValues(string(kind), outcome.String()).Inc()
}
