package metadata

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts metadata upload outcomes. A nil *Metrics is valid and records nothing.
type Metrics struct {
	pinned    prometheus.Counter
	fallbacks prometheus.Counter

	registerOnce sync.Once
}

// NewMetrics returns Metrics registered with registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{}
	m.Register(registry)

	return m
}

// Register registers the counters with registry. It is a no-op for a nil registry and after the
// first call.
func (m *Metrics) Register(registry prometheus.Registerer) {
	if registry == nil {
		return
	}

	m.registerOnce.Do(func() {
		factory := promauto.With(registry)

		m.pinned = factory.NewCounter(prometheus.CounterOpts{
			Name: "proposal_launcher_metadata_pinned_total",
			Help: "Total number of proposal metadata documents pinned",
		})

		m.fallbacks = factory.NewCounter(prometheus.CounterOpts{
			Name: "proposal_launcher_metadata_upload_fallbacks_total",
			Help: "Total number of proposals composed with empty metadata after a failed upload",
		})
	})
}

func (m *Metrics) incPinned() {
	if m != nil && m.pinned != nil {
		m.pinned.Inc()
	}
}

func (m *Metrics) incFallback() {
	if m != nil && m.fallbacks != nil {
		m.fallbacks.Inc()
	}
}
