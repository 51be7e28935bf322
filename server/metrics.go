package server

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requests *prometheus.CounterVec
}

func newMetrics(registry prometheus.Registerer) *metrics {
	return &metrics{
		requests: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "proposal_launcher_http_requests_total",
			Help: "Total number of HTTP requests by route, method and status code",
		}, []string{"route", "method", "code"}),
	}
}

func (m *metrics) observe(route, method string, status int) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}
