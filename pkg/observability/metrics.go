package observability

import (
	"net/http"
	"strconv"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors fed by the controller's lifecycle hooks.
type Metrics struct {
	Transitions      *prometheus.CounterVec
	Searches         *prometheus.CounterVec
	SearchOperations prometheus.Histogram
	SearchDuration   prometheus.Histogram
	Rendered         *prometheus.CounterVec
	Sessions         prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses a fresh private registry.
func NewMetrics(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wayfinder_transitions_total",
				Help: "Total number of controller state transitions",
			},
			[]string{"from", "to", "event"},
		),
		Searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wayfinder_searches_total",
				Help: "Total number of pathfinding searches",
			},
			[]string{"found"},
		),
		SearchOperations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wayfinder_search_operations",
				Help:    "Operations recorded per search",
				Buckets: prometheus.ExponentialBuckets(10, 4, 8),
			},
		),
		SearchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name: "wayfinder_search_duration_seconds",
				Help: "Time spent inside the finder",
			},
		),
		Rendered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wayfinder_rendered_operations_total",
				Help: "Operations replayed to the renderer",
			},
			[]string{"attribute"},
		),
		Sessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wayfinder_sessions_active",
				Help: "Live visualizer sessions",
			},
		),
		gatherer: reg,
	}

	for _, c := range []prometheus.Collector{
		m.Transitions, m.Searches, m.SearchOperations, m.SearchDuration, m.Rendered, m.Sessions,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(e *domain.TransitionEvent) {
			m.Transitions.WithLabelValues(string(e.From), string(e.To), string(e.Event)).Inc()
		},
		OnSearch: func(e *domain.SearchEvent) {
			m.Searches.WithLabelValues(strconv.FormatBool(e.Found)).Inc()
			m.SearchOperations.Observe(float64(e.Stats.OperationCount))
			m.SearchDuration.Observe(e.Stats.TimeSpent.Seconds())
		},
		OnRendered: func(e *domain.RenderedEvent) {
			m.Rendered.WithLabelValues(string(e.Operation.Attr)).Inc()
		},
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
