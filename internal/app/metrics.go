package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Intent outcomes recorded by Metrics.
const (
	outcomeApplied  = "applied"
	outcomeRejected = "rejected"
)

// Metrics holds Prometheus collectors for browsers and screens.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	intents       *prometheus.CounterVec
	staleFetches  prometheus.Counter
	fetchDuration *prometheus.HistogramVec
	openScreens   prometheus.Gauge
}

// NewMetrics registers the browser collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		intents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quote_browser",
			Name:      "intents_total",
			Help:      "Intents dispatched to browsers, by intent and outcome.",
		}, []string{"intent", "outcome"}),
		staleFetches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "quote_browser",
			Name:      "stale_fetches_total",
			Help:      "Fetch completions discarded because a newer fetch was issued.",
		}),
		fetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "quote_browser",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of quote fetches, by result.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		openScreens: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "quote_browser",
			Name:      "open_screens",
			Help:      "Screens currently open.",
		}),
	}
}

func (m *Metrics) intent(name, outcome string) {
	if m == nil {
		return
	}

	m.intents.WithLabelValues(name, outcome).Inc()
}

func (m *Metrics) staleFetch() {
	if m == nil {
		return
	}

	m.staleFetches.Inc()
}

func (m *Metrics) fetched(result string, seconds float64) {
	if m == nil {
		return
	}

	m.fetchDuration.WithLabelValues(result).Observe(seconds)
}

func (m *Metrics) screens(n int) {
	if m == nil {
		return
	}

	m.openScreens.Set(float64(n))
}
