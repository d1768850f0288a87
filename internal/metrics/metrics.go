// Package metrics exposes Prometheus counters for logins, dispatch outcomes,
// proximity searches and assistant calls. A nil *Metrics is a valid no-op.
package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	logins        *prometheus.CounterVec
	dispatches    *prometheus.CounterVec
	searches      *prometheus.CounterVec
	searchResults *prometheus.HistogramVec
	llmCalls      *prometheus.CounterVec
}

// New registers the collectors on reg, or on the default registerer when reg
// is nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "careguardian",
			Subsystem: "auth",
			Name:      "login_total",
			Help:      "Login attempts by outcome",
		}, []string{"outcome"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "careguardian",
			Subsystem: "dispatch",
			Name:      "emergency_total",
			Help:      "Emergency reports by dispatch outcome",
		}, []string{"outcome"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "careguardian",
			Subsystem: "dispatch",
			Name:      "search_total",
			Help:      "Proximity searches by resource kind and mode",
		}, []string{"kind", "mode"}),
		searchResults: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "careguardian",
			Subsystem: "dispatch",
			Name:      "search_results",
			Help:      "Number of resources returned per proximity search",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50},
		}, []string{"kind"}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "careguardian",
			Subsystem: "assistant",
			Name:      "completion_total",
			Help:      "Assistant completions by operation and outcome",
		}, []string{"operation", "outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.logins, m.dispatches, m.searches, m.searchResults, m.llmCalls)
	return m
}

func (m *Metrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveDispatch(outcome string) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSearch(kind, mode string, results int) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(kind, mode).Inc()
	m.searchResults.WithLabelValues(kind).Observe(float64(results))
}

// ObserveLLM records one completion; outcome is "ok" or "degraded".
func (m *Metrics) ObserveLLM(operation, outcome string) {
	if m == nil {
		return
	}
	m.llmCalls.WithLabelValues(operation, outcome).Inc()
}
