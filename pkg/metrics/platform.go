package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PlatformMetrics records counters for the questionnaire, selector and cart
// subsystems. Every method tolerates a nil receiver so callers can run
// without a registry in tests.
type PlatformMetrics struct {
	cartMutations    *prometheus.CounterVec
	selectorDuration *prometheus.HistogramVec
	selectorRuns     *prometheus.CounterVec
	sessionsActive   prometheus.Gauge
	sessionsExpired  *prometheus.CounterVec
	sweepDuration    prometheus.Histogram
}

// NewPlatformMetrics registers the platform metrics on the provided registerer.
func NewPlatformMetrics(reg prometheus.Registerer) *PlatformMetrics {
	if reg == nil {
		return &PlatformMetrics{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation and result.",
	}, []string{"op", "result"})
	selectorDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "selector_duration_seconds",
		Help:    "Duration of recommendation selector runs.",
		Buckets: prometheus.DefBuckets,
	}, []string{"category"})
	selectorRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "selector_runs_total",
		Help: "Recommendation selector runs by result.",
	}, []string{"result"})
	sessionsActive := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "questionnaire_sessions_active",
		Help: "Questionnaire sessions currently in progress.",
	})
	sessionsExpired := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "questionnaire_sessions_expired_total",
		Help: "Questionnaire sessions removed by the idle sweeper.",
	}, []string{"mode"})
	sweepDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "session_sweep_duration_seconds",
		Help:    "Duration of session sweeper passes.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(cartMutations, selectorDuration, selectorRuns, sessionsActive, sessionsExpired, sweepDuration)
	return &PlatformMetrics{
		cartMutations:    cartMutations,
		selectorDuration: selectorDuration,
		selectorRuns:     selectorRuns,
		sessionsActive:   sessionsActive,
		sessionsExpired:  sessionsExpired,
		sweepDuration:    sweepDuration,
	}
}

// IncCartMutation counts one cart mutation outcome.
func (m *PlatformMetrics) IncCartMutation(op, result string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op), normalizeLabel(result)).Inc()
}

// ObserveSelector records the duration of one selector run.
func (m *PlatformMetrics) ObserveSelector(category string, duration time.Duration) {
	if m == nil || m.selectorDuration == nil {
		return
	}
	m.selectorDuration.WithLabelValues(normalizeLabel(category)).Observe(duration.Seconds())
}

// IncSelectorRun counts one selector run outcome.
func (m *PlatformMetrics) IncSelectorRun(result string) {
	if m == nil || m.selectorRuns == nil {
		return
	}
	m.selectorRuns.WithLabelValues(normalizeLabel(result)).Inc()
}

// SetActiveSessions updates the active questionnaire session gauge.
func (m *PlatformMetrics) SetActiveSessions(n int) {
	if m == nil || m.sessionsActive == nil {
		return
	}
	m.sessionsActive.Set(float64(n))
}

// AddExpiredSessions counts sessions removed by a sweeper pass.
func (m *PlatformMetrics) AddExpiredSessions(mode string, n int) {
	if m == nil || m.sessionsExpired == nil || n <= 0 {
		return
	}
	m.sessionsExpired.WithLabelValues(normalizeLabel(mode)).Add(float64(n))
}

// ObserveSweep records the duration of one sweeper pass.
func (m *PlatformMetrics) ObserveSweep(duration time.Duration) {
	if m == nil || m.sweepDuration == nil {
		return
	}
	m.sweepDuration.Observe(duration.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
