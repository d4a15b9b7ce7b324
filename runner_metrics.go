package uniswap_v3_hedge

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RunnerMetrics counts simulation runs. A nil *RunnerMetrics records nothing.
type RunnerMetrics struct {
	runs       *prometheus.CounterVec
	rebalances *prometheus.CounterVec
	events     prometheus.Counter
	discarded  prometheus.Counter
	duration   *prometheus.HistogramVec
}

func NewRunnerMetrics(reg prometheus.Registerer) *RunnerMetrics {
	m := &RunnerMetrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uniswap_hedge_runs_total",
				Help: "Total number of simulation runs",
			},
			[]string{"kind", "status"},
		),
		rebalances: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uniswap_hedge_rebalances_total",
				Help: "Total number of simulated range shifts",
			},
			[]string{"direction"},
		),
		events: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "uniswap_hedge_events_total",
				Help: "Total number of swap events fed to the engine",
			},
		),
		discarded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "uniswap_hedge_discarded_blocks_total",
				Help: "Total number of blocks dropped for holding several swaps",
			},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "uniswap_hedge_run_duration_seconds",
				Help:    "Duration of one simulation run",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"kind"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.rebalances, m.events, m.discarded, m.duration)
	}
	return m
}

// Measure times f and counts it as a run of kind.
func (m *RunnerMetrics) Measure(kind string, f func() error) error {
	if m == nil {
		return f()
	}
	start := time.Now()
	err := f()
	m.duration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		m.runs.WithLabelValues(kind, "failed").Inc()
	} else {
		m.runs.WithLabelValues(kind, "success").Inc()
	}
	return err
}

func (m *RunnerMetrics) ObserveEvents(n int) {
	if m == nil {
		return
	}
	m.events.Add(float64(n))
}

func (m *RunnerMetrics) ObserveDiscarded(slots []*NormalizedEvent) {
	if m == nil {
		return
	}
	for _, s := range slots {
		if s == nil {
			m.discarded.Inc()
		}
	}
}

func (m *RunnerMetrics) ObserveHedge(r *HedgeResult) {
	if m == nil || r == nil {
		return
	}
	for _, e := range r.RebalanceEvents {
		m.rebalances.WithLabelValues(string(e.Direction)).Inc()
	}
}
