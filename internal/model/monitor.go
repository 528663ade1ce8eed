package model

import (
	"context"
	"time"

	"locktrack/internal/obs"
)

// StatsSource hands the monitor a consistent registry snapshot. The
// HTTP server implements it behind its own mutex.
type StatsSource interface {
	Snapshot() Stats
}

// StatsMonitor periodically publishes registry stats to the gauges and
// logs sweeps that observe a change.
type StatsMonitor struct {
	src      StatsSource
	logger   *obs.Logger
	metrics  *obs.Metrics
	interval time.Duration

	last Stats
}

func NewStatsMonitor(src StatsSource, logger *obs.Logger, metrics *obs.Metrics, interval time.Duration) *StatsMonitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &StatsMonitor{
		src:      src,
		logger:   logger,
		metrics:  metrics,
		interval: interval,
	}
}

func (m *StatsMonitor) Run(ctx context.Context) {
	t := time.NewTicker(m.interval)
	defer t.Stop()

	// Run once immediately
	m.sweepOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.sweepOnce()
		}
	}
}

func (m *StatsMonitor) sweepOnce() {
	start := time.Now()
	st := m.src.Snapshot()

	if m.metrics != nil {
		m.metrics.ResourcesTracked.Set(float64(st.Resources))
		m.metrics.IntervalsTracked.Set(float64(st.Intervals))
		m.metrics.CollisionPairs.Set(float64(st.CollisionPairs))
	}

	if m.logger != nil && st != m.last {
		m.logger.Info(map[string]interface{}{
			"op":              "stats_sweep",
			"resources":       st.Resources,
			"intervals":       st.Intervals,
			"collision_pairs": st.CollisionPairs,
			"latency_ms":      time.Since(start).Milliseconds(),
		})
	}
	m.last = st
}
