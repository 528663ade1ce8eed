package obs

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	AddTotal   *prometheus.CounterVec // result=success|invalid
	QueryTotal *prometheus.CounterVec // op=status|collision_at|first_collision|all_collisions, result=ok|invalid

	OpLatencyMS *prometheus.HistogramVec // op=add|status|collision_at|first_collision|all_collisions|load

	RecordsLoadedTotal  prometheus.Counter
	RecordsSkippedTotal prometheus.Counter

	ResourcesTracked prometheus.Gauge
	IntervalsTracked prometheus.Gauge
	CollisionPairs   prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		AddTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "locktrack_add_total",
				Help: "Total lock insertions by result",
			},
			[]string{"result"},
		),
		QueryTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "locktrack_query_total",
				Help: "Total queries by operation and result",
			},
			[]string{"op", "result"},
		),
		OpLatencyMS: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "locktrack_op_latency_ms",
				Help:    "Latency of registry operations (ms)",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1ms .. ~2048ms
			},
			[]string{"op"},
		),
		RecordsLoadedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "locktrack_records_loaded_total",
			Help: "Total bulk records applied to the registry",
		}),
		RecordsSkippedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "locktrack_records_skipped_total",
			Help: "Total bulk records skipped as malformed",
		}),
		ResourcesTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "locktrack_resources",
			Help: "Number of resources with a store",
		}),
		IntervalsTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "locktrack_intervals",
			Help: "Total intervals across all resources",
		}),
		CollisionPairs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "locktrack_collision_pairs",
			Help: "Adjacent overlapping pairs across all resources",
		}),
	}

	prometheus.MustRegister(
		m.AddTotal,
		m.QueryTotal,
		m.OpLatencyMS,
		m.RecordsLoadedTotal,
		m.RecordsSkippedTotal,
		m.ResourcesTracked,
		m.IntervalsTracked,
		m.CollisionPairs,
	)

	return m
}
