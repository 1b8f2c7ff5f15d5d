package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sarchlab/cdctrg/hooking"
	"github.com/sarchlab/cdctrg/trgcdc"
)

const (
	metricsNamespace = "cdctrg"
	metricsSubsystem = "frontend"
)

// Metrics is a hook that counts what the pipeline produces.
type Metrics struct {
	events       prometheus.Counter
	wireHits     prometheus.Counter
	segmentHits  prometheus.Counter
	boardStates  *prometheus.CounterVec
	hitsPerEvent prometheus.Histogram
}

// NewMetrics creates the metrics and registers them.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "events_total",
			Help:      "Number of processed events",
		}),
		wireHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "wire_hits_total",
			Help:      "Number of classified wire hits",
		}),
		segmentHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "segment_hits_total",
			Help:      "Number of segment hits",
		}),
		boardStates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "board_states_total",
				Help:      "Number of packed board states by board type",
			},
			[]string{"board_type"},
		),
		hitsPerEvent: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "hits_per_event",
			Help:      "Wire hits per event",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}

	reg.MustRegister(
		m.events,
		m.wireHits,
		m.segmentHits,
		m.boardStates,
		m.hitsPerEvent,
	)

	return m
}

// Func updates the metrics.
func (m *Metrics) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case trgcdc.HookPosWireHit:
		m.wireHits.Inc()
	case trgcdc.HookPosSegmentHit:
		m.segmentHits.Inc()
	case trgcdc.HookPosBoardPacked:
		out := ctx.Item.(trgcdc.BoardOutput)
		m.boardStates.WithLabelValues(out.Board.Type().String()).Inc()
	case trgcdc.HookPosEventEnd:
		res := ctx.Item.(*trgcdc.Result)
		m.events.Inc()
		m.hitsPerEvent.Observe(float64(len(res.Hits)))
	}
}
