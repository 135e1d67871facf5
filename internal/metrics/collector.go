package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/deskwatch/axcore/ax"
	"github.com/deskwatch/axcore/observer"
	"github.com/deskwatch/axcore/runloop"
	"github.com/deskwatch/axcore/walker"
)

// =============================================================================
// Snapshot-backed collectors
// =============================================================================

// Sources holds the snapshot functions the collectors read at scrape time.
// A nil source skips its metric group; the event bridge and walker groups
// are process-wide and always included.
type Sources struct {
	Loop   func() runloop.Stats
	System func() ax.Stats
}

// Collector exposes axcore counters as Prometheus metrics. It implements
// prometheus.Collector; register it once per registry.
type Collector struct {
	logger     *zap.Logger
	collectors []prometheus.Collector
}

// NewCollector builds the metric set under namespace.
func NewCollector(namespace string, src Sources, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{logger: logger.With(zap.String("component", "metrics"))}

	counter := func(name, help string, fn func() float64) {
		c.collectors = append(c.collectors, prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, fn))
	}
	gauge := func(name, help string, fn func() float64) {
		c.collectors = append(c.collectors, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, fn))
	}

	if loop := src.Loop; loop != nil {
		counter("loop_jobs_performed_total", "Jobs completed by the run loop.",
			func() float64 { return float64(loop().Performed) })
		counter("loop_jobs_scheduled_total", "Fire-and-forget jobs accepted by the run loop.",
			func() float64 { return float64(loop().Scheduled) })
		counter("loop_job_panics_total", "Jobs that panicked on the run loop.",
			func() float64 { return float64(loop().Panicked) })
		counter("loop_busy_seconds_total", "Cumulative time the run loop spent inside jobs.",
			func() float64 { return loop().Busy.Seconds() })
		gauge("loop_queue_depth", "Jobs currently waiting for the run loop.",
			func() float64 { return float64(loop().QueueDepth) })
	}

	if sys := src.System; sys != nil {
		counter("element_reads_total", "Attribute reads that returned a value.",
			func() float64 { return float64(sys().Reads) })
		counter("element_absences_total", "Attribute reads that resolved to absence.",
			func() float64 { return float64(sys().Absences) })
		counter("element_boundary_errors_total", "Attribute reads that failed on an expected boundary.",
			func() float64 { return float64(sys().BoundaryErrors) })
		counter("element_defects_total", "Unrecognized native statuses.",
			func() float64 { return float64(sys().Defects) })
		counter("element_undecodable_total", "Native values outside the supported value set.",
			func() float64 { return float64(sys().Undecodable) })
		counter("element_truncations_total", "Reads refused by a size ceiling.",
			func() float64 { return float64(sys().Truncations) })
	}

	counter("observer_events_delivered_total", "Events delivered to observer buffers.",
		func() float64 { return float64(observer.GlobalStats().Delivered) })
	counter("observer_events_dropped_total", "Events dropped on full observer buffers.",
		func() float64 { return float64(observer.GlobalStats().Dropped) })
	counter("observer_events_missed_total", "Events whose observer was already torn down.",
		func() float64 { return float64(observer.GlobalStats().Missed) })
	gauge("observers_active", "Observers currently registered.",
		func() float64 { return float64(observer.GlobalStats().ActiveObservers) })

	counter("walks_total", "Traversals started.",
		func() float64 { return float64(walker.GlobalStats().Walks) })
	counter("walk_frames_total", "Frames yielded across all traversals.",
		func() float64 { return float64(walker.GlobalStats().Frames) })
	counter("walks_truncated_total", "Traversals ended by their visit budget.",
		func() float64 { return float64(walker.GlobalStats().Truncated) })

	return c
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, col := range c.collectors {
		col.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, col := range c.collectors {
		col.Collect(ch)
	}
}

// Register registers the collector on reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	if err := reg.Register(c); err != nil {
		return err
	}
	c.logger.Debug("metrics registered", zap.Int("metrics", len(c.collectors)))
	return nil
}

// Unregister removes the collector from reg.
func (c *Collector) Unregister(reg prometheus.Registerer) {
	reg.Unregister(c)
}
