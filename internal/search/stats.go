package search

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ema is an exponential moving average, kept verbatim from the teacher's
// sat.EMA (rhartert/yass, sat/avg.go), used by Stats to smooth the LBD of
// learned clauses, which Collector reports; no search heuristic reads it.
type ema struct {
	decay float64
	value float64
	init  bool
}

func newEMA(decay float64) ema { return ema{decay: decay} }

func (e *ema) add(x float64) {
	if !e.init {
		e.init = true
		e.value = x
		return
	}
	e.value = e.decay*e.value + x*(1-e.decay)
}

func (e *ema) val() float64 { return e.value }

// Stats accumulates the search counters the teacher's Solver exposes as
// plain exported fields (TotalConflicts, TotalRestarts, TotalIterations,
// internal/sat/solver.go), plus a Prometheus collector so a long-running
// solve can be scraped the way the REDESIGN FLAGS section calls for.
type Stats struct {
	Iterations int64
	Conflicts  int64
	Restarts   int64
	Backtracks int64
	Decisions  int64
	Learnts    int64

	lbdEMA ema
	start  time.Time
}

// NewStats starts a fresh statistics block; StartTime is recorded lazily on
// the first call to Start.
func NewStats() *Stats {
	return &Stats{lbdEMA: newEMA(0.95)}
}

func (s *Stats) Start() { s.start = time.Now() }

func (s *Stats) Elapsed() time.Duration { return time.Since(s.start) }

func (s *Stats) RecordLearnt(lbd uint32) {
	s.Learnts++
	s.lbdEMA.add(float64(lbd))
}

func (s *Stats) AverageLBD() float64 { return s.lbdEMA.val() }

// Collector exposes solver progress as Prometheus gauges/counters, grounded
// on the rest of the example pack's use of prometheus/client_golang (the
// OLM resolver's dependency tree) rather than the teacher's stdout
// printSearchStats, per SPEC_FULL.md's ambient observability stack.
type Collector struct {
	conflicts  prometheus.Counter
	restarts   prometheus.Counter
	decisions  prometheus.Counter
	learnts    prometheus.Gauge
	avgLBD     prometheus.Gauge
	searchTime prometheus.Histogram
}

// NewCollector builds and registers a Collector against reg. Passing a
// nil registry disables registration but still returns a usable Collector,
// so callers that do not run a metrics server can skip it without special
// casing.
func NewCollector(reg prometheus.Registerer, label string) *Collector {
	c := &Collector{
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "cds_search_conflicts_total",
			Help:        "Total number of conflicts encountered during search.",
			ConstLabels: prometheus.Labels{"solver": label},
		}),
		restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "cds_search_restarts_total",
			Help:        "Total number of restarts performed during search.",
			ConstLabels: prometheus.Labels{"solver": label},
		}),
		decisions: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "cds_search_decisions_total",
			Help:        "Total number of branching decisions made during search.",
			ConstLabels: prometheus.Labels{"solver": label},
		}),
		learnts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "cds_search_learnt_clauses",
			Help:        "Current number of learned clauses retained.",
			ConstLabels: prometheus.Labels{"solver": label},
		}),
		avgLBD: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "cds_search_avg_lbd",
			Help:        "Exponential moving average of learned clause LBD.",
			ConstLabels: prometheus.Labels{"solver": label},
		}),
		searchTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "cds_search_duration_seconds",
			Help:        "Wall-clock duration of completed Solve calls.",
			ConstLabels: prometheus.Labels{"solver": label},
			Buckets:     prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(c.conflicts, c.restarts, c.decisions, c.learnts, c.avgLBD, c.searchTime)
	}
	return c
}

func (c *Collector) Sync(s *Stats) {
	if c == nil {
		return
	}
	c.learnts.Set(float64(s.Learnts))
	c.avgLBD.Set(s.AverageLBD())
}

func (c *Collector) ObserveConflict() {
	if c != nil {
		c.conflicts.Inc()
	}
}

func (c *Collector) ObserveRestart() {
	if c != nil {
		c.restarts.Inc()
	}
}

func (c *Collector) ObserveDecision() {
	if c != nil {
		c.decisions.Inc()
	}
}

func (c *Collector) ObserveSolveTime(d time.Duration) {
	if c != nil {
		c.searchTime.Observe(d.Seconds())
	}
}
