package search

import (
	"github.com/coreplan/cds/internal/domain"
)

// Propagator is a theory that tightens bounds in the domain store and, when
// it finds the current state inconsistent, returns an explanation: a set of
// literals that are jointly unsatisfiable. Both internal/clauses.Database
// and internal/stn.Theory implement this, generalising the teacher's single
// hardwired Solver.Propagate (internal/sat/solver.go) into the "reasoners
// register with a shared store" architecture of spec §4 and §9.
type Propagator interface {
	// Propagate runs the theory to a fixed point given whatever new trail
	// events were pushed since the last call (each Propagator holds the
	// domain.Store it was constructed with). conflict is non-nil iff the
	// theory detected an inconsistency; its literals are already in the
	// "jointly inconsistent" convention Store.Refine1UIP expects.
	Propagate() (conflict []domain.Literal)

	// OnBacktrack is invoked after the store has already been restored to
	// level, giving the theory a chance to reset any cursor it keeps apart
	// from the store's own trail (e.g. the clause database's watch cursor,
	// or the STN theory's incremental distance cache).
	OnBacktrack(level int)
}

// Driver runs the propagate / decide / conflict loop of spec §5: every
// registered Propagator runs to a fixed point, ties are broken by
// round-robin, and a conflict on a clause- or theory-raised explanation
// both flow through the same Store.Refine1UIP call. This generalises the
// teacher's Solver.Search (internal/sat/solver.go) from one hardwired
// clause-propagation engine to an arbitrary list of cooperating theories.
type Driver struct {
	store       *domain.Store
	theories    []Propagator
	brancher    Brancher
	restarts    RestartPolicy
	stop        *StopCondition
	stats       *Stats
	collector   *Collector
	reduceEvery int

	onSolution  func() bool          // returns true to keep searching for a better solution
	onLearn     func(lits []domain.Literal) // called after every clause recordLearned stores
	onQuiescent func()               // called whenever the driver is back at decision level 0
}

// Option configures a Driver, following the teacher's functional-options-
// free style (Options struct) generalised to the rest of the pack's
// functional-option idiom (lvlath/dijkstra, OLM resolver) since Driver has
// many independently-optional knobs.
type Option func(*Driver)

func WithRestartPolicy(p RestartPolicy) Option { return func(d *Driver) { d.restarts = p } }
func WithStopCondition(sc *StopCondition) Option { return func(d *Driver) { d.stop = sc } }
func WithCollector(c *Collector) Option          { return func(d *Driver) { d.collector = c } }
func WithReduceEvery(n int) Option               { return func(d *Driver) { d.reduceEvery = n } }
func WithSolutionCallback(f func() bool) Option  { return func(d *Driver) { d.onSolution = f } }

// WithLearnCallback registers f to be called with every clause learned
// from conflict analysis, the hook the portfolio package uses to
// broadcast short clauses to sibling workers (spec §4.6).
func WithLearnCallback(f func(lits []domain.Literal)) Option {
	return func(d *Driver) { d.onLearn = f }
}

// WithQuiescentCallback registers f to be called every time the driver
// returns to decision level 0 with nothing left to propagate — the only
// point at which it is safe to splice in externally-learned clauses,
// which is what the portfolio package uses this for (spec §4.6: "merged
// ... at the next quiescent point").
func WithQuiescentCallback(f func()) Option {
	return func(d *Driver) { d.onQuiescent = f }
}

// NewDriver builds a search driver over store, propagated by theories and
// branching with brancher.
func NewDriver(store *domain.Store, brancher Brancher, theories []Propagator, opts ...Option) *Driver {
	d := &Driver{
		store:       store,
		theories:    theories,
		brancher:    brancher,
		restarts:    NewGeometricRestart(100, 1.1),
		stop:        NewStopCondition(nil, 0),
		stats:       NewStats(),
		reduceEvery: 2000,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Status is the outcome of a Solve call.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusSat
	StatusUnsat
)

// propagateAll runs every theory to a fixed point, re-visiting theories
// whenever an earlier one in the round made progress, since a later
// theory's propagation can unlock more work for an earlier one (e.g. the
// clause database asserting a literal that lets the STN theory tighten
// further). Returns the first conflict encountered, if any.
func (d *Driver) propagateAll() []domain.Literal {
	for {
		progressed := false
		trailBefore := len(d.store.Trail())
		for _, th := range d.theories {
			if conflict := th.Propagate(); conflict != nil {
				return conflict
			}
		}
		if len(d.store.Trail()) != trailBefore {
			progressed = true
		}
		if !progressed {
			return nil
		}
	}
}

func (d *Driver) backtrackTo(level int) {
	d.store.Restore(level)
	for _, th := range d.theories {
		th.OnBacktrack(level)
	}
}

// Solve runs search to completion (sat, unsat, or the stop condition
// firing), mirroring the teacher's Solve/Search split: Search handles one
// restart episode, Solve loops it under a growing budget.
func (d *Driver) Solve() Status {
	d.stats.Start()
	conflictsSinceRestart := 0
	var totalConflicts int64

	for {
		if d.stop.ShouldStop(totalConflicts) {
			d.collector.ObserveSolveTime(d.stats.Elapsed())
			return StatusUnknown
		}

		conflict := d.propagateAll()
		if conflict != nil {
			d.stats.Conflicts++
			totalConflicts++
			d.collector.ObserveConflict()

			if d.store.DecisionLevel() == 0 {
				d.collector.ObserveSolveTime(d.stats.Elapsed())
				return StatusUnsat
			}

			learned, backtrackLevel := d.store.Refine1UIP(conflict)
			// LBD: distinct decision levels among the learned clause's
			// (currently false) literals, read before backtracking.
			lbdLevels := map[int]bool{}
			for _, lit := range learned {
				lbdLevels[d.store.Level(lit.SignedVar().Opposite())] = true
			}
			d.backtrackTo(backtrackLevel)

			for _, lit := range learned {
				d.brancher.Bump(lit.SignedVar().Variable())
			}
			d.brancher.Decay()
			d.recordLearned(learned)
			if d.onLearn != nil {
				d.onLearn(learned)
			}
			d.stats.RecordLearnt(uint32(len(lbdLevels)))
			d.decayActivities()

			conflictsSinceRestart++
			if d.restarts.ShouldRestart(conflictsSinceRestart) {
				d.stats.Restarts++
				d.collector.ObserveRestart()
				conflictsSinceRestart = 0
				d.backtrackTo(0)
			}
			if d.reduceEvery > 0 && totalConflicts%int64(d.reduceEvery) == 0 {
				d.reduceClauseDBs()
			}
			d.collector.Sync(d.stats)
			continue
		}

		if d.store.DecisionLevel() == 0 {
			d.simplifyClauseDBs()
			if d.onQuiescent != nil {
				d.onQuiescent()
			}
		}

		lit, ok := d.brancher.NextDecision(d.store)
		if !ok {
			// Every variable fixed: a solution.
			d.stats.Start() // reset for the next incremental Solve call
			keepGoing := false
			if d.onSolution != nil {
				keepGoing = d.onSolution()
			}
			if !keepGoing {
				d.collector.ObserveSolveTime(d.stats.Elapsed())
				return StatusSat
			}
			d.backtrackTo(0)
			continue
		}

		d.collector.ObserveDecision()
		d.stats.Decisions++
		if d.store.Decide(lit) == domain.Conflict {
			// The decision itself emptied a domain (can happen with
			// optional variables redirecting presence); treat it as an
			// immediate conflict on the next iteration via propagateAll's
			// invariant that Decide never leaves the store inconsistent
			// without a trail entry to explain it.
			continue
		}
	}
}

// recordLearned hands the asserting clause to whichever theory knows how
// to store clauses. Only internal/clauses.Database currently implements
// ClauseRecorder; theories that do not (e.g. the STN theory) are skipped.
func (d *Driver) recordLearned(learned []domain.Literal) {
	for _, th := range d.theories {
		if r, ok := th.(ClauseRecorder); ok {
			r.Record(learned)
			return
		}
	}
}

// ClauseRecorder is implemented by the one theory responsible for storing
// asserting clauses produced by conflict analysis (internal/clauses.Database).
type ClauseRecorder interface {
	Record(lits []domain.Literal)
}

// activityDecayer is implemented by internal/clauses.Database's
// Decay method; decaying clause activity every conflict mirrors the
// teacher's Search loop calling DecayClaActivity alongside DecayVarActivity.
type activityDecayer interface {
	Decay()
}

func (d *Driver) decayActivities() {
	for _, th := range d.theories {
		if dc, ok := th.(activityDecayer); ok {
			dc.Decay()
		}
	}
}

// clauseDB is implemented by internal/clauses.Database: the periodic
// maintenance the teacher's Search loop performs inline (ReduceDB once
// learnts outgrow a budget, Simplify whenever back at the root level).
type clauseDB interface {
	ReduceDB()
	Simplify()
}

func (d *Driver) reduceClauseDBs() {
	for _, th := range d.theories {
		if db, ok := th.(clauseDB); ok {
			db.ReduceDB()
		}
	}
}

func (d *Driver) simplifyClauseDBs() {
	for _, th := range d.theories {
		if db, ok := th.(clauseDB); ok {
			db.Simplify()
		}
	}
}
