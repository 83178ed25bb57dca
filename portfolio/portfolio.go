// Package portfolio implements spec §4.6: independent search workers over
// clones of the same domain store, sharing short learned clauses, with the
// first worker to find a solution cancelling the rest. Solutions and
// solution bounds are not shared between workers.
//
// Grounded on gitrdm-gokando's internal/parallel.WorkerPool
// (internal/parallel/pool.go) for the "fixed set of goroutines draining a
// task channel under a cancellable context" shape, but simplified from
// that package's dynamically-scaling pool to spec §4.6's fixed worker
// count — a portfolio has exactly as many workers as the caller asks for,
// decided once at Run time, never scaled at runtime. Supervision uses
// golang.org/x/sync/errgroup (as the OLM resolver's dependency closure
// pulls in for its own worker supervision) instead of gokando's hand
// rolled sync.WaitGroup + shutdown channel, since errgroup's
// context-cancels-on-first-error behaviour is exactly spec's "first
// finisher signals cancellation to the others" rule.
package portfolio

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/coreplan/cds/internal/clauses"
	"github.com/coreplan/cds/internal/domain"
	"github.com/coreplan/cds/internal/search"
)

// sharedClauseThreshold is the default maximum length (in literals) of a
// learned clause eligible for cross-worker sharing (spec §4.6: "learned
// clauses shorter than a threshold, default 6 literals").
const sharedClauseThreshold = 6

// Result is the outcome of a single portfolio worker.
type Result struct {
	WorkerID int
	Status   search.Status
	Store    *domain.Store // the winning worker's store, for solution extraction
}

// Config configures a portfolio run.
type Config struct {
	// Workers is the number of independent search workers to run. Defaults
	// to 1 if not positive.
	Workers int
	// NewBrancher builds a fresh brancher for worker id, seeded
	// independently (spec §4.6: "independent random seeds per worker").
	NewBrancher func(workerID int, seed int64, store *domain.Store) search.Brancher
	// Seed is the base seed; each worker derives its own from it plus its
	// id, so reruns with the same Seed are reproducible.
	Seed int64
	// ShareThreshold overrides sharedClauseThreshold when positive.
	ShareThreshold int
	// Logger receives portfolio-level progress events. Defaults to
	// logrus.StandardLogger() if nil, matching the ambient logging the
	// rest of this module uses.
	Logger *logrus.Logger
}

// sharedClause is a learned clause broadcast from one worker to its
// siblings, re-registered as a regular (non-learnt, since its origin
// worker's activity bookkeeping does not carry over) constraint at the
// next quiescent point — spec §4.6: "merged as regular learned clauses at
// the next quiescent point".
type sharedClause struct {
	workerID int
	lits     []domain.Literal
}

// worker bundles one independent copy of the problem: its own store clone,
// its own theories, its own driver.
type worker struct {
	id      int
	store   *domain.Store
	clauses *clauses.Database
	driver  *search.Driver
	inbox   chan sharedClause
}

// Run builds cfg.Workers independent workers cloning base, runs them
// concurrently, and returns as soon as one reaches StatusSat or every
// worker reaches StatusUnsat — whichever comes first cancels the rest,
// per spec §4.6's "first finisher signals cancellation" rule. base must
// already have every constraint registered; Run only clones its dynamic
// state (domain.Store.Clone) and re-synthesises each worker's theories
// from theoriesOf.
func Run(ctx context.Context, base *domain.Store, theoriesOf func(s *domain.Store) (*clauses.Database, []search.Propagator), cfg Config) (Result, error) {
	n := cfg.Workers
	if n <= 0 {
		n = 1
	}
	threshold := cfg.ShareThreshold
	if threshold <= 0 {
		threshold = sharedClauseThreshold
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := make([]*worker, n)
	broadcast := make(chan sharedClause, n*16)

	for i := 0; i < n; i++ {
		store := base.Clone()
		db, theories := theoriesOf(store)
		w := &worker{id: i, store: store, clauses: db, inbox: make(chan sharedClause, 64)}
		workers[i] = w

		seed := cfg.Seed + int64(i)*2654435761
		var brancher search.Brancher
		if cfg.NewBrancher != nil {
			brancher = cfg.NewBrancher(i, seed, store)
		} else {
			brancher = search.NewActivityBrancher(store.NumVariables(), 0.95)
		}

		w.driver = search.NewDriver(store, brancher, theories,
			search.WithStopCondition(search.NewStopCondition(ctx, 0)),
			search.WithLearnCallback(func(lits []domain.Literal) {
				if len(lits) > threshold {
					return
				}
				cp := append([]domain.Literal(nil), lits...)
				select {
				case broadcast <- sharedClause{workerID: w.id, lits: cp}:
				default: // broadcast saturated: drop rather than stall the learner
				}
			}),
			search.WithQuiescentCallback(func() { drainShared(w, threshold) }),
		)
	}

	// fan-out goroutine: broadcast re-delivers every accepted shared
	// clause to every worker's inbox except its origin, so no worker ever
	// re-learns its own clause as if it were new information (spec §4.6:
	// "no clause is shared that depends on literals private to a worker's
	// encoding" is the caller's responsibility when constructing theoriesOf
	// with a shared literal namespace; this loop only handles delivery).
	fanoutDone := make(chan struct{})
	go func() {
		defer close(fanoutDone)
		for {
			select {
			case <-ctx.Done():
				return
			case sc, ok := <-broadcast:
				if !ok {
					return
				}
				for _, w := range workers {
					if w.id == sc.workerID {
						continue
					}
					select {
					case w.inbox <- sc:
					default: // inbox full: drop rather than block the broadcaster
					}
				}
			}
		}
	}()

	resultCh := make(chan Result, n)
	g, _ := errgroup.WithContext(ctx)

	for _, w := range workers {
		w := w
		g.Go(func() error {
			status := w.driver.Solve()
			select {
			case resultCh <- Result{WorkerID: w.id, Status: status, Store: w.store}:
			case <-ctx.Done():
			}
			if status == search.StatusSat {
				logger.WithField("worker", w.id).Info("portfolio worker found a solution, cancelling siblings")
				cancel()
			}
			return nil
		})
	}

	go func() {
		g.Wait()
		close(broadcast)
		close(resultCh)
	}()

	var (
		best     Result
		sawSat   bool
		unsatAll = true
	)
	for r := range resultCh {
		if r.Status == search.StatusSat {
			best = r
			sawSat = true
			break
		}
		if r.Status != search.StatusUnsat {
			unsatAll = false
		}
	}
	cancel()
	<-fanoutDone

	if sawSat {
		return best, nil
	}
	if unsatAll {
		return Result{Status: search.StatusUnsat}, nil
	}
	if err := ctx.Err(); err != nil {
		return Result{Status: search.StatusUnknown}, errors.Wrap(err, "portfolio: search cancelled before any worker finished")
	}
	return Result{Status: search.StatusUnknown}, nil
}

// drainShared pulls every clause currently queued in w's inbox and hands
// it to w's clause database. Called from the driver's quiescent-point
// callback, the only moment a worker is guaranteed to be at decision
// level 0 and so safe to splice a brand new constraint into (spec §4.6:
// "merged as regular learned clauses at the next quiescent point").
func drainShared(w *worker, threshold int) {
	for {
		select {
		case sc := <-w.inbox:
			if len(sc.lits) <= threshold {
				w.clauses.AddClause(sc.lits)
			}
		default:
			return
		}
	}
}
