package search

import (
	"context"
	"time"
)

// StopCondition mirrors the teacher's Options{MaxConflicts, Timeout} +
// Solver.shouldStop (internal/sat/solver.go), but per the REDESIGN FLAGS
// section cancellation is now driven by a context.Context instead of a
// pair of ad-hoc fields, so a caller can cancel from another goroutine
// (e.g. the portfolio package stopping every worker once one finds a
// proof) instead of only on a conflict/time budget.
type StopCondition struct {
	ctx          context.Context
	maxConflicts int64
	deadline     time.Time
	hasDeadline  bool
}

// NewStopCondition builds a stop condition from a context plus an optional
// conflict budget (0 disables it).
func NewStopCondition(ctx context.Context, maxConflicts int64) *StopCondition {
	if ctx == nil {
		ctx = context.Background()
	}
	sc := &StopCondition{ctx: ctx, maxConflicts: maxConflicts}
	if d, ok := ctx.Deadline(); ok {
		sc.deadline, sc.hasDeadline = d, true
	}
	return sc
}

// ShouldStop is polled once per search iteration.
func (sc *StopCondition) ShouldStop(conflicts int64) bool {
	select {
	case <-sc.ctx.Done():
		return true
	default:
	}
	if sc.maxConflicts > 0 && conflicts >= sc.maxConflicts {
		return true
	}
	if sc.hasDeadline && !time.Now().Before(sc.deadline) {
		return true
	}
	return false
}

// Err returns the context's cancellation cause, if that is why the search
// stopped.
func (sc *StopCondition) Err() error { return sc.ctx.Err() }
