package domain

import "fmt"

// Event is a trail entry: a literal that strictly tightened a bound, the
// cause that produced it, and everything needed to undo it exactly -
// not just the previous bound, but the level/cause that were in effect
// for the same signed variable immediately before this tightening, since
// a signed variable can be tightened at several decision levels before a
// backtrack lands between them. Mirrors the teacher's trail []Literal +
// reason []*Clause + level []int, unified into one append-only slice per
// the "trail with per-level indexing" idiom (spec §9).
type Event struct {
	Lit       Literal
	Cause     Cause
	PrevBound int32
	PrevLevel int
	PrevCause Cause
}

// Store is the domain store: the single source of truth for the current
// partial assignment (spec §4.1).
type Store struct {
	vars []varInfo

	// curBound[s] is the current tightened bound of signed variable s.
	curBound []int32
	// levelOf[s] is the decision level at which curBound[s] was last
	// tightened, or -1 if untightened since initialization.
	levelOf []int
	// reasonOf[s] is the cause of the last tightening of s.
	reasonOf []Cause

	trail    []Event
	trailLim []int // trail length at each save point

	seen seenSet

	writers    []Explainer
	nextWriter WriterID

	// conflict holds the signed variable whose domain went empty on the
	// most recent failing Set/Decide call, for callers that want it.
	conflict SignedVar
}

// NewStore returns a domain store already containing the reserved zero
// variable (domain {0}, always present).
func NewStore() *Store {
	s := &Store{nextWriter: firstUserWriter}
	zero := s.NewVariable(0, 0, TrueLiteral, "zero")
	if zero != ZeroVar {
		panic("domain: zero variable must be the first declared")
	}
	return s
}

// RegisterWriter assigns a fresh WriterID to a reasoner and records its
// Explainer for later explanation requests.
func (s *Store) RegisterWriter(e Explainer) WriterID {
	id := s.nextWriter
	s.nextWriter++
	for WriterID(len(s.writers)) <= id {
		s.writers = append(s.writers, nil)
	}
	s.writers[id] = e
	return id
}

// LB / UB return the current lower/upper bound of v.
func (s *Store) LB(v Variable) int32 { return -s.curBound[NegView(v)] }
func (s *Store) UB(v Variable) int32 { return s.curBound[PosView(v)] }

// BoundOf returns the current bound tracked by a signed variable.
func (s *Store) BoundOf(sv SignedVar) int32 { return s.curBound[sv] }

// Entails reports whether the current state entails lit: the tracked bound
// of lit's signed variable is already at least as tight.
func (s *Store) Entails(lit Literal) bool {
	return s.curBound[lit.SignedVar()] <= lit.Bound()
}

// Level returns the decision level at which sv's current bound was set, or
// -1 if it has never been tightened.
func (s *Store) Level(sv SignedVar) int { return s.levelOf[sv] }

// Reason returns the cause of sv's current bound.
func (s *Store) Reason(sv SignedVar) Cause { return s.reasonOf[sv] }

// DecisionLevel returns the number of save points below the current state,
// i.e. the number of decisions currently in effect (spec invariant: equals
// the number of saved states since initialisation).
func (s *Store) DecisionLevel() int { return len(s.trailLim) }

// Trail returns the full event trail (read-only use by conflict analysis).
func (s *Store) Trail() []Event { return s.trail }

// Result is the outcome of a bound-tightening attempt.
type Result uint8

const (
	// Tightened: the bound changed strictly.
	Tightened Result = iota
	// NoOp: lit was already entailed; nothing changed.
	NoOp
	// Conflict: lit is refuted by the current state.
	Conflict
)

// ConflictVar returns the signed variable whose domain emptied on the last
// Result == Conflict outcome.
func (s *Store) ConflictVar() SignedVar { return s.conflict }

// Decide opens a new decision level and asserts lit as a decision. It
// fails (returns Conflict) if lit is already refuted.
func (s *Store) Decide(lit Literal) Result {
	s.trailLim = append(s.trailLim, len(s.trail))
	return s.Set(lit, DecisionCause)
}

// Set tightens the bound named by lit, recording cause. See spec §4.1 for
// the full three-way optional-variable semantics implemented here.
func (s *Store) Set(lit Literal, cause Cause) Result {
	sv := lit.SignedVar()
	cur := s.curBound[sv]

	if lit.Bound() >= cur {
		return NoOp // already at least as tight
	}

	// Would this tightening empty v's domain?
	if s.wouldEmptyDomain(sv, lit.Bound()) {
		v := sv.Variable()
		switch s.PresenceStatusOf(v) {
		case Present:
			s.conflict = sv
			return Conflict
		case Absent:
			return NoOp // vacuously true: the variable does not exist
		default:
			// Undetermined: redirect into forcing presence to false,
			// using the same cause, and treat the literal itself as a
			// no-op (spec §4.1 optional-handling rule 3).
			absent := s.Presence(v).Negation()
			if s.Set(absent, cause) == Conflict {
				s.conflict = sv
				return Conflict
			}
			return NoOp
		}
	}

	s.pushEvent(sv, lit, cause)
	return Tightened
}

// wouldEmptyDomain reports whether tightening sv's bound to newBound would
// make lb(v) > ub(v).
func (s *Store) wouldEmptyDomain(sv SignedVar, newBound int32) bool {
	v := sv.Variable()
	if sv.IsPos() {
		return newBound < s.LB(v)
	}
	// sv is the negative view: newBound is the new value of -lb(v).
	return -newBound > s.UB(v)
}

func (s *Store) pushEvent(sv SignedVar, lit Literal, cause Cause) {
	prevBound := s.curBound[sv]
	prevLevel := s.levelOf[sv]
	prevCause := s.reasonOf[sv]
	s.curBound[sv] = lit.Bound()
	s.levelOf[sv] = s.DecisionLevel()
	s.reasonOf[sv] = cause
	s.trail = append(s.trail, Event{
		Lit:       lit,
		Cause:     cause,
		PrevBound: prevBound,
		PrevLevel: prevLevel,
		PrevCause: prevCause,
	})
}

// SaveState pushes a backtrack point and returns the new level.
func (s *Store) SaveState() int {
	s.trailLim = append(s.trailLim, len(s.trail))
	return s.DecisionLevel()
}

// Restore undoes all events above level in strict reverse order, restoring
// each signed variable's level and cause to whatever was in effect just
// before the event being undone - not to "never tightened" - since an
// earlier, surviving tightening of the same signed variable at a lower
// level is still in effect once this one is undone.
func (s *Store) Restore(level int) {
	if level >= s.DecisionLevel() {
		return
	}
	cut := s.trailLim[level]
	for i := len(s.trail) - 1; i >= cut; i-- {
		ev := s.trail[i]
		sv := ev.Lit.SignedVar()
		s.curBound[sv] = ev.PrevBound
		s.levelOf[sv] = ev.PrevLevel
		s.reasonOf[sv] = ev.PrevCause
	}
	s.trail = s.trail[:cut]
	s.trailLim = s.trailLim[:level]
}

// Explain dispatches to the writer that produced payload, asking it to
// append to out the literals sufficient to imply lit (or, for a conflict
// explanation, the literals that are jointly inconsistent).
func (s *Store) Explain(cause Cause, lit Literal, out []Literal) []Literal {
	if int(cause.Writer) >= len(s.writers) || s.writers[cause.Writer] == nil {
		panic(fmt.Sprintf("domain: no explainer registered for writer %d", cause.Writer))
	}
	return s.writers[cause.Writer].Explain(cause.Payload, lit, out)
}

// NumVariables returns the number of declared variables, including the
// reserved zero variable.
func (s *Store) NumVariables() int { return len(s.vars) }

// Clone returns a deep copy of the store's dynamic state, used by the
// portfolio package to give each worker an independent domain store over
// the same immutable variable set (spec §4.6/§5: "immutable problem
// encoding, cloned per worker at construction time").
func (s *Store) Clone() *Store {
	c := &Store{
		vars:       append([]varInfo(nil), s.vars...),
		curBound:   append([]int32(nil), s.curBound...),
		levelOf:    append([]int(nil), s.levelOf...),
		reasonOf:   append([]Cause(nil), s.reasonOf...),
		trail:      append([]Event(nil), s.trail...),
		trailLim:   append([]int(nil), s.trailLim...),
		writers:    append([]Explainer(nil), s.writers...),
		nextWriter: s.nextWriter,
	}
	c.seen.addedAt = append([]uint16(nil), s.seen.addedAt...)
	c.seen.currentAt = s.seen.currentAt
	return c
}
