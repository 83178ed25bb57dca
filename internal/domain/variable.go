package domain

// varInfo holds the static (never-backtracked) metadata of a variable:
// its presence literal and human-readable label. Per spec §3, the
// presence relation forms a forest, so Presence is either TrueLiteral or a
// literal over another always-present variable.
type varInfo struct {
	presence Literal
	label    string
}

// Presence returns v's presence literal. A variable is optional precisely
// when Presence(v) is not TrueLiteral.
func (s *Store) Presence(v Variable) Literal {
	return s.vars[v].presence
}

// IsOptional reports whether v's existence is conditional.
func (s *Store) IsOptional(v Variable) bool {
	return s.vars[v].presence != TrueLiteral
}

// Label returns v's opaque, core-agnostic label.
func (s *Store) Label(v Variable) string {
	return s.vars[v].label
}

// PresenceStatus is the three-valued status of an optional variable.
type PresenceStatus uint8

const (
	Undetermined PresenceStatus = iota
	Present
	Absent
)

// PresenceStatusOf resolves v's presence literal against the current
// state.
func (s *Store) PresenceStatusOf(v Variable) PresenceStatus {
	p := s.vars[v].presence
	if s.Entails(p) {
		return Present
	}
	if s.Entails(p.Negation()) {
		return Absent
	}
	return Undetermined
}

// IsPresent / IsAbsent are convenience wrappers around PresenceStatusOf.
func (s *Store) IsPresent(v Variable) bool { return s.PresenceStatusOf(v) == Present }
func (s *Store) IsAbsent(v Variable) bool  { return s.PresenceStatusOf(v) == Absent }

// NewVariable declares a new variable with initial domain [lb, ub] and the
// given presence literal (TrueLiteral for an always-present variable). It
// returns the variable's handle. Mirrors the teacher's AddVariable, which
// grows one dense array per field (internal/sat/solver.go).
func (s *Store) NewVariable(lb, ub int32, presence Literal, label string) Variable {
	v := Variable(len(s.vars))
	s.vars = append(s.vars, varInfo{presence: presence, label: label})
	s.seen.expand()

	// ub(v) is tracked directly on the positive view, lb(v) is tracked as
	// -lb(v) on the negative view, so that both are "smaller is tighter"
	// on their respective signed variable.
	s.levelOf = append(s.levelOf, -1, -1)
	s.reasonOf = append(s.reasonOf, Cause{}, Cause{})
	s.curBound = append(s.curBound, ub, -lb)

	return v
}

// NewBoolVariable declares a Boolean variable: domain {0, 1}.
func (s *Store) NewBoolVariable(presence Literal, label string) Variable {
	return s.NewVariable(0, 1, presence, label)
}
