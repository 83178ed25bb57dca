package domain

import "testing"

func TestStore_SetTightensAndEntails(t *testing.T) {
	s := NewStore()
	v := s.NewVariable(0, 10, TrueLiteral, "x")

	lit := NewLiteral(PosView(v), 5)
	if got := s.Set(lit, EncodingCause); got != Tightened {
		t.Fatalf("Set(): want Tightened, got %v", got)
	}
	if !s.Entails(lit) {
		t.Errorf("Entails(): want true after Set")
	}
	if s.UB(v) != 5 {
		t.Errorf("UB(): want 5, got %d", s.UB(v))
	}

	if got := s.Set(NewLiteral(PosView(v), 8), EncodingCause); got != NoOp {
		t.Errorf("Set(): loosening the bound should be a NoOp, got %v", got)
	}
}

func TestStore_SetEmptiesDomainConflict(t *testing.T) {
	s := NewStore()
	v := s.NewVariable(0, 10, TrueLiteral, "x")

	s.Set(NewLiteral(NegView(v), -5), EncodingCause) // lb(x) >= 5
	got := s.Set(NewLiteral(PosView(v), 3), EncodingCause)
	if got != Conflict {
		t.Fatalf("Set(): want Conflict, got %v", got)
	}
	if s.ConflictVar().Variable() != v {
		t.Errorf("ConflictVar(): want %d, got %d", v, s.ConflictVar().Variable())
	}
}

func TestStore_DecideAndRestore(t *testing.T) {
	s := NewStore()
	v := s.NewVariable(0, 1, TrueLiteral, "b")

	s.Decide(NewLiteral(PosView(v), 0)) // ub(b) <= 0
	if s.DecisionLevel() != 1 {
		t.Fatalf("DecisionLevel(): want 1, got %d", s.DecisionLevel())
	}
	if s.UB(v) != 0 {
		t.Fatalf("UB(): want 0, got %d", s.UB(v))
	}

	s.Restore(0)
	if s.DecisionLevel() != 0 {
		t.Errorf("DecisionLevel() after Restore: want 0, got %d", s.DecisionLevel())
	}
	if s.UB(v) != 1 {
		t.Errorf("UB() after Restore: want 1, got %d", s.UB(v))
	}
}

func TestStore_Clone_IsIndependent(t *testing.T) {
	s := NewStore()
	v := s.NewVariable(0, 10, TrueLiteral, "x")
	s.Decide(NewLiteral(PosView(v), 5))

	clone := s.Clone()
	clone.Decide(NewLiteral(PosView(v), 2))

	if s.UB(v) != 5 {
		t.Errorf("original store mutated by clone: UB(v) = %d, want 5", s.UB(v))
	}
	if clone.UB(v) != 2 {
		t.Errorf("clone.UB(v) = %d, want 2", clone.UB(v))
	}
}

// chainExplainer explains every literal it is asked about with whatever
// antecedents were registered for it, a minimal stand-in for
// internal/clauses.Database in these trail-refinement tests.
type chainExplainer struct {
	antecedents map[Literal][]Literal
}

func (c *chainExplainer) Explain(_ uint32, lit Literal, out []Literal) []Literal {
	return append(out, c.antecedents[lit]...)
}

func TestStore_Refine1UIP_SingleDecisionLevel(t *testing.T) {
	s := NewStore()
	a := s.NewVariable(0, 1, TrueLiteral, "a")
	b := s.NewVariable(0, 1, TrueLiteral, "b")

	exp := &chainExplainer{antecedents: map[Literal][]Literal{}}
	writer := s.RegisterWriter(exp)

	// Decide a: ub(a) <= 0 ("a is false").
	s.Decide(NewLiteral(PosView(a), 0))

	// b is forced false because of a, at the same decision level.
	bFalse := NewLiteral(PosView(b), 0)
	cause := Cause{Writer: writer}
	exp.antecedents[bFalse] = []Literal{NewLiteral(PosView(a), 0)}
	s.Set(bFalse, cause)

	// Conflict: c is forced both ways by a and b.
	conflict := []Literal{
		NewLiteral(PosView(a), 0),
		NewLiteral(PosView(b), 0),
	}

	learned, level := s.Refine1UIP(conflict)
	if len(learned) == 0 {
		t.Fatalf("Refine1UIP(): want a non-empty learned clause")
	}
	if level != 0 {
		t.Errorf("Refine1UIP(): want backtrack level 0, got %d", level)
	}
}
