package model_test

import (
	"testing"

	"github.com/coreplan/cds/internal/domain"
	"github.com/coreplan/cds/internal/search"
	"github.com/coreplan/cds/model"
)

func solve(m *model.Model) search.Status {
	brancher := search.NewActivityBrancher(m.Store.NumVariables(), 0.95)
	driver := search.NewDriver(m.Store, brancher, []search.Propagator{m.Clauses, m.STN, m.Linear})
	return driver.Solve()
}

func TestDisjunction_RequiresAtLeastOneLiteral(t *testing.T) {
	m := model.New()
	a := m.NewBoolAtom("a")
	b := m.NewBoolAtom("b")
	m.Post(model.Disjunction(m.FalseLit(a), m.FalseLit(b)))

	m.AddConstraint("a", model.Mandatory())
	m.AddConstraint("b", model.Mandatory())

	if got := solve(m); got != search.StatusUnsat {
		t.Fatalf("Solve(): want StatusUnsat (a and b both mandatory, but at most one may hold), got %v", got)
	}
}

func TestLinearSum_BoundIsEnforced(t *testing.T) {
	m := model.New()
	x := m.NewIntAtom("x", 0, 10)
	y := m.NewIntAtom("y", 0, 10)
	m.Post(model.LinearSum(map[domain.Variable]int32{x.Handle(): 1, y.Handle(): 1}, 5))

	m.Store.Set(domain.NewLiteral(domain.NegView(x.Handle()), -8), domain.EncodingCause) // lb(x) >= 8 at the root, already over bound
	if got := solve(m); got != search.StatusUnsat {
		t.Fatalf("Solve(): want StatusUnsat (x alone exceeds the sum bound), got %v", got)
	}
}

func TestDifference_PropagatesAcrossTimepoints(t *testing.T) {
	m := model.New()
	x := m.NewIntAtom("x", 0, 100)
	y := m.NewIntAtom("y", 0, 100)
	m.Post(model.Difference(x.Handle(), y.Handle(), 2)) // x - y <= 2

	m.Store.Decide(domain.NewLiteral(domain.PosView(y.Handle()), 3)) // ub(y) <= 3
	if got := solve(m); got != search.StatusSat {
		t.Fatalf("Solve(): want StatusSat, got %v", got)
	}
	if got := m.Store.UB(x.Handle()); got > 5 {
		t.Errorf("UB(x): want <= 5 (ub(y)+2), got %d", got)
	}
}

func TestEquality_ForcesSameBounds(t *testing.T) {
	m := model.New()
	x := m.NewIntAtom("x", 0, 10)
	y := m.NewIntAtom("y", 0, 10)
	m.Post(model.Equality(x.Handle(), y.Handle()))

	m.Store.Decide(domain.NewLiteral(domain.PosView(x.Handle()), 4))
	m.Store.Decide(domain.NewLiteral(domain.NegView(x.Handle()), -4))

	if got := solve(m); got != search.StatusSat {
		t.Fatalf("Solve(): want StatusSat, got %v", got)
	}
	if got := m.Store.LB(y.Handle()); got != 4 {
		t.Errorf("LB(y): want 4 (equal to x), got %d", got)
	}
	if got := m.Store.UB(y.Handle()); got != 4 {
		t.Errorf("UB(y): want 4 (equal to x), got %d", got)
	}
}

func TestReify_ReusesCanonicalLiteral(t *testing.T) {
	m := model.New()
	a := m.NewBoolAtom("a")
	b := m.NewBoolAtom("b")

	l1 := m.Reify(model.Disjunction(m.TrueLit(a), m.TrueLit(b)), model.Half)
	l2 := m.Reify(model.Disjunction(m.TrueLit(a), m.TrueLit(b)), model.Half)
	if l1 != l2 {
		t.Errorf("Reify(): want the same literal for an equal normal form, got %v and %v", l1, l2)
	}

	l3 := m.Reify(model.Disjunction(m.TrueLit(b), m.TrueLit(a)), model.Half)
	if l1 != l3 {
		t.Errorf("Reify(): want canonicalisation to ignore literal order, got %v and %v", l1, l3)
	}
}

func TestReify_FullReificationIsBiconditional(t *testing.T) {
	m := model.New()
	a := m.NewBoolAtom("a")
	b := m.NewBoolAtom("b")
	r := m.Reify(model.Disjunction(m.TrueLit(a), m.TrueLit(b)), model.Full)

	// Force the reification literal false: both a and b must then be false.
	m.Store.Decide(r.Negation())
	if got := solve(m); got != search.StatusSat {
		t.Fatalf("Solve(): want StatusSat, got %v", got)
	}
	if m.Store.LB(a.Handle()) >= 1 || m.Store.LB(b.Handle()) >= 1 {
		t.Errorf("want a and b both false when the full reification literal is forced false")
	}
}

func TestAtMost_BoundsCardinality(t *testing.T) {
	m := model.New()
	ids := []model.Identifier{"a", "b", "c"}
	for _, id := range ids {
		m.NewBoolAtom(id)
	}
	m.AddConstraint("group", model.AtMost(1, ids...))
	for _, id := range ids {
		m.AddConstraint(id, model.Mandatory())
	}

	if got := solve(m); got != search.StatusUnsat {
		t.Fatalf("Solve(): want StatusUnsat (3 mandatory atoms, at most 1 allowed), got %v", got)
	}
}

func TestAtMost_AllowsUpToBound(t *testing.T) {
	m := model.New()
	a, b, c := m.NewBoolAtom("a"), m.NewBoolAtom("b"), m.NewBoolAtom("c")
	m.AddConstraint("group", model.AtMost(2, "a", "b", "c"))
	m.AddConstraint("a", model.Mandatory())
	m.AddConstraint("b", model.Mandatory())

	if got := solve(m); got != search.StatusSat {
		t.Fatalf("Solve(): want StatusSat (2 mandatory atoms, at most 2 allowed), got %v", got)
	}
	if m.Store.LB(a.Handle()) < 1 || m.Store.LB(b.Handle()) < 1 {
		t.Errorf("want a and b both true")
	}
	_ = c
}

func TestDependency_RequiresOneCandidate(t *testing.T) {
	m := model.New()
	m.NewBoolAtom("pkg")
	m.NewBoolAtom("dep1")
	m.NewBoolAtom("dep2")
	m.AddConstraint("pkg", model.Dependency("dep1", "dep2"))
	m.AddConstraint("pkg", model.Mandatory())
	m.AddConstraint("dep1", model.Prohibited())
	m.AddConstraint("dep2", model.Prohibited())

	if got := solve(m); got != search.StatusUnsat {
		t.Fatalf("Solve(): want StatusUnsat (pkg needs dep1 or dep2, both prohibited), got %v", got)
	}
}

func TestConflict_ForbidsBothHolding(t *testing.T) {
	m := model.New()
	m.NewBoolAtom("a")
	m.NewBoolAtom("b")
	m.AddConstraint("a", model.Conflict("b"))
	m.AddConstraint("a", model.Mandatory())
	m.AddConstraint("b", model.Mandatory())

	if got := solve(m); got != search.StatusUnsat {
		t.Fatalf("Solve(): want StatusUnsat (a conflicts with b, both mandatory), got %v", got)
	}
}
