package model_test

import (
	"testing"

	"github.com/coreplan/cds/internal/domain"
	"github.com/coreplan/cds/model"
)

func TestFixedVar_RoundTripsThroughScaledBounds(t *testing.T) {
	m := model.New()
	price := m.NewFixedAtom("price", 0.0, 10.0, 100) // cents resolution

	if got, want := m.Store.LB(price.Handle()), int32(0); got != want {
		t.Errorf("LB: want %d, got %d", want, got)
	}
	if got, want := m.Store.UB(price.Handle()), int32(1000); got != want {
		t.Errorf("UB: want %d (10.0 * 100), got %d", want, got)
	}
}

func TestFixedSum_EnforcesScaledBound(t *testing.T) {
	m := model.New()
	x := m.NewFixedAtom("x", 0, 10, 100)
	y := m.NewFixedAtom("y", 0, 10, 100)
	m.Post(model.FixedSum(map[model.FixedVar]int32{x: 1, y: 1}, 5.0)) // x + y <= 5.0

	// lb(x) >= 4.0, scaled to 400.
	m.Store.Decide(domain.NewLiteral(domain.NegView(x.Handle()), -400))
	if conflict := m.Linear.Propagate(); conflict != nil {
		t.Fatalf("Propagate(): unexpected conflict %v", conflict)
	}

	if got := m.Store.UB(y.Handle()); got != 100 {
		t.Errorf("UB(y): want 100 (1.0 scaled by 100, i.e. 5.0 - 4.0), got %d", got)
	}
	if got := y.Value(m.Store); got != 0 {
		t.Errorf("Value(y) before solving y's lower bound: want 0, got %v", got)
	}
}

func TestFixedSum_PanicsOnMismatchedDenominators(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("FixedSum: want a panic when terms use different denominators")
		}
	}()

	m := model.New()
	x := m.NewFixedAtom("x", 0, 10, 100)
	y := m.NewFixedAtom("y", 0, 10, 10)
	model.FixedSum(map[model.FixedVar]int32{x: 1, y: 1}, 5.0)
}
