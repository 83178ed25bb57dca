package clauses_test

import (
	"testing"

	"github.com/coreplan/cds/internal/clauses"
	"github.com/coreplan/cds/internal/domain"
	"github.com/coreplan/cds/internal/search"
)

func boolVar(s *domain.Store) domain.Variable {
	return s.NewBoolVariable(domain.TrueLiteral, "")
}

func pos(v domain.Variable) domain.Literal { return domain.NewLiteral(domain.NegView(v), -1) } // v holds
func neg(v domain.Variable) domain.Literal { return domain.NewLiteral(domain.PosView(v), 0) }   // v does not hold

func solve(store *domain.Store, db *clauses.Database) search.Status {
	brancher := search.NewActivityBrancher(store.NumVariables(), 0.95)
	driver := search.NewDriver(store, brancher, []search.Propagator{db})
	return driver.Solve()
}

func TestDatabase_UnitPropagationFindsModel(t *testing.T) {
	store := domain.NewStore()
	a, b := boolVar(store), boolVar(store)
	db := clauses.NewDatabase(store)

	db.AddClause([]domain.Literal{pos(a)})                  // a
	db.AddClause([]domain.Literal{neg(a), pos(b)})           // !a or b

	if got := solve(store, db); got != search.StatusSat {
		t.Fatalf("Solve(): want StatusSat, got %v", got)
	}
	if store.LB(a) < 1 {
		t.Errorf("want a true, lb(a) = %d", store.LB(a))
	}
	if store.LB(b) < 1 {
		t.Errorf("want b true (forced by a -> b), lb(b) = %d", store.LB(b))
	}
}

func TestDatabase_ConflictingUnitsAreUnsat(t *testing.T) {
	store := domain.NewStore()
	a := boolVar(store)
	db := clauses.NewDatabase(store)

	db.AddClause([]domain.Literal{pos(a)})
	db.AddClause([]domain.Literal{neg(a)})

	if got := solve(store, db); got != search.StatusUnsat {
		t.Fatalf("Solve(): want StatusUnsat, got %v", got)
	}
}

func TestDatabase_ExactlyOneOfTwoIsSat(t *testing.T) {
	store := domain.NewStore()
	a, b := boolVar(store), boolVar(store)
	db := clauses.NewDatabase(store)

	// Exactly one of a, b: at least one must hold, and they cannot both
	// hold. Satisfiable, with exactly one of them true.
	db.AddClause([]domain.Literal{pos(a), pos(b)})
	db.AddClause([]domain.Literal{neg(a), neg(b)})

	if got := solve(store, db); got != search.StatusSat {
		t.Fatalf("Solve(): want StatusSat (exactly one pigeon seated), got %v", got)
	}
	if store.LB(a) >= 1 && store.LB(b) >= 1 {
		t.Errorf("want at most one of a, b true")
	}
}
