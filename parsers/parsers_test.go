package parsers_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/coreplan/cds/internal/search"
	"github.com/coreplan/cds/model"
	"github.com/coreplan/cds/parsers"
)

const cnfBody = `c a tiny satisfiable instance
p cnf 3 3
1 -2 0
2 3 0
-1 -3 0
`

func writeCNF(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "instance.cnf")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %s", err)
	}
	return path
}

func TestLoadDIMACS_BuildsModelWithSatisfyingAssignment(t *testing.T) {
	path := writeCNF(t, cnfBody)

	m := model.New()
	if err := parsers.LoadDIMACS(path, false, m); err != nil {
		t.Fatalf("LoadDIMACS(): unexpected error %s", err)
	}

	ids := m.Identifiers()
	if len(ids) != 3 {
		t.Fatalf("Identifiers(): want 3 declared atoms, got %d (%v)", len(ids), ids)
	}

	brancher := search.NewActivityBrancher(m.Store.NumVariables(), 0.95)
	driver := search.NewDriver(m.Store, brancher, []search.Propagator{m.Clauses, m.STN, m.Linear})
	if got := driver.Solve(); got != search.StatusSat {
		t.Fatalf("Solve(): want StatusSat, got %v", got)
	}
}

func TestLoadDIMACS_MissingFile(t *testing.T) {
	m := model.New()
	if err := parsers.LoadDIMACS(filepath.Join(t.TempDir(), "missing.cnf"), false, m); err == nil {
		t.Fatalf("LoadDIMACS(): want error for missing file, got nil")
	}
}

func TestReadCNF_ReturnsRawClauses(t *testing.T) {
	path := writeCNF(t, cnfBody)

	cnf, err := parsers.ReadCNF(path, false)
	if err != nil {
		t.Fatalf("ReadCNF(): unexpected error %s", err)
	}
	if cnf.NVars != 3 {
		t.Errorf("NVars: want 3, got %d", cnf.NVars)
	}
	if len(cnf.Clauses) != 3 {
		t.Fatalf("Clauses: want 3, got %d", len(cnf.Clauses))
	}
	if got := cnf.Clauses[0]; len(got) != 2 || got[0] != 1 || got[1] != -2 {
		t.Errorf("Clauses[0]: want [1 -2], got %v", got)
	}
}

func TestReadModels_OneModelPerLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.txt")
	if err := os.WriteFile(path, []byte("1 -2 3 0\n-1 2 -3 0\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %s", err)
	}

	models, err := parsers.ReadModels(path)
	if err != nil {
		t.Fatalf("ReadModels(): unexpected error %s", err)
	}
	if len(models) != 2 {
		t.Fatalf("want 2 models, got %d", len(models))
	}
	if want := []bool{true, false, true}; !equalBools(models[0], want) {
		t.Errorf("models[0]: want %v, got %v", want, models[0])
	}
}

func equalBools(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
