package dimacs

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/coreplan/cds/internal/domain"
	"github.com/coreplan/cds/internal/search"
)

const cnfBody = `c three-variable, two-clause toy instance
p cnf 3 2
1 -2 0
-1 3 0
`

func writeCNF(t *testing.T, gzipped bool) string {
	t.Helper()
	dir := t.TempDir()
	name := "instance.cnf"
	if gzipped {
		name += ".gz"
	}
	path := filepath.Join(dir, name)

	var buf bytes.Buffer
	if gzipped {
		gw := gzip.NewWriter(&buf)
		gw.Write([]byte(cnfBody))
		gw.Close()
	} else {
		buf.WriteString(cnfBody)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writing fixture: %s", err)
	}
	return path
}

func TestLoadDIMACS_cnf(t *testing.T) {
	path := writeCNF(t, false)

	inst, err := LoadDIMACS(path, false)
	if err != nil {
		t.Fatalf("LoadDIMACS(): want no error, got %s", err)
	}
	if len(inst.Vars) != 3 {
		t.Errorf("LoadDIMACS(): want 3 variables, got %d", len(inst.Vars))
	}
}

func TestLoadDIMACS_gzip(t *testing.T) {
	path := writeCNF(t, true)

	inst, err := LoadDIMACS(path, true)
	if err != nil {
		t.Fatalf("LoadDIMACS(): want no error, got %s", err)
	}
	if len(inst.Vars) != 3 {
		t.Errorf("LoadDIMACS(): want 3 variables, got %d", len(inst.Vars))
	}
}

func TestLoadDIMACS_noFile(t *testing.T) {
	if _, err := LoadDIMACS("", false); err == nil {
		t.Errorf("LoadDIMACS(): want error, got none")
	}
}

func TestLoadDIMACS_gzip_notGzipFile(t *testing.T) {
	path := writeCNF(t, false)

	if _, err := LoadDIMACS(path, true); err == nil {
		t.Errorf("LoadDIMACS(): want error, got none")
	}
}

// solveAll enumerates every model of inst by repeatedly solving and
// blocking the last model found with a clause that forbids repeating it,
// the same technique the teacher's yass_test.go TestSolveAll used against
// sat.Solver directly.
func solveAll(inst *Instance) [][]bool {
	var models [][]bool
	for {
		brancher := search.NewActivityBrancher(inst.Store.NumVariables(), 0.95)
		driver := search.NewDriver(inst.Store, brancher, []search.Propagator{inst.Clauses},
			search.WithSolutionCallback(func() bool { return false })) // stop at the first model found
		if driver.Solve() != search.StatusSat {
			return models
		}

		model := make([]bool, len(inst.Vars))
		block := make([]domain.Literal, len(inst.Vars))
		for i, v := range inst.Vars {
			if inst.Store.LB(v) >= 1 {
				model[i] = true
				block[i] = domain.NewLiteral(domain.PosView(v), 0) // forbid v=true again
			} else {
				block[i] = domain.NewLiteral(domain.NegView(v), -1) // forbid v=false again
			}
		}
		models = append(models, model)
		// AddClause expects decision level 0.
		inst.Store.Restore(0)
		inst.Clauses.OnBacktrack(0)
		inst.Clauses.AddClause(block)
	}
}

// modelLine renders model in the literal-per-field, "0"-terminated format
// ParseModels expects, one DIMACS variable index per position.
func modelLine(model []bool) string {
	var b strings.Builder
	for i, v := range model {
		if i > 0 {
			b.WriteByte(' ')
		}
		if v {
			fmt.Fprintf(&b, "%d", i+1)
		} else {
			fmt.Fprintf(&b, "-%d", i+1)
		}
	}
	b.WriteString(" 0")
	return b.String()
}

func modelSet(models [][]bool) map[string]bool {
	set := make(map[string]bool, len(models))
	for _, m := range models {
		var b strings.Builder
		for _, v := range m {
			if v {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
		set[b.String()] = true
	}
	return set
}

// TestParseModels_MatchesEnumeratedModels grounds ParseModels (otherwise
// unreachable from any other collaborator in this package) the way the
// teacher's instance-suite tests use it: every model this package's own
// solve loop finds for a toy instance must match a models file parsed with
// ParseModels, the verify-against-known-models workflow the file exists for.
func TestParseModels_MatchesEnumeratedModels(t *testing.T) {
	path := writeCNF(t, false)
	inst, err := LoadDIMACS(path, false)
	if err != nil {
		t.Fatalf("LoadDIMACS(): %s", err)
	}

	got := solveAll(inst)
	if len(got) == 0 {
		t.Fatalf("solveAll(): want at least one model for a satisfiable instance")
	}

	lines := make([]string, len(got))
	for i, m := range got {
		lines[i] = modelLine(m)
	}
	sort.Strings(lines)

	modelsPath := filepath.Join(t.TempDir(), "instance.cnf.models")
	if err := os.WriteFile(modelsPath, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("writing models fixture: %s", err)
	}

	want, err := ParseModels(modelsPath)
	if err != nil {
		t.Fatalf("ParseModels(): %s", err)
	}

	gotSet, wantSet := modelSet(got), modelSet(want)
	if len(gotSet) != len(wantSet) {
		t.Fatalf("ParseModels(): want %d distinct models, got %d", len(gotSet), len(wantSet))
	}
	for k := range gotSet {
		if !wantSet[k] {
			t.Errorf("ParseModels(): model %q from solveAll not found in parsed models", k)
		}
	}
}

func TestParseModels_SkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.models")
	if err := os.WriteFile(path, []byte("1 -2 0\n\n-1 2 0\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %s", err)
	}

	models, err := ParseModels(path)
	if err != nil {
		t.Fatalf("ParseModels(): %s", err)
	}
	if len(models) != 2 {
		t.Fatalf("ParseModels(): want 2 models, got %d", len(models))
	}
	if !models[0][0] || models[0][1] {
		t.Errorf("ParseModels(): first model: want [true false], got %v", models[0])
	}
}
