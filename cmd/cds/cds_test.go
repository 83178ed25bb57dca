package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

const satCNF = `c a trivial satisfiable instance
p cnf 2 2
1 2 0
-1 2 0
`

const unsatCNF = `c a trivial unsatisfiable instance
p cnf 1 2
1 0
-1 0
`

func writeCNF(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "instance.cnf")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

// runCmd executes cmd; the solve and mus subcommands print directly to
// os.Stdout via fmt.Println rather than cmd.OutOrStdout(), so callers that
// need the output capture it themselves around this call.
func runCmd(t *testing.T, cmd *cobra.Command, args []string) {
	t.Helper()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute(%v): %v", args, err)
	}
}

func TestSolveCmd_ReportsSatWithAModel(t *testing.T) {
	path := writeCNF(t, satCNF)

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	runCmd(t, newSolveCmd(), []string{path})
	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	got := buf.String()
	if !strings.Contains(got, "SAT") || strings.Contains(got, "UNSAT") {
		t.Errorf("solve: want a SAT report, got %q", got)
	}
}

func TestSolveCmd_ReportsUnsat(t *testing.T) {
	path := writeCNF(t, unsatCNF)

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	runCmd(t, newSolveCmd(), []string{path})
	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	if got := buf.String(); !strings.Contains(got, "UNSAT") {
		t.Errorf("solve: want an UNSAT report, got %q", got)
	}
}

func TestMUSCmd_FindsTheConflictingPair(t *testing.T) {
	path := writeCNF(t, unsatCNF)

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	runCmd(t, newMUSCmd(), []string{path})
	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	if got := buf.String(); !strings.Contains(got, "MUS:") {
		t.Errorf("mus: want at least one reported MUS, got %q", got)
	}
}
