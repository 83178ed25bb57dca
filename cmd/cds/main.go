// Command cds is the reasoning engine's command-line front end: load a
// DIMACS instance and either solve it, search for a minimal unsatisfiable
// subset of its clauses, or run a portfolio of independent searches over
// it. It replaces the teacher's flag-based main.go with a cobra-based
// multi-command CLI, the shape cmd/operator-cli (the OLM resolver's own
// command-line tool) uses for its bundle subcommands.
package main

import (
	"os"
	"runtime/pprof"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cpuProfile string
	memProfile string
)

func main() {
	root := &cobra.Command{
		Use:   "cds",
		Short: "cds is a constraint-solving reasoning engine",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				log.SetLevel(log.DebugLevel)
			}
			if cpuProfile != "" {
				f, err := os.Create(cpuProfile)
				if err != nil {
					return err
				}
				if err := pprof.StartCPUProfile(f); err != nil {
					return err
				}
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if cpuProfile != "" {
				pprof.StopCPUProfile()
			}
			if memProfile != "" {
				f, err := os.Create(memProfile)
				if err != nil {
					return err
				}
				defer f.Close()
				return pprof.WriteHeapProfile(f)
			}
			return nil
		},
	}

	root.PersistentFlags().Bool("debug", false, "enable debug logging")
	root.PersistentFlags().StringVar(&cpuProfile, "cpuprofile", "", "write a CPU profile to this file")
	root.PersistentFlags().StringVar(&memProfile, "memprofile", "", "write a heap profile to this file")

	root.AddCommand(newSolveCmd())
	root.AddCommand(newMUSCmd())

	if err := root.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
