package stn

import (
	"fmt"

	"github.com/katalvlaran/lvlath/core"
)

// ExportGraph renders the theory's active-edge set as a directed, weighted
// lvlath graph for debugging and visualisation. It is never on the
// propagation hot path: spec §4.3 groups this purely under diagnostics,
// reusing the rest of the example pack's graph library (github.com/
// katalvlaran/lvlath/core) instead of hand-rolling a DOT writer.
func (t *Theory) ExportGraph() (*core.Graph, error) {
	g := core.NewGraph(core.WithDirected(true), core.WithWeighted(), core.WithMultiEdges(), core.WithLoops())

	seen := map[int]bool{}
	addVertex := func(v int) error {
		if seen[v] {
			return nil
		}
		seen[v] = true
		return g.AddVertex(timepointID(v))
	}

	for i, e := range t.edges {
		if !t.store.Entails(e.Active) || !t.store.Entails(e.Valid) {
			continue
		}
		if err := addVertex(int(e.Source)); err != nil {
			return nil, fmt.Errorf("stn: export vertex %d: %w", e.Source, err)
		}
		if err := addVertex(int(e.Target)); err != nil {
			return nil, fmt.Errorf("stn: export vertex %d: %w", e.Target, err)
		}
		from, to := timepointID(int(e.Source)), timepointID(int(e.Target))
		if _, err := g.AddEdge(from, to, int64(e.Weight)); err != nil {
			return nil, fmt.Errorf("stn: export edge %d: %w", i, err)
		}
	}

	return g, nil
}

func timepointID(v int) string { return fmt.Sprintf("t%d", v) }
