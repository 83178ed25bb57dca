// Package stn implements the difference-logic theory of spec §4.3: an
// incremental, Dijkstra-style single-source-shortest-paths propagator over
// signed variables, with eager bound tightening and lazy negative-cycle
// detection/explanation. It has no teacher analogue (rhartert/yass is
// purely Boolean); the propagation shape is grounded on the teacher's
// Solver.Propagate work-queue discipline, the heap-based expansion on
// lvlath's dijkstra.Dijkstra, and the edge/propagator split on
// original_source/cp/reasoners/stn/src/theory/edges.rs.
package stn

import "github.com/coreplan/cds/internal/domain"

// EdgeID identifies a registered STN edge.
type EdgeID int32

// Edge is a difference constraint target - source <= weight, gated by two
// literals: active (true when the edge must propagate) and valid (true
// when it is safe to propagate, typically source and target's presence
// literals conjoined upstream by the model layer). Mirrors spec §3's "STN
// edge" data model entry.
type Edge struct {
	Source, Target domain.Variable
	Weight         int32
	Active, Valid  domain.Literal
}

// propagator is one directional realisation of an edge (spec §3's "STN
// propagator"): tightening src's tracked bound by x implies dst's tracked
// bound can be tightened to x+weight. Two propagators are derived from
// every edge: one over the positive (upper-bound) views, one over the
// negative (lower-bound) views, per spec §4.3's algorithm paragraph.
type propagator struct {
	id     int32
	edge   EdgeID
	src    domain.SignedVar
	dst    domain.SignedVar
	weight int32
}
