package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrCyclicGraph indicates the edge list forms at least one cycle. A cyclic
// graph would leave the cycle members permanently unready, so runs reject it
// up front.
var ErrCyclicGraph = errors.New("graph contains a cycle")

// Edge encodes a must-complete-before relationship between two node keys.
// Both endpoints are optional in the raw representation; an edge missing
// either endpoint is ignored by root and readiness computation.
type Edge struct {
	From *string `json:"from,omitempty"`
	To   *string `json:"to,omitempty"`
}

// Complete reports whether both endpoints are present.
func (e Edge) Complete() bool {
	return e.From != nil && e.To != nil
}

// resolved reports whether the edge has both endpoints and both name declared
// nodes. Documents are free to carry edges referencing keys outside Nodes;
// such edges impose no ordering, the same as incomplete ones.
func (d *DAG) resolved(edge Edge) bool {
	if !edge.Complete() {
		return false
	}

	_, fromKnown := d.Nodes[*edge.From]
	_, toKnown := d.Nodes[*edge.To]

	return fromKnown && toKnown
}

// DAG describes the nodes of a generator run and their ordering constraints.
// It is immutable once loaded; the run engine only reads it.
type DAG struct {
	Nodes map[string]*Node `json:"nodes" validate:"required"`
	Edges []Edge           `json:"edges"`
}

// RootKeys returns the keys of all nodes that are never named as the target
// of a resolved edge. An empty graph yields an empty set.
func (d *DAG) RootKeys() map[string]struct{} {
	roots := make(map[string]struct{}, len(d.Nodes))
	for key := range d.Nodes {
		roots[key] = struct{}{}
	}

	for _, edge := range d.Edges {
		if d.resolved(edge) {
			delete(roots, *edge.To)
		}
	}

	return roots
}

// Children returns the set of direct successors of the given node key. Only
// declared nodes appear; an edge into an unknown key contributes nothing.
func (d *DAG) Children(key string) map[string]struct{} {
	children := make(map[string]struct{})

	for _, edge := range d.Edges {
		if d.resolved(edge) && *edge.From == key {
			children[*edge.To] = struct{}{}
		}
	}

	return children
}

// Dependencies precomputes, for every node, the exact set of its direct
// predecessors. Built once per run in O(E); it is never recomputed even
// though live state changes, and rebuilding from the same edge list yields
// identical sets.
func (d *DAG) Dependencies() map[string]map[string]struct{} {
	deps := make(map[string]map[string]struct{}, len(d.Nodes))

	for key := range d.Nodes {
		set := make(map[string]struct{})

		for _, edge := range d.Edges {
			if d.resolved(edge) && *edge.To == key {
				set[*edge.From] = struct{}{}
			}
		}

		deps[key] = set
	}

	return deps
}

// CheckAcyclic verifies the edge list forms no cycle among the declared
// nodes, using Kahn's algorithm. Unresolved edges are already filtered out of
// the dependency index, so they cannot participate in a cycle.
func (d *DAG) CheckAcyclic() error {
	indegree := make(map[string]int, len(d.Nodes))

	for key, deps := range d.Dependencies() {
		indegree[key] = len(deps)
	}

	queue := make([]string, 0, len(d.Nodes))
	for key, degree := range indegree {
		if degree == 0 {
			queue = append(queue, key)
		}
	}

	visited := 0
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		visited++

		for child := range d.Children(key) {
			indegree[child]--
			if indegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	if visited != len(d.Nodes) {
		remaining := make([]string, 0, len(d.Nodes)-visited)

		for key, degree := range indegree {
			if degree > 0 {
				remaining = append(remaining, key)
			}
		}

		sort.Strings(remaining)

		return fmt.Errorf("%w: unresolved nodes [%s]", ErrCyclicGraph, strings.Join(remaining, ", "))
	}

	return nil
}
