package graph

import (
	"github.com/paulmach/orb"

	"github.com/azybler/roadnav/pkg/shape"
)

// Options configures graph construction.
type Options struct {
	// Directed builds edges according to each record's direction code.
	// Otherwise one undirected edge is built per record.
	Directed bool
	// PairIndex finds coincident terminal points. Defaults to RTreePairIndex.
	PairIndex PairIndex
}

// Build creates a navigation graph from validated records. Record IDs must
// equal their index in records.
func Build(records []shape.Record, opts Options) *NavGraph {
	tps, canonical := MergeTerminals(shape.Geometries(records), opts.PairIndex)
	n := len(records)
	start := canonical[:n]
	end := canonical[n:]

	var edges []Edge
	if opts.Directed {
		edges = directedEdges(records, start, end)
	} else {
		edges = make([]Edge, n)
		for i := range records {
			edges[i] = Edge{Source: NodeID(start[i]), Target: NodeID(end[i]), GeometryID: i}
		}
	}

	// Nodes in first-appearance order over the edge list.
	var nodes []NodeID
	var pos []orb.Point
	seen := make(map[NodeID]bool)
	addNode := func(id NodeID) {
		if seen[id] {
			return
		}
		seen[id] = true
		nodes = append(nodes, id)
		pos = append(pos, tps[id])
	}
	for _, e := range edges {
		addNode(e.Source)
		addNode(e.Target)
	}

	ends := make([][2]NodeID, n)
	for i := range ends {
		ends[i] = [2]NodeID{NodeID(start[i]), NodeID(end[i])}
	}
	return newNavGraph(records, ends, opts.Directed, nodes, pos, edges)
}

// directedEdges emits forward edges for F/B records, then reverse edges for
// R/B records. A (source, target) pair produced by several records keeps
// the first record encountered.
func directedEdges(records []shape.Record, start, end []uint32) []Edge {
	var edges []Edge
	seen := make(map[[2]NodeID]bool)
	add := func(u, v NodeID, gid int) {
		key := [2]NodeID{u, v}
		if seen[key] {
			return
		}
		seen[key] = true
		edges = append(edges, Edge{Source: u, Target: v, GeometryID: gid})
	}

	for i, r := range records {
		if r.Direction.AllowsForward() {
			add(NodeID(start[i]), NodeID(end[i]), i)
		}
	}
	for i, r := range records {
		if r.Direction.AllowsReverse() {
			add(NodeID(end[i]), NodeID(start[i]), i)
		}
	}
	return edges
}
