package graph

import (
	"sort"

	"github.com/azybler/roadnav/pkg/shape"
)

// UnionFind implements a disjoint-set data structure with path compression
// and union by rank.
type UnionFind struct {
	parent []uint32
	rank   []byte // byte is sufficient, max rank ~30 for realistic inputs
	size   []uint32
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n uint32) *UnionFind {
	parent := make([]uint32, n)
	size := make([]uint32, n)
	for i := range n {
		parent[i] = i
		size[i] = 1
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]byte, n),
		size:   size,
	}
}

// Find returns the representative of the set containing x, with path halving.
func (uf *UnionFind) Find(x uint32) uint32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y uint32) bool {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return false
	}

	// Union by rank.
	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// Size returns the number of elements in the set containing x.
func (uf *UnionFind) Size(x uint32) uint32 {
	return uf.size[uf.Find(x)]
}

// Components returns the weakly connected components of g (edge direction
// ignored). Each component lists its node ids in ascending order; components
// are ordered largest first, ties broken by smallest node id.
//
// More than one component usually means endpoints that should meet were
// further apart than the coincidence tolerance.
func Components(g *NavGraph) [][]NodeID {
	n := uint32(g.NumNodes())
	if n == 0 {
		return nil
	}

	uf := NewUnionFind(n)
	for _, e := range g.edges {
		uf.Union(g.index[e.Source], g.index[e.Target])
	}

	byRoot := make(map[uint32][]NodeID)
	for i := uint32(0); i < n; i++ {
		root := uf.Find(i)
		byRoot[root] = append(byRoot[root], g.nodes[i])
	}

	comps := make([][]NodeID, 0, len(byRoot))
	for _, nodes := range byRoot {
		sort.Slice(nodes, func(a, b int) bool { return nodes[a] < nodes[b] })
		comps = append(comps, nodes)
	}
	sort.Slice(comps, func(a, b int) bool {
		if len(comps[a]) != len(comps[b]) {
			return len(comps[a]) > len(comps[b])
		}
		return comps[a][0] < comps[b][0]
	})
	return comps
}

// LargestComponent returns the node ids of the largest weakly connected
// component of g.
func LargestComponent(g *NavGraph) []NodeID {
	comps := Components(g)
	if len(comps) == 0 {
		return nil
	}
	return comps[0]
}

// RecordsInComponent returns copies of the records whose edges join nodes
// of the given component, renumbered from zero in their original order.
// Building a graph from the result yields a connected graph.
func RecordsInComponent(g *NavGraph, nodes []NodeID) []shape.Record {
	in := make(map[NodeID]bool, len(nodes))
	for _, n := range nodes {
		in[n] = true
	}

	keep := make([]bool, len(g.records))
	for _, e := range g.edges {
		if in[e.Source] && in[e.Target] {
			keep[e.GeometryID] = true
		}
	}

	var out []shape.Record
	for i, r := range g.records {
		if !keep[i] {
			continue
		}
		r.ID = len(out)
		out = append(out, r)
	}
	return out
}
