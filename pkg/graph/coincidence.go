package graph

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"

	"github.com/azybler/roadnav/pkg/geo"
)

// Pair is an unordered pair of point indices with I < J.
type Pair struct {
	I, J uint32
}

// PairIndex finds all point pairs lying within a radius of each other.
type PairIndex interface {
	Pairs(points []orb.Point, radius float64) []Pair
}

// RTreePairIndex implements PairIndex with an R-tree over the points.
type RTreePairIndex struct{}

// Pairs returns every pair (i, j), i < j, with distance at most radius,
// sorted by (i, j).
func (RTreePairIndex) Pairs(points []orb.Point, radius float64) []Pair {
	var tr rtree.RTreeG[uint32]
	for i, p := range points {
		tr.Insert([2]float64(p), [2]float64(p), uint32(i))
	}

	var pairs []Pair
	for i, p := range points {
		lo := [2]float64{p[0] - radius, p[1] - radius}
		hi := [2]float64{p[0] + radius, p[1] + radius}
		tr.Search(lo, hi, func(_, _ [2]float64, j uint32) bool {
			if j > uint32(i) && geo.Distance(p, points[j]) <= radius {
				pairs = append(pairs, Pair{I: uint32(i), J: j})
			}
			return true
		})
	}

	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].I != pairs[b].I {
			return pairs[a].I < pairs[b].I
		}
		return pairs[a].J < pairs[b].J
	})
	return pairs
}

// TerminalPoints returns the start point of every geometry followed by the
// end point of every geometry. Index k < N is the start of geometry k,
// index N+k its end.
func TerminalPoints(geoms []orb.LineString) []orb.Point {
	n := len(geoms)
	tps := make([]orb.Point, 2*n)
	for i, g := range geoms {
		tps[i] = g[0]
		tps[n+i] = g[len(g)-1]
	}
	return tps
}

// CanonicalMap merges coincident terminal ids. Every pair is united, so
// chains of points that are only pairwise within tolerance collapse into
// one node. Each id maps to the smallest id of its set, which makes an id
// that is never the larger element of a pair map to itself.
func CanonicalMap(pairs []Pair, n int) []uint32 {
	uf := NewUnionFind(uint32(n))
	for _, p := range pairs {
		uf.Union(p.I, p.J)
	}

	const unset = ^uint32(0)
	smallest := make([]uint32, n)
	for i := range smallest {
		smallest[i] = unset
	}
	canonical := make([]uint32, n)
	for i := uint32(0); i < uint32(n); i++ {
		root := uf.Find(i)
		if smallest[root] == unset {
			smallest[root] = i
		}
		canonical[i] = smallest[root]
	}
	return canonical
}

// MergeTerminals computes the terminal point set of geoms and its
// canonical map under geo.CoincidencePrecision.
func MergeTerminals(geoms []orb.LineString, index PairIndex) ([]orb.Point, []uint32) {
	if index == nil {
		index = RTreePairIndex{}
	}
	tps := TerminalPoints(geoms)
	pairs := index.Pairs(tps, geo.CoincidencePrecision)
	return tps, CanonicalMap(pairs, len(tps))
}
