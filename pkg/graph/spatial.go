package graph

import (
	"math"

	"github.com/paulmach/orb"
)

// NearestNode returns the node closest to p and its distance. There is no
// distance ceiling: callers that need one must check the returned distance.
// Equidistant nodes resolve to the lowest node id.
func (g *NavGraph) NearestNode(p orb.Point) (NodeID, float64, error) {
	if len(g.nodes) == 0 {
		return 0, 0, ErrEmptyGraph
	}

	best := -1
	bestDist := math.Inf(1)
	g.tree.Nearby(
		func(min, max [2]float64, _ uint32, _ bool) float64 {
			return boxDistSq(p, min, max)
		},
		func(_, _ [2]float64, idx uint32, distSq float64) bool {
			if best >= 0 && distSq > bestDist {
				return false
			}
			if best < 0 || distSq < bestDist || g.nodes[idx] < g.nodes[best] {
				best = int(idx)
				bestDist = distSq
			}
			return true
		},
	)
	return g.nodes[best], math.Sqrt(bestDist), nil
}

// boxDistSq returns the squared distance from p to the rectangle [min, max].
func boxDistSq(p orb.Point, min, max [2]float64) float64 {
	var d float64
	for axis := 0; axis < 2; axis++ {
		switch {
		case p[axis] < min[axis]:
			d += (min[axis] - p[axis]) * (min[axis] - p[axis])
		case p[axis] > max[axis]:
			d += (p[axis] - max[axis]) * (p[axis] - max[axis])
		}
	}
	return d
}
