package routing

import (
	"errors"

	"github.com/paulmach/orb"

	"github.com/azybler/roadnav/pkg/graph"
)

// DefaultMaxSnapDistance is the default snapping ceiling in coordinate units.
const DefaultMaxSnapDistance = 500.0

// ErrPointTooFar is returned when the query point is too far from any node.
var ErrPointTooFar = errors.New("point too far from road")

// SnapResult represents a query point snapped to a graph node.
type SnapResult struct {
	Node     graph.NodeID
	Position orb.Point
	Dist     float64 // distance from query point to the node
}

// Snapper snaps query points to the nearest graph node and rejects points
// further away than a ceiling.
type Snapper struct {
	g       *graph.NavGraph
	maxDist float64
}

// NewSnapper creates a Snapper over g. A maxDist <= 0 disables the ceiling.
func NewSnapper(g *graph.NavGraph, maxDist float64) *Snapper {
	return &Snapper{g: g, maxDist: maxDist}
}

// Snap finds the nearest node to p.
func (s *Snapper) Snap(p orb.Point) (SnapResult, error) {
	n, dist, err := s.g.NearestNode(p)
	if err != nil {
		return SnapResult{}, err
	}
	if s.maxDist > 0 && dist > s.maxDist {
		return SnapResult{}, ErrPointTooFar
	}
	pos, err := s.g.NodePosition(n)
	if err != nil {
		return SnapResult{}, err
	}
	return SnapResult{Node: n, Position: pos, Dist: dist}, nil
}
