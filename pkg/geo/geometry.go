package geo

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// CoincidencePrecision is the maximum distance at which two points are
// treated as the same location.
const CoincidencePrecision = 0.01

// ErrZeroLengthDirection is returned when a direction is requested between
// two identical points.
var ErrZeroLengthDirection = errors.New("zero-length direction")

// North is the reference direction for absolute headings.
var North = orb.Point{0, 1}

// BoundingBox returns the axis-aligned bounds of a geometry.
func BoundingBox(g orb.LineString) orb.Bound {
	return g.Bound()
}

// ClippedIDs returns the indices of geometries whose bounding box lies
// entirely within bb. The lower bound is inclusive, the upper bound exclusive.
func ClippedIDs(geoms []orb.LineString, bb orb.Bound) []int {
	var ids []int
	for i, g := range geoms {
		gb := g.Bound()
		if gb.Min[0] >= bb.Min[0] && gb.Min[1] >= bb.Min[1] &&
			gb.Max[0] < bb.Max[0] && gb.Max[1] < bb.Max[1] {
			ids = append(ids, i)
		}
	}
	return ids
}

// Length returns the sum of segment lengths. A geometry with fewer than two
// points has zero length.
func Length(g orb.LineString) float64 {
	if len(g) < 2 {
		return 0
	}
	return planar.Length(g)
}

// Distance returns the Euclidean distance between two points.
func Distance(p0, p1 orb.Point) float64 {
	return planar.Distance(p0, p1)
}

// NormalizedDirection returns the unit vector pointing from p0 to p1.
func NormalizedDirection(p0, p1 orb.Point) (orb.Point, error) {
	dx, dy := p1[0]-p0[0], p1[1]-p0[1]
	n := math.Hypot(dx, dy)
	if n == 0 {
		return orb.Point{}, ErrZeroLengthDirection
	}
	return orb.Point{dx / n, dy / n}, nil
}

// SignedAngle returns the angle in [-π, π] from d1 to d0, both unit vectors.
// The sign follows cross(d0, d1); collinear vectors give a non-negative angle.
func SignedAngle(d0, d1 orb.Point) float64 {
	cross := d0[0]*d1[1] - d0[1]*d1[0]
	dot := d0[0]*d1[0] + d0[1]*d1[1]
	// Rounding can push the dot product of unit vectors past ±1.
	dot = math.Max(-1, math.Min(1, dot))
	a := math.Acos(dot)
	if cross < 0 {
		return -a
	}
	return a
}

// AngleFromNorth returns the signed heading of d relative to North.
// Positive values are clockwise (east of north).
func AngleFromNorth(d orb.Point) float64 {
	return SignedAngle(d, North)
}

// OrderFrom returns g if its first point is within CoincidencePrecision of
// anchor, otherwise a reversed copy. The input is never modified.
func OrderFrom(g orb.LineString, anchor orb.Point) orb.LineString {
	if len(g) > 0 && Distance(g[0], anchor) <= CoincidencePrecision {
		return g
	}
	return reversed(g)
}

// OrderTo returns g if its last point is within CoincidencePrecision of
// anchor, otherwise a reversed copy.
func OrderTo(g orb.LineString, anchor orb.Point) orb.LineString {
	if len(g) > 0 && Distance(g[len(g)-1], anchor) <= CoincidencePrecision {
		return g
	}
	return reversed(g)
}

// StartDirection returns the direction of the first segment of g when
// traversed away from anchor.
func StartDirection(g orb.LineString, anchor orb.Point) (orb.Point, error) {
	return HeadDirection(OrderFrom(g, anchor))
}

// EndDirection returns the direction of the last segment of g when
// traversed towards anchor.
func EndDirection(g orb.LineString, anchor orb.Point) (orb.Point, error) {
	return TailDirection(OrderTo(g, anchor))
}

// HeadDirection returns the direction of the first segment of g in its
// stored point order.
func HeadDirection(g orb.LineString) (orb.Point, error) {
	if len(g) < 2 {
		return orb.Point{}, ErrZeroLengthDirection
	}
	return NormalizedDirection(g[0], g[1])
}

// TailDirection returns the direction of the last segment of g in its
// stored point order.
func TailDirection(g orb.LineString) (orb.Point, error) {
	n := len(g)
	if n < 2 {
		return orb.Point{}, ErrZeroLengthDirection
	}
	return NormalizedDirection(g[n-2], g[n-1])
}

func reversed(g orb.LineString) orb.LineString {
	out := g.Clone()
	out.Reverse()
	return out
}
