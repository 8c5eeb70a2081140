package graph

import (
	"errors"
	"fmt"

	"github.com/azybler/roadnav/pkg/geo"
	"github.com/azybler/roadnav/pkg/shape"
)

// LengthLabel is the attribute label conventionally used for geometry length.
const LengthLabel = "length"

// ErrUnknownAttribute is returned for an attribute label that was never set.
var ErrUnknownAttribute = errors.New("unknown edge attribute")

// EdgeAttributeFunc derives one value per edge, aligned to g.Edges() order.
type EdgeAttributeFunc func(g *NavGraph, records []shape.Record) []float64

// LengthAttribute returns the length of each edge's geometry.
func LengthAttribute(g *NavGraph, records []shape.Record) []float64 {
	vals := make([]float64, len(g.edges))
	for i, e := range g.edges {
		vals[i] = geo.Length(records[e.GeometryID].Geometry)
	}
	return vals
}

// SetEdgeAttribute computes fn over the graph and stores the result under
// label, replacing any previous values. It mutates the graph and must not
// run concurrently with any other method.
func (g *NavGraph) SetEdgeAttribute(fn EdgeAttributeFunc, label string) error {
	vals := fn(g, g.records)
	if len(vals) != len(g.edges) {
		return fmt.Errorf("attribute %q: got %d values for %d edges", label, len(vals), len(g.edges))
	}
	g.attrs[label] = vals
	return nil
}

// Attribute returns the value of label on the edge at index edge.
func (g *NavGraph) Attribute(label string, edge int) (float64, error) {
	vals, ok := g.attrs[label]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAttribute, label)
	}
	if edge < 0 || edge >= len(vals) {
		return 0, ErrUnknownEdge
	}
	return vals[edge], nil
}

// AttributeWeight returns a WeightFunc reading the values stored under label.
func (g *NavGraph) AttributeWeight(label string) (WeightFunc, error) {
	vals, ok := g.attrs[label]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAttribute, label)
	}
	return func(edge int) float64 { return vals[edge] }, nil
}
