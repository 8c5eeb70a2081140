package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/azybler/roadnav/pkg/graph"
	"github.com/azybler/roadnav/pkg/navigation"
)

// ErrNoRoute is returned when no route exists between the two points.
var ErrNoRoute = errors.New("no route found")

// RouteResult is the output of a route query.
type RouteResult struct {
	Start, End   SnapResult
	Nodes        []graph.NodeID
	Instructions []navigation.Instruction // raw, one pivot per interior node
	Consolidated []navigation.Instruction
	Summary      navigation.Summary // of Instructions
	// ConsolidatedSummary counts only the turns left after consolidation.
	ConsolidatedSummary navigation.Summary
}

// Router is the interface for route queries.
type Router interface {
	Route(ctx context.Context, start, end orb.Point) (*RouteResult, error)
}

// Engine implements Router over a navigation graph, weighting edges by
// geometry length.
type Engine struct {
	g       *graph.NavGraph
	snapper *Snapper
	weight  graph.WeightFunc
}

// NewEngine creates a routing engine. It sets the length attribute on g,
// so it must run before g is shared with other goroutines.
func NewEngine(g *graph.NavGraph, maxSnapDist float64) (*Engine, error) {
	if err := g.SetEdgeAttribute(graph.LengthAttribute, graph.LengthLabel); err != nil {
		return nil, fmt.Errorf("set length attribute: %w", err)
	}
	w, err := g.AttributeWeight(graph.LengthLabel)
	if err != nil {
		return nil, err
	}
	return &Engine{
		g:       g,
		snapper: NewSnapper(g, maxSnapDist),
		weight:  w,
	}, nil
}

// Graph returns the engine's graph.
func (e *Engine) Graph() *graph.NavGraph { return e.g }

// Route computes the shortest path between the nodes nearest to start and
// end, and its turn-by-turn instructions.
func (e *Engine) Route(ctx context.Context, start, end orb.Point) (*RouteResult, error) {
	// Step 1: Snap points to nearest nodes.
	startSnap, err := e.snapper.Snap(start)
	if err != nil {
		return nil, err
	}
	endSnap, err := e.snapper.Snap(end)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 2: Shortest path by length.
	path, err := e.g.ShortestPath(startSnap.Node, endSnap.Node, e.weight)
	if err != nil {
		if errors.Is(err, graph.ErrNoPath) {
			return nil, fmt.Errorf("%w: %w", ErrNoRoute, err)
		}
		return nil, err
	}

	// Step 3: Instructions, raw and consolidated.
	raw, err := navigation.Instructions(path)
	if err != nil {
		return nil, fmt.Errorf("instructions: %w", err)
	}
	consolidated := navigation.Consolidate(raw)

	return &RouteResult{
		Start:               startSnap,
		End:                 endSnap,
		Nodes:               path.Nodes(),
		Instructions:        raw,
		Consolidated:        consolidated,
		Summary:             navigation.Summarize(raw),
		ConsolidatedSummary: navigation.Summarize(consolidated),
	}, nil
}
