package graph

import (
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azybler/roadnav/pkg/shape"
)

func TestMinHeap(t *testing.T) {
	var h minHeap

	h.Push(1, 30)
	h.Push(2, 10)
	h.Push(3, 20)
	h.Push(0, 20)

	want := []pqItem{{2, 10}, {0, 20}, {3, 20}, {1, 30}}
	for _, w := range want {
		assert.Equal(t, w, h.Pop())
	}
	assert.Equal(t, 0, h.Len())
}

// detourRecords joins (0,0) and (2,0) two ways: one long edge over a hill,
// or two short edges along the axis.
func detourRecords(t *testing.T) []shape.Record {
	t.Helper()
	return ingest(t,
		rec("HILL ROAD", shape.Both, orb.Point{0, 0}, orb.Point{1, 5}, orb.Point{2, 0}),
		rec("FLAT ROAD", shape.Both, orb.Point{0, 0}, orb.Point{1, 0}),
		rec("FLAT ROAD", shape.Both, orb.Point{1, 0}, orb.Point{2, 0}),
	)
}

func nodeAt(t *testing.T, g *NavGraph, p orb.Point) NodeID {
	t.Helper()
	n, dist, err := g.NearestNode(p)
	require.NoError(t, err)
	require.Zero(t, dist)
	return n
}

func TestShortestPathUnweightedFewestEdges(t *testing.T) {
	g := Build(detourRecords(t), Options{Directed: true})
	path, err := g.ShortestPath(nodeAt(t, g, orb.Point{0, 0}), nodeAt(t, g, orb.Point{2, 0}), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, path.Len())
	assert.Equal(t, "HILL ROAD", path.Record(0).RoadName)
	assert.Equal(t, 1.0, path.Cost())
}

func TestShortestPathWeightedByLength(t *testing.T) {
	g := Build(detourRecords(t), Options{Directed: true})
	require.NoError(t, g.SetEdgeAttribute(LengthAttribute, LengthLabel))
	w, err := g.AttributeWeight(LengthLabel)
	require.NoError(t, err)

	start, end := nodeAt(t, g, orb.Point{0, 0}), nodeAt(t, g, orb.Point{2, 0})
	path, err := g.ShortestPath(start, end, w)
	require.NoError(t, err)

	require.Equal(t, 3, path.Len())
	assert.Equal(t, start, path.Node(0))
	assert.Equal(t, end, path.Node(-1))
	assert.InDelta(t, 2, path.Cost(), 1e-12)
	for i, e := range path.Edges() {
		assert.Equal(t, path.Node(i), e.Source)
		assert.Equal(t, path.Node(i+1), e.Target)
		assert.Equal(t, "FLAT ROAD", path.Record(i).RoadName)
	}

	in, pos, out := path.PivotAttr(1)
	assert.Equal(t, orb.Point{1, 0}, pos)
	assert.Equal(t, 1, in.ID)
	assert.Equal(t, 2, out.ID)
}

func TestShortestPathUndirectedTraversesAgainstStorage(t *testing.T) {
	records := ingest(t,
		rec("ONE WAY", shape.Forward, orb.Point{0, 0}, orb.Point{1, 0}),
	)
	start, end := orb.Point{1, 0}, orb.Point{0, 0}

	directed := Build(records, Options{Directed: true})
	_, err := directed.ShortestPath(nodeAt(t, directed, start), nodeAt(t, directed, end), nil)
	assert.ErrorIs(t, err, ErrNoPath)

	undirected := Build(records, Options{})
	path, err := undirected.ShortestPath(nodeAt(t, undirected, start), nodeAt(t, undirected, end), nil)
	require.NoError(t, err)
	assert.Equal(t, nodeAt(t, undirected, start), path.Edge(0).Source)
}

func TestPathGeometryInTravelOrder(t *testing.T) {
	records := ingest(t,
		rec("A", shape.Both, orb.Point{0, 0}, orb.Point{1, 0}),
		rec("B", shape.Both, orb.Point{2, 0}, orb.Point{1, 0}), // stored end to start
	)
	g := Build(records, Options{})
	path, err := g.ShortestPath(nodeAt(t, g, orb.Point{0, 0}), nodeAt(t, g, orb.Point{2, 0}), nil)
	require.NoError(t, err)

	assert.Equal(t, orb.LineString{{0, 0}, {1, 0}}, path.Geometry(0))
	assert.Equal(t, orb.LineString{{1, 0}, {2, 0}}, path.Geometry(-1))
	// The record itself keeps its stored order.
	assert.Equal(t, orb.LineString{{2, 0}, {1, 0}}, path.Record(1).Geometry)
}

func TestPathGeometryAfterChainedMerge(t *testing.T) {
	// (1,0), (1.008,0) and (1.016,0) merge as a chain into the node at
	// (1.016,0), further than the tolerance from the end of A.
	records := ingest(t,
		rec("X", shape.Forward, orb.Point{1.016, 0}, orb.Point{1.016, 5}),
		rec("Y", shape.Forward, orb.Point{1.008, 0}, orb.Point{1.008, -5}),
		rec("A", shape.Forward, orb.Point{0, 0}, orb.Point{1, 0}),
	)
	g := Build(records, Options{Directed: true})

	aStart, aEnd, err := g.GeometryEnds(2)
	require.NoError(t, err)
	xStart, _, err := g.GeometryEnds(0)
	require.NoError(t, err)
	assert.Equal(t, xStart, aEnd)
	assert.NotEqual(t, aStart, aEnd)
	pos, err := g.NodePosition(aEnd)
	require.NoError(t, err)
	assert.Equal(t, orb.Point{1.016, 0}, pos)

	path, err := g.ShortestPath(aStart, nodeAt(t, g, orb.Point{1.016, 5}), nil)
	require.NoError(t, err)
	assert.Equal(t, orb.LineString{{0, 0}, {1, 0}}, path.Geometry(0))
	assert.Equal(t, orb.LineString{{1.016, 0}, {1.016, 5}}, path.Geometry(1))

	_, _, err = g.GeometryEnds(3)
	assert.ErrorIs(t, err, ErrUnknownEdge)
}

func TestShortestPathDisconnected(t *testing.T) {
	// Facing endpoints 0.02 apart stay two nodes.
	records := ingest(t,
		rec("A", shape.Both, orb.Point{0, 0}, orb.Point{1, 0}),
		rec("B", shape.Both, orb.Point{1.02, 0}, orb.Point{2, 0}),
	)
	g := Build(records, Options{Directed: true})
	_, err := g.ShortestPath(nodeAt(t, g, orb.Point{0, 0}), nodeAt(t, g, orb.Point{2, 0}), nil)
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestShortestPathConnectedWithinTolerance(t *testing.T) {
	records := ingest(t,
		rec("A", shape.Both, orb.Point{0, 0}, orb.Point{1, 0}),
		rec("B", shape.Both, orb.Point{1.005, 0}, orb.Point{2, 0}),
	)
	g := Build(records, Options{Directed: true})
	path, err := g.ShortestPath(nodeAt(t, g, orb.Point{0, 0}), nodeAt(t, g, orb.Point{2, 0}), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, path.Len())
}

func TestShortestPathInvalidNodes(t *testing.T) {
	g := Build(collinearRecords(t), Options{Directed: true})
	first := g.Nodes()[0]

	_, err := g.ShortestPath(first, 999, nil)
	assert.ErrorIs(t, err, ErrUnknownNode)
	_, err = g.ShortestPath(999, first, nil)
	assert.ErrorIs(t, err, ErrUnknownNode)
	_, err = g.ShortestPath(first, first, nil)
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestShortestPathConcurrent(t *testing.T) {
	g := Build(collinearRecords(t), Options{Directed: true})
	require.NoError(t, g.SetEdgeAttribute(LengthAttribute, LengthLabel))
	w, err := g.AttributeWeight(LengthLabel)
	require.NoError(t, err)
	nodes := g.Nodes()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			path, err := g.ShortestPath(nodes[0], nodes[3], w)
			if err == nil && path.Len() != 4 {
				err = ErrNoPath
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}
