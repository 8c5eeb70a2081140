package graph

import (
	"errors"

	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"

	"github.com/azybler/roadnav/pkg/shape"
)

var (
	// ErrUnknownNode is returned when a node ID is not part of the graph.
	ErrUnknownNode = errors.New("unknown node")
	// ErrUnknownEdge is returned when no edge joins the requested nodes.
	ErrUnknownEdge = errors.New("unknown edge")
	// ErrEmptyGraph is returned by spatial queries on a graph with no nodes.
	ErrEmptyGraph = errors.New("empty graph")
)

// NodeID is the canonical terminal id a node was merged into.
type NodeID uint32

// Edge joins two nodes and references the geometry it was built from.
type Edge struct {
	Source     NodeID
	Target     NodeID
	GeometryID int
}

// NavGraph is a navigation graph over road geometries. Nodes are merged
// geometry endpoints and every edge carries exactly one geometry id.
//
// A NavGraph is read-only once built, except SetEdgeAttribute, which must
// complete before the graph is shared between goroutines.
type NavGraph struct {
	directed bool
	records  []shape.Record
	ends     [][2]NodeID // per record: nodes its first and last point merged into

	nodes []NodeID          // dense index -> node id, in first-appearance order
	index map[NodeID]uint32 // node id -> dense index
	pos   []orb.Point       // len: len(nodes)
	edges []Edge

	// CSR adjacency over dense indices.
	// firstOut[i]..firstOut[i+1] index into adjHead/adjEdge for arcs leaving node i.
	firstOut []uint32
	adjHead  []uint32
	adjEdge  []uint32

	pairEdge map[[2]NodeID]int // first edge per ordered node pair
	tree     rtree.RTreeG[uint32]
	attrs    map[string][]float64
}

// newNavGraph assembles the adjacency, edge lookup and spatial index for
// an already computed set of nodes and edges.
func newNavGraph(records []shape.Record, ends [][2]NodeID, directed bool, nodes []NodeID, pos []orb.Point, edges []Edge) *NavGraph {
	g := &NavGraph{
		directed: directed,
		records:  records,
		ends:     ends,
		nodes:    nodes,
		index:    make(map[NodeID]uint32, len(nodes)),
		pos:      pos,
		edges:    edges,
		pairEdge: make(map[[2]NodeID]int, len(edges)),
		attrs:    make(map[string][]float64),
	}
	for i, n := range nodes {
		g.index[n] = uint32(i)
	}

	type arc struct{ from, to, edge uint32 }
	arcs := make([]arc, 0, 2*len(edges))
	for ei, e := range edges {
		u, v := g.index[e.Source], g.index[e.Target]
		arcs = append(arcs, arc{u, v, uint32(ei)})
		g.addPair(e.Source, e.Target, ei)
		if !directed && u != v {
			arcs = append(arcs, arc{v, u, uint32(ei)})
			g.addPair(e.Target, e.Source, ei)
		}
	}

	// Counting sort keeps arcs of a node in edge order.
	numNodes := uint32(len(nodes))
	g.firstOut = make([]uint32, numNodes+1)
	for _, a := range arcs {
		g.firstOut[a.from+1]++
	}
	for i := uint32(1); i <= numNodes; i++ {
		g.firstOut[i] += g.firstOut[i-1]
	}
	g.adjHead = make([]uint32, len(arcs))
	g.adjEdge = make([]uint32, len(arcs))
	next := make([]uint32, numNodes)
	copy(next, g.firstOut[:numNodes])
	for _, a := range arcs {
		g.adjHead[next[a.from]] = a.to
		g.adjEdge[next[a.from]] = a.edge
		next[a.from]++
	}

	for i, p := range pos {
		g.tree.Insert([2]float64(p), [2]float64(p), uint32(i))
	}
	return g
}

func (g *NavGraph) addPair(u, v NodeID, edge int) {
	key := [2]NodeID{u, v}
	if _, ok := g.pairEdge[key]; !ok {
		g.pairEdge[key] = edge
	}
}

// Directed reports whether edges may only be traversed source to target.
func (g *NavGraph) Directed() bool { return g.directed }

// NumNodes returns the number of nodes.
func (g *NavGraph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the number of edges.
func (g *NavGraph) NumEdges() int { return len(g.edges) }

// Nodes returns node ids in graph order. The slice must not be modified.
func (g *NavGraph) Nodes() []NodeID { return g.nodes }

// Edges returns edges in iteration order. Edge attributes are aligned to
// this order. The slice must not be modified.
func (g *NavGraph) Edges() []Edge { return g.edges }

// Records returns the records the graph was built from.
func (g *NavGraph) Records() []shape.Record { return g.records }

// HasNode reports whether n is a node of the graph.
func (g *NavGraph) HasNode(n NodeID) bool {
	_, ok := g.index[n]
	return ok
}

// NodePosition returns the location of node n.
func (g *NavGraph) NodePosition(n NodeID) (orb.Point, error) {
	i, ok := g.index[n]
	if !ok {
		return orb.Point{}, ErrUnknownNode
	}
	return g.pos[i], nil
}

// EdgeGeometryID returns the geometry id of the edge from u to v. In an
// undirected graph the edge may be given in either orientation.
func (g *NavGraph) EdgeGeometryID(u, v NodeID) (int, error) {
	ei, ok := g.pairEdge[[2]NodeID{u, v}]
	if !ok {
		return 0, ErrUnknownEdge
	}
	return g.edges[ei].GeometryID, nil
}

// GeometryEnds returns the nodes the first and last point of geometry gid
// were merged into.
func (g *NavGraph) GeometryEnds(gid int) (start, end NodeID, err error) {
	if gid < 0 || gid >= len(g.ends) {
		return 0, 0, ErrUnknownEdge
	}
	return g.ends[gid][0], g.ends[gid][1], nil
}

// EdgeRecord returns the record the edge from u to v was built from.
func (g *NavGraph) EdgeRecord(u, v NodeID) (shape.Record, error) {
	gid, err := g.EdgeGeometryID(u, v)
	if err != nil {
		return shape.Record{}, err
	}
	return g.records[gid], nil
}
