package graph

import (
	"github.com/paulmach/orb"

	"github.com/azybler/roadnav/pkg/shape"
)

// Path is a route through a NavGraph: at least two nodes, the edges joining
// consecutive nodes and the record behind each edge. It borrows the graph
// it came from.
type Path struct {
	g       *NavGraph
	nodes   []NodeID
	edges   []Edge // oriented along the path
	records []shape.Record
	geoms   []orb.LineString // record geometries in travel order
	cost    float64
}

func newPath(g *NavGraph, nodes []NodeID, edgeIdx []uint32, cost float64) *Path {
	p := &Path{
		g:       g,
		nodes:   nodes,
		edges:   make([]Edge, len(edgeIdx)),
		records: make([]shape.Record, len(edgeIdx)),
		geoms:   make([]orb.LineString, len(edgeIdx)),
		cost:    cost,
	}
	for i, ei := range edgeIdx {
		gid := g.edges[ei].GeometryID
		r := g.records[gid]
		p.edges[i] = Edge{Source: nodes[i], Target: nodes[i+1], GeometryID: gid}
		p.records[i] = r
		p.geoms[i] = r.Geometry
		if g.travelsReversed(gid, nodes[i]) {
			p.geoms[i] = r.Geometry.Clone()
			p.geoms[i].Reverse()
		}
	}
	return p
}

// travelsReversed reports whether leaving from node u along geometry gid
// runs against its stored point order. Orientation comes from the merge,
// not from point distances, so chained merges cannot flip it. A self-loop
// runs in stored order unless only reverse travel is allowed.
func (g *NavGraph) travelsReversed(gid int, u NodeID) bool {
	start, end := g.ends[gid][0], g.ends[gid][1]
	if start != end {
		return u != start
	}
	return g.directed && !g.records[gid].Direction.AllowsForward()
}

// Graph returns the graph the path was derived from.
func (p *Path) Graph() *NavGraph { return p.g }

// Len returns the number of nodes.
func (p *Path) Len() int { return len(p.nodes) }

// Nodes returns the node sequence.
func (p *Path) Nodes() []NodeID { return p.nodes }

// Node returns the i-th node. Negative i counts from the end.
func (p *Path) Node(i int) NodeID {
	if i < 0 {
		i += len(p.nodes)
	}
	return p.nodes[i]
}

// NodePosition returns the location of the i-th node.
func (p *Path) NodePosition(i int) orb.Point {
	pos, _ := p.g.NodePosition(p.Node(i))
	return pos
}

// Edges returns the edges in travel order.
func (p *Path) Edges() []Edge { return p.edges }

// Edge returns the edge from node i to node i+1.
func (p *Path) Edge(i int) Edge { return p.edges[i] }

// Records returns the record behind each edge, in travel order.
func (p *Path) Records() []shape.Record { return p.records }

// Record returns the record behind edge i. Negative i counts from the end.
func (p *Path) Record(i int) shape.Record {
	if i < 0 {
		i += len(p.records)
	}
	return p.records[i]
}

// Geometry returns the geometry of edge i with its points in travel order.
// Negative i counts from the end. The result must not be modified.
func (p *Path) Geometry(i int) orb.LineString {
	if i < 0 {
		i += len(p.geoms)
	}
	return p.geoms[i]
}

// Cost returns the total weight the path was found with.
func (p *Path) Cost() float64 { return p.cost }

// PivotAttr returns, for interior node i, the record arriving at the node,
// the node position and the record leaving it.
func (p *Path) PivotAttr(i int) (in shape.Record, pos orb.Point, out shape.Record) {
	return p.records[i-1], p.NodePosition(i), p.records[i]
}
