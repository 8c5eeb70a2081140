package graph

import (
	"errors"
	"math"
)

// ErrNoPath is returned when the end node cannot be reached from the start node.
var ErrNoPath = errors.New("no path between nodes")

const noNode = ^uint32(0) // sentinel for "no node"

// WeightFunc returns the non-negative traversal cost of the edge at index
// edge in Edges() order.
type WeightFunc func(edge int) float64

// minHeap is a concrete-typed min-heap for the Dijkstra priority queue.
// Avoids interface boxing overhead of container/heap.
type minHeap struct {
	items []pqItem
}

// pqItem is a priority queue entry.
type pqItem struct {
	node uint32
	dist float64
}

// less orders by distance, then by node index so equal-cost searches are
// deterministic.
func (a pqItem) less(b pqItem) bool {
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return a.node < b.node
}

func (h *minHeap) Len() int { return len(h.items) }

func (h *minHeap) Push(node uint32, dist float64) {
	h.items = append(h.items, pqItem{node, dist})
	h.siftUp(len(h.items) - 1)
}

func (h *minHeap) Pop() pqItem {
	n := len(h.items)
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return item
}

func (h *minHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.items[i].less(h.items[parent]) {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *minHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2
		if left < n && h.items[left].less(h.items[smallest]) {
			smallest = left
		}
		if right < n && h.items[right].less(h.items[smallest]) {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}

// ShortestPath returns the cheapest path from start to end. A nil weight
// counts every edge as 1, giving the path with the fewest edges. Among
// equal-cost alternatives the first relaxation found wins.
//
// Each call allocates its own search state, so concurrent calls on a shared
// graph are safe.
func (g *NavGraph) ShortestPath(start, end NodeID, weight WeightFunc) (*Path, error) {
	s, ok := g.index[start]
	if !ok {
		return nil, ErrUnknownNode
	}
	t, ok := g.index[end]
	if !ok {
		return nil, ErrUnknownNode
	}
	if s == t {
		// A path needs at least one edge.
		return nil, ErrNoPath
	}
	if weight == nil {
		weight = func(int) float64 { return 1 }
	}

	n := len(g.nodes)
	dist := make([]float64, n)
	predNode := make([]uint32, n)
	predEdge := make([]uint32, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		predNode[i] = noNode
	}
	dist[s] = 0

	var pq minHeap
	pq.Push(s, 0)
	for pq.Len() > 0 {
		item := pq.Pop()
		u := item.node
		if item.dist > dist[u] {
			continue // stale entry
		}
		if u == t {
			break
		}
		for a := g.firstOut[u]; a < g.firstOut[u+1]; a++ {
			v := g.adjHead[a]
			newDist := item.dist + weight(int(g.adjEdge[a]))
			if newDist < dist[v] {
				dist[v] = newDist
				predNode[v] = u
				predEdge[v] = g.adjEdge[a]
				pq.Push(v, newDist)
			}
		}
	}

	if math.IsInf(dist[t], 1) {
		return nil, ErrNoPath
	}

	// Walk predecessors back from the end node.
	var dense, edgeIdx []uint32
	for v := t; v != s; v = predNode[v] {
		dense = append(dense, v)
		edgeIdx = append(edgeIdx, predEdge[v])
	}
	dense = append(dense, s)
	for i, j := 0, len(dense)-1; i < j; i, j = i+1, j-1 {
		dense[i], dense[j] = dense[j], dense[i]
	}
	for i, j := 0, len(edgeIdx)-1; i < j; i, j = i+1, j-1 {
		edgeIdx[i], edgeIdx[j] = edgeIdx[j], edgeIdx[i]
	}

	nodes := make([]NodeID, len(dense))
	for i, d := range dense {
		nodes[i] = g.nodes[d]
	}
	return newPath(g, nodes, edgeIdx, dist[t]), nil
}
