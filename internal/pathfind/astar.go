// Package pathfind implements the penalty-aware A* search over the rail graph.
//
// The heuristic is always the haversine distance to the goal in meters, while
// the accumulated cost is in the units of the selected cost function. For the
// distance priority the search is optimal; for fare and time priorities the
// two are in different units and the result is a heuristic approximation, not
// a guaranteed cheapest or fastest path.
package pathfind

import (
	"container/heap"
	"context"

	"railplanner.org/internal/cost"
	"railplanner.org/internal/geo"
	"railplanner.org/internal/graph"
)

const defaultCheckInterval = 1024

type Options struct {
	// Cost converts edge length to search cost. Nil means distance.
	Cost cost.Func
	// Admit filters edges; rejected edges are never relaxed. Nil admits all.
	Admit func(graph.Edge) bool

	OperatorChangePenalty float64
	LineChangePenalty     float64

	// CheckInterval is the number of expansions between context checks.
	CheckInterval int
}

func DefaultOptions() Options {
	return Options{
		OperatorChangePenalty: 500,
		LineChangePenalty:     200,
		CheckInterval:         defaultCheckInterval,
	}
}

// Path is the result of one search. Edges[i] leads from Nodes[i] to
// Nodes[i+1]. A failed search returns a Path with no nodes.
type Path struct {
	Nodes      []graph.NodeID
	Edges      []graph.Edge
	Cost       float64
	Expansions int
}

func (p Path) Found() bool { return len(p.Nodes) > 0 }

// Distance is the real length of the path in meters.
func (p Path) Distance() float64 {
	var d float64
	for _, e := range p.Edges {
		d += e.Distance
	}
	return d
}

type arrival struct {
	from graph.NodeID
	edge graph.Edge
}

// Search finds a path from start to goal. The only error it returns is the
// context's, when ctx ends during the search.
func Search(ctx context.Context, g *graph.Graph, start, goal graph.NodeID, opts Options) (Path, error) {
	costFn := opts.Cost
	if costFn == nil {
		costFn = func(m float64) float64 { return m }
	}
	interval := opts.CheckInterval
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	goalPos := g.Position(goal)
	heuristic := func(n graph.NodeID) float64 {
		return geo.Haversine(g.Position(n), goalPos)
	}

	gScore := map[graph.NodeID]float64{start: 0}
	cameFrom := make(map[graph.NodeID]arrival)
	closed := make(map[graph.NodeID]bool)

	pq := &priorityQueue{}
	heap.Push(pq, &pqItem{node: start, g: 0, priority: heuristic(start)})

	expansions := 0
	for pq.Len() > 0 {
		item := heap.Pop(pq).(*pqItem)
		current := item.node
		if closed[current] || item.g > gScore[current] {
			continue
		}

		if current == goal {
			nodes, edges := reconstructPath(cameFrom, start, goal)
			return Path{Nodes: nodes, Edges: edges, Cost: item.g, Expansions: expansions}, nil
		}
		closed[current] = true

		expansions++
		if expansions%interval == 0 {
			if err := ctx.Err(); err != nil {
				return Path{Expansions: expansions}, err
			}
		}

		incoming, hasIncoming := cameFrom[current]
		for _, e := range g.Edges(current) {
			if closed[e.To] {
				continue
			}
			if opts.Admit != nil && !opts.Admit(e) {
				continue
			}

			step := costFn(e.Distance)
			if hasIncoming {
				if e.OperatorLabel() != incoming.edge.OperatorLabel() {
					step += opts.OperatorChangePenalty
				}
				if e.LineLabel() != incoming.edge.LineLabel() {
					step += opts.LineChangePenalty
				}
			}

			tentative := item.g + step
			if best, seen := gScore[e.To]; seen && tentative >= best {
				continue
			}
			gScore[e.To] = tentative
			cameFrom[e.To] = arrival{from: current, edge: e}
			heap.Push(pq, &pqItem{node: e.To, g: tentative, priority: tentative + heuristic(e.To)})
		}
	}

	return Path{Expansions: expansions}, nil
}

func reconstructPath(cameFrom map[graph.NodeID]arrival, start, goal graph.NodeID) ([]graph.NodeID, []graph.Edge) {
	nodes := []graph.NodeID{goal}
	var edges []graph.Edge
	for current := goal; current != start; {
		a := cameFrom[current]
		edges = append(edges, a.edge)
		nodes = append(nodes, a.from)
		current = a.from
	}

	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}
	return nodes, edges
}

type pqItem struct {
	node     graph.NodeID
	g        float64
	priority float64
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int           { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool { return pq[i].priority < pq[j].priority }
func (pq priorityQueue) Swap(i, j int)      { pq[i], pq[j] = pq[j], pq[i] }

func (pq *priorityQueue) Push(x any) {
	*pq = append(*pq, x.(*pqItem))
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}
