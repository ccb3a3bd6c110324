// Package graph holds the routing graph: a node arena addressed by NodeID,
// directed adjacency lists of tagged rail and transfer edges, the station
// mappings and the spatial indexes used to snap positions onto the graph.
package graph

import (
	"railplanner.org/internal/geo"
	"railplanner.org/internal/spatial"
)

// NodeID indexes the node arena.
type NodeID int

type EdgeKind uint8

const (
	Rail EdgeKind = iota
	Transfer
)

// TransferLabel stands in for the operator and line of transfer edges
// wherever a string label is needed.
const TransferLabel = "Transfer"

func (k EdgeKind) String() string {
	if k == Transfer {
		return "transfer"
	}
	return "rail"
}

// Edge is a directed arc. Operator and Line are only set on rail edges.
type Edge struct {
	To       NodeID
	Distance float64
	Kind     EdgeKind
	Operator string
	Line     string
}

func (e Edge) IsTransfer() bool { return e.Kind == Transfer }

func (e Edge) OperatorLabel() string {
	if e.Kind == Transfer {
		return TransferLabel
	}
	return e.Operator
}

func (e Edge) LineLabel() string {
	if e.Kind == Transfer {
		return TransferLabel
	}
	return e.Line
}

type Station struct {
	ID       string
	Name     string
	Position geo.Point
	Node     NodeID
}

type Stats struct {
	Nodes         int `json:"nodes"`
	RailEdges     int `json:"railEdges"`
	TransferEdges int `json:"transferEdges"`
	Stations      int `json:"stations"`
	StationNodes  int `json:"stationNodes"`
}

// Edges is the directed edge count.
func (s Stats) Edges() int { return s.RailEdges + s.TransferEdges }

// Graph is immutable once Build returns and safe for concurrent readers.
type Graph struct {
	positions []geo.Point
	adjacency [][]Edge

	stations     map[string]*Station
	stationOrder []string
	nodeStations map[NodeID][]string

	nodeIndex    *spatial.Grid
	stationIndex *spatial.Grid
	stationTree  spatial.StationTree

	stats Stats
}

func (g *Graph) Stats() Stats { return g.stats }

func (g *Graph) NodeCount() int { return len(g.positions) }

func (g *Graph) Position(n NodeID) geo.Point { return g.positions[n] }

// Edges returns the outgoing edges of n. The slice must not be modified.
func (g *Graph) Edges(n NodeID) []Edge { return g.adjacency[n] }

func (g *Graph) Station(id string) (Station, bool) {
	s, ok := g.stations[id]
	if !ok {
		return Station{}, false
	}
	return *s, true
}

// Stations lists stations in ingestion order.
func (g *Graph) Stations() []Station {
	out := make([]Station, 0, len(g.stationOrder))
	for _, id := range g.stationOrder {
		out = append(out, *g.stations[id])
	}
	return out
}

// StationsAt returns the ids of stations snapped to n, in ingestion order.
func (g *Graph) StationsAt(n NodeID) []string { return g.nodeStations[n] }

func (g *Graph) IsStationNode(n NodeID) bool { return len(g.nodeStations[n]) > 0 }

// NearestNode snaps p to the closest graph node.
func (g *Graph) NearestNode(p geo.Point) (NodeID, bool) {
	id, ok := g.nodeIndex.Nearest(p)
	return NodeID(id), ok
}

// NearestStationNode returns the station node closest to p.
func (g *Graph) NearestStationNode(p geo.Point) (NodeID, bool) {
	id, ok := g.stationIndex.Nearest(p)
	return NodeID(id), ok
}

// StationNodesWithin returns the station nodes within meters of p.
func (g *Graph) StationNodesWithin(p geo.Point, meters float64) []NodeID {
	ids := g.stationIndex.WithinRadius(p, meters)
	out := make([]NodeID, len(ids))
	for i, id := range ids {
		out[i] = NodeID(id)
	}
	return out
}

// StationsInBounds lists the stations inside b ordered by id.
func (g *Graph) StationsInBounds(b geo.Bounds, limit int) []Station {
	ids := g.stationTree.InBounds(b, limit)
	out := make([]Station, 0, len(ids))
	for _, id := range ids {
		out = append(out, *g.stations[id])
	}
	return out
}
