package planner

import (
	"math"

	"github.com/twpayne/go-polyline"

	"railplanner.org/internal/cost"
	"railplanner.org/internal/geo"
	"railplanner.org/internal/graph"
	"railplanner.org/internal/pathfind"
)

// composer accumulates legs into a Result.
type composer struct {
	graph         *graph.Graph
	model         cost.Model
	resolveRadius float64

	segments      []Segment
	transfers     []StationRef
	stations      []StationRef
	operators     []string
	fare          float64
	time          float64
	distance      float64
	legs          int
	expansions    int
	seenTransfers map[string]bool
	seenStations  map[string]bool
	seenOperators map[string]bool
}

func (c *composer) result() *Result {
	return &Result{
		Segments:  c.segments,
		Transfers: c.transfers,
		Summary: Summary{
			FareTotal:     c.fare,
			TimeTotal:     c.time,
			DistanceTotal: c.distance,
			Operators:     c.operators,
		},
		RouteStations: c.stations,
		Legs:          c.legs,
		Expansions:    c.expansions,
	}
}

func (c *composer) addStation(id string) {
	if c.seenStations[id] {
		return
	}
	s, ok := c.graph.Station(id)
	if !ok {
		return
	}
	c.seenStations[id] = true
	c.stations = append(c.stations, StationRef{ID: s.ID, Name: s.Name, Position: s.Position})
}

func (c *composer) addOperator(op string) {
	if c.seenOperators[op] {
		return
	}
	c.seenOperators[op] = true
	c.operators = append(c.operators, op)
}

// addLeg folds one searched leg into the route. Fare and time come from the
// leg's travelled distance.
func (c *composer) addLeg(seq int, fromID, toID string, path pathfind.Path) {
	legDistance := path.Distance()
	c.distance += legDistance
	c.fare += c.model.Fare(legDistance)
	c.time += c.model.Time(legDistance)
	c.legs++
	c.expansions += path.Expansions

	for _, e := range path.Edges {
		if !e.IsTransfer() {
			c.addOperator(e.Operator)
		}
	}
	for _, n := range path.Nodes {
		for _, id := range c.graph.StationsAt(n) {
			c.addStation(id)
		}
	}

	c.splitSegments(seq, fromID, toID, path)
	c.detectTransfers(path)
}

// splitSegments emits one segment per maximal run of edges sharing a line
// label. Adjacent segments share their boundary coordinate, and an internal
// boundary is named after the station resolved for its node, if any.
func (c *composer) splitSegments(seq int, fromID, toID string, path pathfind.Path) {
	last := len(path.Edges) - 1
	start := 0
	for i := range path.Edges {
		if i < last && path.Edges[i+1].LineLabel() == path.Edges[start].LineLabel() {
			continue
		}

		seg := c.segment(path.Nodes[start:i+2], path.Edges[start:i+1])
		seg.Seq = seq
		if start == 0 {
			seg.From = fromID
		} else {
			seg.From = c.resolveStation(path.Nodes[start])
		}
		if i == last {
			seg.To = toID
		} else {
			seg.To = c.resolveStation(path.Nodes[i+1])
		}
		c.segments = append(c.segments, seg)
		start = i + 1
	}
}

func (c *composer) segment(nodes []graph.NodeID, edges []graph.Edge) Segment {
	seg := Segment{LineName: edges[0].LineLabel()}

	seen := make(map[string]bool)
	for _, e := range edges {
		seg.Distance += e.Distance
		if op := e.OperatorLabel(); !seen[op] {
			seen[op] = true
			seg.Operators = append(seg.Operators, op)
		}
	}

	if edges[0].IsTransfer() {
		seg.Time = c.model.Time(seg.Distance)
	} else {
		seg.Fare = c.model.Fare(seg.Distance)
		seg.Time = c.model.Time(seg.Distance)
	}

	seg.Coordinates = make([]geo.Point, len(nodes))
	coords := make([][]float64, len(nodes))
	for i, n := range nodes {
		pos := c.graph.Position(n)
		seg.Coordinates[i] = pos
		coords[i] = []float64{pos.Lat, pos.Lon}
		if c.graph.IsStationNode(n) {
			seg.StationCount++
		}
	}
	seg.Polyline = string(polyline.EncodeCoords(coords))
	return seg
}

// detectTransfers marks internal nodes where the nearest rail edges before
// and after differ in operator or line. A walk between stations reports both
// ends.
func (c *composer) detectTransfers(path pathfind.Path) {
	for k := 1; k < len(path.Nodes)-1; k++ {
		before, ok := prevRailEdge(path.Edges, k-1)
		if !ok {
			continue
		}
		after, ok := nextRailEdge(path.Edges, k)
		if !ok {
			continue
		}
		if before.Operator == after.Operator && before.Line == after.Line {
			continue
		}

		id := c.resolveStation(path.Nodes[k])
		if id == "" || c.seenTransfers[id] {
			continue
		}
		s, _ := c.graph.Station(id)
		c.seenTransfers[id] = true
		c.transfers = append(c.transfers, StationRef{ID: s.ID, Name: s.Name, Position: s.Position})
	}
}

func prevRailEdge(edges []graph.Edge, from int) (graph.Edge, bool) {
	for i := from; i >= 0; i-- {
		if !edges[i].IsTransfer() {
			return edges[i], true
		}
	}
	return graph.Edge{}, false
}

func nextRailEdge(edges []graph.Edge, from int) (graph.Edge, bool) {
	for i := from; i < len(edges); i++ {
		if !edges[i].IsTransfer() {
			return edges[i], true
		}
	}
	return graph.Edge{}, false
}

// stationIDAt returns the first station snapped to n, or "".
func (c *composer) stationIDAt(n graph.NodeID) string {
	if ids := c.graph.StationsAt(n); len(ids) > 0 {
		return ids[0]
	}
	return ""
}

// resolveStation maps n to a station directly, or to the nearest station node
// within the resolve radius. It returns "" when neither exists.
func (c *composer) resolveStation(n graph.NodeID) string {
	if id := c.stationIDAt(n); id != "" {
		return id
	}

	pos := c.graph.Position(n)
	best := ""
	bestDist := math.Inf(1)
	for _, candidate := range c.graph.StationNodesWithin(pos, c.resolveRadius) {
		if d := geo.Haversine(pos, c.graph.Position(candidate)); d < bestDist {
			best, bestDist = c.stationIDAt(candidate), d
		}
	}
	return best
}
