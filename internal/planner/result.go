package planner

import "railplanner.org/internal/geo"

// Request asks for a route through the stations in order: origin, vias,
// destination. Priority is "optimal", "cost" or "time"; empty means optimal.
type Request struct {
	OriginID      string   `json:"originId"`
	DestinationID string   `json:"destinationId"`
	ViaIDs        []string `json:"viaIds,omitempty"`
	Priority      string   `json:"priority,omitempty"`
	PassIDs       []string `json:"passIds,omitempty"`
}

// Waypoints returns origin, vias and destination in travel order.
func (r Request) Waypoints() []string {
	ids := make([]string, 0, len(r.ViaIDs)+2)
	ids = append(ids, r.OriginID)
	ids = append(ids, r.ViaIDs...)
	return append(ids, r.DestinationID)
}

// Segment is a contiguous run of one line within a leg. Transfer walks form
// their own segments with the line name "Transfer".
type Segment struct {
	Seq          int
	From         string
	To           string
	Fare         float64
	Time         float64
	Distance     float64
	StationCount int
	Operators    []string
	LineName     string
	Coordinates  []geo.Point
	Polyline     string
}

type Summary struct {
	FareTotal     float64
	TimeTotal     float64
	DistanceTotal float64
	Operators     []string
	Passes        []string
}

type StationRef struct {
	ID       string
	Name     string
	Position geo.Point
}

// Result is a composed route. Results may be shared through the cache and
// must be treated as read-only.
type Result struct {
	Segments      []Segment
	Summary       Summary
	Transfers     []StationRef
	RouteStations []StationRef
	// Legs is the number of searched legs; Expansions sums their A* work and
	// is zero when the result came from the cache.
	Legs       int
	Expansions int
	Cached     bool
}
