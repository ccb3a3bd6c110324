package planner

import (
	"errors"
	"fmt"
)

// ErrUnknownStation is returned before any search when a waypoint id does not
// name a station of the graph.
var ErrUnknownStation = errors.New("unknown station id")

// ErrInvalidCoordinate is returned for "lat,lon" waypoints outside the valid
// latitude and longitude ranges.
var ErrInvalidCoordinate = errors.New("coordinate out of range")

// ErrNoStations is returned by coordinate lookups on a graph without stations.
var ErrNoStations = errors.New("no stations loaded")

// NoPathError reports a leg whose search exhausted the graph, after the
// unrestricted retry when no passes were requested.
type NoPathError struct {
	From string
	To   string
}

func (e *NoPathError) Error() string {
	return fmt.Sprintf("No path found between %s and %s", e.From, e.To)
}
