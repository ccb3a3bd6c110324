package models

import (
	"railplanner.org/internal/geo"
	"railplanner.org/internal/graph"
	"railplanner.org/internal/planner"
)

// Position is serialized latitude first, the way clients display it.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func NewPosition(p geo.Point) Position {
	return Position{Lat: p.Lat, Lon: p.Lon}
}

type StationModel struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Position Position `json:"position"`
}

func NewStation(s graph.Station) StationModel {
	return StationModel{ID: s.ID, Name: s.Name, Position: NewPosition(s.Position)}
}

func NewStations(stations []graph.Station) []StationModel {
	out := make([]StationModel, len(stations))
	for i, s := range stations {
		out[i] = NewStation(s)
	}
	return out
}

func newStationRefs(refs []planner.StationRef) []StationModel {
	out := make([]StationModel, len(refs))
	for i, r := range refs {
		out[i] = StationModel{ID: r.ID, Name: r.Name, Position: NewPosition(r.Position)}
	}
	return out
}

// NearestStationModel answers a coordinate lookup with the station found and
// its distance from the query point in meters.
type NearestStationModel struct {
	StationModel
	Distance float64 `json:"distance"`
}
