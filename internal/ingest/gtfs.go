package ingest

import (
	"fmt"
	"os"

	"github.com/OneBusAway/go-gtfs"

	"railplanner.org/internal/geo"
)

const (
	locationTypeStop    = 0
	locationTypeStation = 1
)

// LoadGTFS reads a static GTFS zip and converts it with FromStatic.
func LoadGTFS(path string) (*Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read GTFS feed: %w", err)
	}
	static, err := gtfs.ParseStatic(b, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse GTFS feed: %w", err)
	}
	return FromStatic(static), nil
}

// FromStatic derives tracks from trip shapes and stations from stops. Each
// shape is used once, attributed to the first trip that references it.
// Stations are stops of location type 1 plus plain stops without a parent.
func FromStatic(static *gtfs.Static) *Dataset {
	ds := &Dataset{}

	seenShapes := make(map[string]bool)
	for _, trip := range static.Trips {
		if trip.Shape == nil {
			continue
		}
		if seenShapes[trip.Shape.ID] {
			continue
		}
		seenShapes[trip.Shape.ID] = true

		operator, line := routeLabels(trip.Route)
		if operator == "" || len(trip.Shape.Points) < 2 {
			ds.Stats.TracksSkipped++
			continue
		}

		coords := make([]geo.Point, len(trip.Shape.Points))
		for i, p := range trip.Shape.Points {
			coords[i] = geo.Point{Lon: p.Longitude, Lat: p.Latitude}
		}
		ds.Tracks = append(ds.Tracks, Track{Operator: operator, Line: line, Coords: coords})
		ds.Stats.TracksRead++
	}

	for _, stop := range static.Stops {
		standalone := stop.Type == locationTypeStop && stop.Parent == nil
		if stop.Type != locationTypeStation && !standalone {
			continue
		}
		if stop.Id == "" || stop.Latitude == nil || stop.Longitude == nil {
			ds.Stats.StationsSkipped++
			continue
		}
		ds.Stations = append(ds.Stations, Station{
			ID:       stop.Id,
			Name:     stop.Name,
			Position: geo.Point{Lon: *stop.Longitude, Lat: *stop.Latitude},
		})
		ds.Stats.StationsRead++
	}

	return ds
}

func routeLabels(route *gtfs.Route) (operator, line string) {
	if route == nil {
		return "", ""
	}
	if route.Agency != nil {
		operator = route.Agency.Name
	}
	line = route.LongName
	if line == "" {
		line = route.ShortName
	}
	return operator, line
}
