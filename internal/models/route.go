package models

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"railplanner.org/internal/planner"
)

type SummaryModel struct {
	FareTotal     float64  `json:"fareTotal"`
	TimeTotal     float64  `json:"timeTotal"`
	DistanceTotal float64  `json:"distanceTotal"`
	Operators     []string `json:"operators"`
	Passes        []string `json:"passes"`
}

// RouteModel is the JSON form of a planned route. Route holds one LineString
// feature per segment.
type RouteModel struct {
	Route         *geojson.FeatureCollection `json:"route"`
	Summary       SummaryModel               `json:"summary"`
	Transfers     []StationModel             `json:"transfers"`
	RouteStations []StationModel             `json:"routeStations"`
}

func NewRoute(res *planner.Result) RouteModel {
	fc := geojson.NewFeatureCollection()
	for _, seg := range res.Segments {
		fc.Append(newSegmentFeature(seg))
	}

	return RouteModel{
		Route: fc,
		Summary: SummaryModel{
			FareTotal:     res.Summary.FareTotal,
			TimeTotal:     res.Summary.TimeTotal,
			DistanceTotal: res.Summary.DistanceTotal,
			Operators:     nonNil(res.Summary.Operators),
			Passes:        nonNil(res.Summary.Passes),
		},
		Transfers:     newStationRefs(res.Transfers),
		RouteStations: newStationRefs(res.RouteStations),
	}
}

func newSegmentFeature(seg planner.Segment) *geojson.Feature {
	line := make(orb.LineString, len(seg.Coordinates))
	for i, p := range seg.Coordinates {
		line[i] = orb.Point{p.Lon, p.Lat}
	}

	f := geojson.NewFeature(line)
	f.Properties["from"] = seg.From
	f.Properties["to"] = seg.To
	f.Properties["seq"] = seg.Seq
	f.Properties["fare"] = seg.Fare
	f.Properties["time"] = seg.Time
	f.Properties["distance"] = seg.Distance
	f.Properties["stationCount"] = seg.StationCount
	f.Properties["operators"] = nonNil(seg.Operators)
	f.Properties["lineName"] = seg.LineName
	f.Properties["polyline"] = seg.Polyline
	return f
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
