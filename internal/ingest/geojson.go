package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"railplanner.org/internal/appconf"
	"railplanner.org/internal/geo"
)

// LoadGeoJSON reads a track and a station FeatureCollection from disk.
func LoadGeoJSON(tracksPath, stationsPath string, keys appconf.PropertyKeys) (*Dataset, error) {
	trackData, err := readFile(tracksPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}
	stationData, err := readFile(stationsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load stations: %w", err)
	}
	return ParseGeoJSON(trackData, stationData, keys)
}

// ParseGeoJSON parses track and station FeatureCollections.
func ParseGeoJSON(trackData, stationData []byte, keys appconf.PropertyKeys) (*Dataset, error) {
	ds := &Dataset{}

	tracks, err := splitFeatures(trackData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse track collection: %w", err)
	}
	for _, raw := range tracks {
		f, err := geojson.UnmarshalFeature(raw)
		if err != nil {
			ds.Stats.TracksSkipped++
			continue
		}
		ds.addTrackFeature(f, keys)
	}

	stations, err := splitFeatures(stationData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse station collection: %w", err)
	}
	for _, raw := range stations {
		f, err := geojson.UnmarshalFeature(raw)
		if err != nil {
			ds.Stats.StationsSkipped++
			continue
		}
		ds.addStationFeature(f, keys)
	}

	return ds, nil
}

var errNotFeatureCollection = errors.New("not a FeatureCollection")

// splitFeatures returns the undecoded members of a FeatureCollection so a
// malformed feature can be skipped without losing the rest.
func splitFeatures(data []byte) ([]json.RawMessage, error) {
	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, err
	}
	if fc.Type != "FeatureCollection" {
		return nil, errNotFeatureCollection
	}
	return fc.Features, nil
}

func (ds *Dataset) addTrackFeature(f *geojson.Feature, keys appconf.PropertyKeys) {
	operator := property(f.Properties, keys.Operator)
	if f.Geometry == nil || operator == "" {
		ds.Stats.TracksSkipped++
		return
	}
	line := property(f.Properties, keys.Line)

	var lines []orb.LineString
	switch g := f.Geometry.(type) {
	case orb.LineString:
		lines = []orb.LineString{g}
	case orb.MultiLineString:
		lines = g
	default:
		ds.Stats.TracksSkipped++
		return
	}

	for _, ls := range lines {
		if len(ls) < 2 {
			ds.Stats.TracksSkipped++
			continue
		}
		ds.Tracks = append(ds.Tracks, Track{
			Operator: operator,
			Line:     line,
			Coords:   toPoints(ls),
		})
		ds.Stats.TracksRead++
	}
}

func (ds *Dataset) addStationFeature(f *geojson.Feature, keys appconf.PropertyKeys) {
	id := property(f.Properties, keys.StationID)
	if f.Geometry == nil || id == "" {
		ds.Stats.StationsSkipped++
		return
	}

	pos, ok := representativePoint(f.Geometry)
	if !ok {
		ds.Stats.StationsSkipped++
		return
	}

	ds.Stations = append(ds.Stations, Station{
		ID:       id,
		Name:     property(f.Properties, keys.StationName),
		Position: pos,
	})
	ds.Stats.StationsRead++
}

// representativePoint picks the position of a station shape: the point itself,
// or the half-length point of the longest constituent line.
func representativePoint(g orb.Geometry) (geo.Point, bool) {
	switch g := g.(type) {
	case orb.Point:
		return geo.Point{Lon: g[0], Lat: g[1]}, true
	case orb.LineString:
		if len(g) == 0 {
			return geo.Point{}, false
		}
		return geo.PointAlong(toPoints(g), 0.5), true
	case orb.MultiLineString:
		var longest []geo.Point
		longestLen := -1.0
		for _, ls := range g {
			if len(ls) == 0 {
				continue
			}
			pts := toPoints(ls)
			if l := geo.LineLength(pts); l > longestLen {
				longest, longestLen = pts, l
			}
		}
		if longest == nil {
			return geo.Point{}, false
		}
		return geo.PointAlong(longest, 0.5), true
	default:
		return geo.Point{}, false
	}
}

func toPoints(ls orb.LineString) []geo.Point {
	pts := make([]geo.Point, len(ls))
	for i, p := range ls {
		pts[i] = geo.Point{Lon: p[0], Lat: p[1]}
	}
	return pts
}

// property returns the first non-empty value among keys. Numeric identifiers
// are formatted without a trailing fraction.
func property(props geojson.Properties, keys []string) string {
	for _, k := range keys {
		switch v := props[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
