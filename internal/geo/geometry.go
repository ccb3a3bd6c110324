// Package geo holds the geographic primitives shared by the routing core.
// Every distance in the planner is a haversine distance computed here.
package geo

import "math"

const (
	// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
	EarthRadiusMeters = 6371000.0

	// MetersPerDegree is the length of one degree of latitude (1° ≈ 111.32 km).
	MetersPerDegree = 111320.0
)

// Point is a WGS84 position. Longitude comes first, matching GeoJSON ordering.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Bounds represents a bounding box with min/max latitude and longitude
type Bounds struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLon float64 `json:"minLon"`
	MaxLon float64 `json:"maxLon"`
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Haversine returns the great-circle distance between a and b in meters.
func Haversine(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLon := toRadians(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	if h > 1 {
		h = 1
	}

	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// LineLength sums the haversine length of consecutive pairs.
func LineLength(line []Point) float64 {
	total := 0.0
	for i := 1; i < len(line); i++ {
		total += Haversine(line[i-1], line[i])
	}
	return total
}

// PointAlong returns the point located at the given fraction (0..1) of the
// line's length, interpolating linearly inside the containing pair.
// An empty line yields the zero Point.
func PointAlong(line []Point, fraction float64) Point {
	if len(line) == 0 {
		return Point{}
	}
	if len(line) == 1 || fraction <= 0 {
		return line[0]
	}
	if fraction >= 1 {
		return line[len(line)-1]
	}

	target := LineLength(line) * fraction
	walked := 0.0
	for i := 1; i < len(line); i++ {
		step := Haversine(line[i-1], line[i])
		if step > 0 && walked+step >= target {
			t := (target - walked) / step
			return Point{
				Lon: line[i-1].Lon + (line[i].Lon-line[i-1].Lon)*t,
				Lat: line[i-1].Lat + (line[i].Lat-line[i-1].Lat)*t,
			}
		}
		walked += step
	}
	return line[len(line)-1]
}

// CalculateBounds returns the box of the given radius in meters around a point.
func CalculateBounds(p Point, distance float64) Bounds {
	latRadians := toRadians(p.Lat)
	lonRadians := toRadians(p.Lon)

	latOffset := distance / EarthRadiusMeters
	lonOffset := distance / (math.Cos(latRadians) * EarthRadiusMeters)

	return Bounds{
		MinLat: (latRadians - latOffset) * 180 / math.Pi,
		MaxLat: (latRadians + latOffset) * 180 / math.Pi,
		MinLon: (lonRadians - lonOffset) * 180 / math.Pi,
		MaxLon: (lonRadians + lonOffset) * 180 / math.Pi,
	}
}

// Contains reports whether p lies inside b, edges inclusive.
func (b Bounds) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// IsOutOfBounds returns true only if the inner bounds have no overlap
// with the outer bounds.
func IsOutOfBounds(inner, outer Bounds) bool {
	return inner.MaxLat < outer.MinLat ||
		inner.MinLat > outer.MaxLat ||
		inner.MaxLon < outer.MinLon ||
		inner.MinLon > outer.MaxLon
}
