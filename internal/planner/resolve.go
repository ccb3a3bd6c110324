package planner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"railplanner.org/internal/geo"
	"railplanner.org/internal/graph"
)

var errNotCoordinate = errors.New("not a coordinate")

// ParseCoordinate parses a "lat,lon" string.
func ParseCoordinate(s string) (geo.Point, error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return geo.Point{}, errNotCoordinate
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return geo.Point{}, errNotCoordinate
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return geo.Point{}, errNotCoordinate
	}
	if !finite(lat) || !finite(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return geo.Point{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, s)
	}
	return geo.Point{Lon: lon, Lat: lat}, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// NearestStation returns the station whose node is closest to p.
func (p *Planner) NearestStation(ctx context.Context, pos geo.Point) (graph.Station, error) {
	g, err := p.graphs.Get(ctx)
	if err != nil {
		return graph.Station{}, err
	}
	n, ok := g.NearestStationNode(pos)
	if !ok {
		return graph.Station{}, ErrNoStations
	}
	ids := g.StationsAt(n)
	if len(ids) == 0 {
		return graph.Station{}, ErrNoStations
	}
	s, _ := g.Station(ids[0])
	return s, nil
}

// ResolveWaypoints replaces "lat,lon" entries with the id of the nearest
// station. Other entries are returned unchanged.
func (p *Planner) ResolveWaypoints(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return ids, nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		pos, err := ParseCoordinate(id)
		if errors.Is(err, errNotCoordinate) {
			out[i] = id
			continue
		}
		if err != nil {
			return nil, err
		}
		s, err := p.NearestStation(ctx, pos)
		if err != nil {
			return nil, err
		}
		out[i] = s.ID
	}
	return out, nil
}

// ResolveRequest applies ResolveWaypoints to every waypoint of req.
func (p *Planner) ResolveRequest(ctx context.Context, req Request) (Request, error) {
	ids, err := p.ResolveWaypoints(ctx, req.Waypoints())
	if err != nil {
		return Request{}, err
	}
	req.OriginID = ids[0]
	req.DestinationID = ids[len(ids)-1]
	if len(req.ViaIDs) > 0 {
		req.ViaIDs = ids[1 : len(ids)-1]
	}
	return req, nil
}

// StationsInBounds lists the stations inside b in id order, at most limit
// when limit > 0.
func (p *Planner) StationsInBounds(ctx context.Context, b geo.Bounds, limit int) ([]graph.Station, error) {
	g, err := p.graphs.Get(ctx)
	if err != nil {
		return nil, err
	}
	return g.StationsInBounds(b, limit), nil
}
