package restapi

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"railplanner.org/internal/geo"
	"railplanner.org/internal/models"
	"railplanner.org/internal/planner"
)

const (
	defaultStationLimit = 500
	maxStationLimit     = 5000
)

// parseBBox parses "minLon,minLat,maxLon,maxLat".
func parseBBox(s string) (geo.Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geo.Bounds{}, errors.New("bbox must be minLon,minLat,maxLon,maxLat")
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return geo.Bounds{}, fmt.Errorf("invalid bbox value %q", p)
		}
		v[i] = f
	}
	b := geo.Bounds{MinLon: v[0], MinLat: v[1], MaxLon: v[2], MaxLat: v[3]}
	if b.MinLon > b.MaxLon || b.MinLat > b.MaxLat {
		return geo.Bounds{}, errors.New("bbox minimum exceeds maximum")
	}
	if b.MinLat < -90 || b.MaxLat > 90 || b.MinLon < -180 || b.MaxLon > 180 {
		return geo.Bounds{}, errors.New("bbox out of range")
	}
	return b, nil
}

func parseLimit(s string) (int, error) {
	if s == "" {
		return defaultStationLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	return min(n, maxStationLimit), nil
}

// stationsHandler lists stations inside ?bbox=, in id order.
func (api *RestAPI) stationsHandler(w http.ResponseWriter, r *http.Request) {
	fieldErrors := make(map[string][]string)

	bbox, err := parseBBox(r.URL.Query().Get("bbox"))
	if err != nil {
		fieldErrors["bbox"] = []string{err.Error()}
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		fieldErrors["limit"] = []string{err.Error()}
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	stations, err := api.Planner.StationsInBounds(r.Context(), bbox, limit+1)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	limitExceeded := len(stations) > limit
	if limitExceeded {
		stations = stations[:limit]
	}
	api.sendResponse(w, r, models.NewListResponse(models.NewStations(stations), limitExceeded, api.Clock))
}

// nearestStationHandler answers ?lat=&lon= with the closest station.
func (api *RestAPI) nearestStationHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pos, err := planner.ParseCoordinate(q.Get("lat") + "," + q.Get("lon"))
	if err != nil {
		api.validationErrorResponse(w, r, map[string][]string{
			"lat": {"lat and lon must be valid coordinates"},
			"lon": {"lat and lon must be valid coordinates"},
		})
		return
	}

	station, err := api.Planner.NearestStation(r.Context(), pos)
	if errors.Is(err, planner.ErrNoStations) {
		api.sendNotFound(w, r)
		return
	}
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(models.NearestStationModel{
		StationModel: models.NewStation(station),
		Distance:     geo.Haversine(pos, station.Position),
	}, api.Clock))
}
