package restapi

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	polyline "github.com/twpayne/go-polyline"

	"railplanner.org/internal/metrics"
)

type routeEntry struct {
	Route struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string      `json:"type"`
				Coordinates [][]float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties struct {
				From         string   `json:"from"`
				To           string   `json:"to"`
				Seq          int      `json:"seq"`
				Fare         float64  `json:"fare"`
				Distance     float64  `json:"distance"`
				StationCount int      `json:"stationCount"`
				Operators    []string `json:"operators"`
				LineName     string   `json:"lineName"`
				Polyline     string   `json:"polyline"`
			} `json:"properties"`
		} `json:"features"`
	} `json:"route"`
	Summary struct {
		FareTotal     float64  `json:"fareTotal"`
		TimeTotal     float64  `json:"timeTotal"`
		DistanceTotal float64  `json:"distanceTotal"`
		Operators     []string `json:"operators"`
		Passes        []string `json:"passes"`
	} `json:"summary"`
	Transfers []struct {
		ID string `json:"id"`
	} `json:"transfers"`
	RouteStations []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"routeStations"`
}

func (e routeEntry) lines() []string {
	out := make([]string, len(e.Route.Features))
	for i, f := range e.Route.Features {
		out[i] = f.Properties.LineName
	}
	return out
}

func (e routeEntry) seqs() []int {
	out := make([]int, len(e.Route.Features))
	for i, f := range e.Route.Features {
		out[i] = f.Properties.Seq
	}
	return out
}

func (e routeEntry) transferIDs() []string {
	out := make([]string, len(e.Transfers))
	for i, s := range e.Transfers {
		out[i] = s.ID
	}
	return out
}

func (e routeEntry) stationIDs() []string {
	out := make([]string, len(e.RouteStations))
	for i, s := range e.RouteStations {
		out[i] = s.ID
	}
	return out
}

func routeQuery(params url.Values) string {
	params.Set("key", testAPIKey)
	return "/api/routes?" + params.Encode()
}

func TestRouteHandler_SingleLine(t *testing.T) {
	server := createTestServer(t, createTestApi(t))

	resp, model := serveAndRetrieveEndpoint(t, server, http.MethodGet,
		routeQuery(url.Values{"origin": {"tokyo"}, "destination": {"shinjuku"}}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 200, model.Code)
	assert.Equal(t, "OK", model.Text)
	assert.Equal(t, testNow.UnixMilli(), model.CurrentTime)

	var entry routeEntry
	decodeEntry(t, model.Data, &entry)

	assert.Equal(t, "FeatureCollection", entry.Route.Type)
	require.Len(t, entry.Route.Features, 1)
	seg := entry.Route.Features[0]
	assert.Equal(t, "LineString", seg.Geometry.Type)
	assert.Len(t, seg.Geometry.Coordinates, 5)
	assert.Equal(t, "tokyo", seg.Properties.From)
	assert.Equal(t, "shinjuku", seg.Properties.To)
	assert.Equal(t, "Chuo", seg.Properties.LineName)
	assert.Equal(t, []string{"JR East"}, seg.Properties.Operators)
	assert.Equal(t, 5, seg.Properties.StationCount)

	coords, rest, err := polyline.DecodeCoords([]byte(seg.Properties.Polyline))
	require.NoError(t, err)
	assert.Empty(t, rest)
	require.Len(t, coords, 5)
	assert.InDelta(t, 35.6812, coords[0][0], 1e-5)
	assert.InDelta(t, 139.7671, coords[0][1], 1e-5)

	assert.Equal(t, []string{"tokyo", "kanda", "ochanomizu", "yotsuya", "shinjuku"}, entry.stationIDs())
	assert.Empty(t, entry.Transfers)
	assert.Equal(t, []string{"JR East"}, entry.Summary.Operators)
	assert.Equal(t, []string{"Japan Rail Pass (7 days)", "JR Tokyo Wide Pass"}, entry.Summary.Passes)
	assert.InDelta(t, seg.Properties.Distance, entry.Summary.DistanceTotal, 1e-6)
	assert.InDelta(t, 150+20*entry.Summary.DistanceTotal/1000, entry.Summary.FareTotal, 1e-6)
	assert.InDelta(t, entry.Summary.DistanceTotal/1000/40*60, entry.Summary.TimeTotal, 1e-6)
}

func TestRouteHandler_TransferBetweenOperators(t *testing.T) {
	server := createTestServer(t, createTestApi(t))

	resp, model := serveAndRetrieveEndpoint(t, server, http.MethodGet,
		routeQuery(url.Values{"origin": {"shinjuku"}, "destination": {"kasumigaseki"}}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entry routeEntry
	decodeEntry(t, model.Data, &entry)

	assert.Equal(t, []string{"Chuo", "Marunouchi"}, entry.lines())
	assert.Equal(t, "tokyo", entry.Route.Features[0].Properties.To)
	assert.Equal(t, "tokyo", entry.Route.Features[1].Properties.From)
	assert.Equal(t, []string{"tokyo"}, entry.transferIDs())
	assert.Equal(t, []string{"JR East", "Tokyo Metro"}, entry.Summary.Operators)
	assert.Empty(t, entry.Summary.Passes, "no single pass covers both operators")
}

func TestRouteHandler_ViaStation(t *testing.T) {
	server := createTestServer(t, createTestApi(t))

	resp, model := serveAndRetrieveEndpoint(t, server, http.MethodGet,
		routeQuery(url.Values{"origin": {"tokyo"}, "destination": {"shinagawa"}, "via": {"kanda"}}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entry routeEntry
	decodeEntry(t, model.Data, &entry)

	assert.Equal(t, []int{0, 1, 1}, entry.seqs())
	assert.Equal(t, []string{"Chuo", "Chuo", "Yamanote"}, entry.lines())
	assert.Equal(t, []string{"tokyo"}, entry.transferIDs())
}

func TestRouteHandler_PassSelectsService(t *testing.T) {
	server := createTestServer(t, createTestApi(t))

	testCases := []struct {
		name   string
		passes []string
		want   string
	}{
		{name: "no pass avoids bullet lines", want: "Yamanote"},
		{name: "rail pass rides the shinkansen", passes: []string{"jr-pass-7"}, want: "Tokaido Shinkansen"},
		{name: "regional pass", passes: []string{"tokyo-wide"}, want: "Yamanote"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			params := url.Values{"origin": {"tokyo"}, "destination": {"shinagawa"}}
			if len(tc.passes) > 0 {
				params.Set("passes", tc.passes[0])
			}
			resp, model := serveAndRetrieveEndpoint(t, server, http.MethodGet, routeQuery(params), "")
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var entry routeEntry
			decodeEntry(t, model.Data, &entry)
			assert.Equal(t, []string{tc.want}, entry.lines())
		})
	}
}

func TestRouteHandler_CoordinateWaypoint(t *testing.T) {
	server := createTestServer(t, createTestApi(t))

	resp, model := serveAndRetrieveEndpoint(t, server, http.MethodGet,
		routeQuery(url.Values{"origin": {"35.6813,139.7672"}, "destination": {"shinjuku"}}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entry routeEntry
	decodeEntry(t, model.Data, &entry)
	require.Len(t, entry.Route.Features, 1)
	assert.Equal(t, "tokyo", entry.Route.Features[0].Properties.From)
}

func TestRouteHandler_PostBody(t *testing.T) {
	server := createTestServer(t, createTestApi(t))

	body := `{"originId":"shinjuku","destinationId":"shinagawa","viaIds":["tokyo"],"priority":"time","passIds":["tokyo-wide"]}`
	resp, model := serveAndRetrieveEndpoint(t, server, http.MethodPost, "/api/routes?key="+testAPIKey, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entry routeEntry
	decodeEntry(t, model.Data, &entry)
	assert.Equal(t, []int{0, 1}, entry.seqs())
	assert.Equal(t, []string{"Chuo", "Yamanote"}, entry.lines())
	assert.Equal(t, []string{"JR Tokyo Wide Pass"}, entry.Summary.Passes)
}

func TestRouteHandler_Errors(t *testing.T) {
	api := createTestApi(t)
	server := createTestServer(t, api)

	testCases := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantText   string
	}{
		{
			name:       "missing destination",
			method:     http.MethodGet,
			path:       routeQuery(url.Values{"origin": {"tokyo"}}),
			wantStatus: http.StatusBadRequest,
			wantText:   "invalid request",
		},
		{
			name:       "unknown station",
			method:     http.MethodGet,
			path:       routeQuery(url.Values{"origin": {"tokyo"}, "destination": {"atlantis"}}),
			wantStatus: http.StatusBadRequest,
			wantText:   "Unknown station id",
		},
		{
			name:       "unknown pass",
			method:     http.MethodGet,
			path:       routeQuery(url.Values{"origin": {"tokyo"}, "destination": {"kanda"}, "passes": {"golden-ticket"}}),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid priority",
			method:     http.MethodGet,
			path:       routeQuery(url.Values{"origin": {"tokyo"}, "destination": {"kanda"}, "priority": {"scenery"}}),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "coordinate out of range",
			method:     http.MethodGet,
			path:       routeQuery(url.Values{"origin": {"95,139"}, "destination": {"kanda"}}),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "NaN coordinate",
			method:     http.MethodGet,
			path:       routeQuery(url.Values{"origin": {"NaN,NaN"}, "destination": {"kanda"}}),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "pass without a usable line",
			method:     http.MethodGet,
			path:       routeQuery(url.Values{"origin": {"tokyo"}, "destination": {"shinagawa"}, "passes": {"subway-72h"}}),
			wantStatus: http.StatusNotFound,
			wantText:   "No path found between tokyo and shinagawa",
		},
		{
			name:       "disconnected network",
			method:     http.MethodGet,
			path:       routeQuery(url.Values{"origin": {"tokyo"}, "destination": {"enoshima"}}),
			wantStatus: http.StatusNotFound,
			wantText:   "No path found between tokyo and enoshima",
		},
		{
			name:       "malformed body",
			method:     http.MethodPost,
			path:       "/api/routes?key=" + testAPIKey,
			body:       `{"originId":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown body field",
			method:     http.MethodPost,
			path:       "/api/routes?key=" + testAPIKey,
			body:       `{"originId":"tokyo","destinationId":"kanda","date":"tomorrow"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing key",
			method:     http.MethodGet,
			path:       "/api/routes?origin=tokyo&destination=kanda",
			wantStatus: http.StatusUnauthorized,
			wantText:   "permission denied",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, model := serveAndRetrieveEndpoint(t, server, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			assert.Equal(t, tc.wantStatus, model.Code)
			if tc.wantText != "" {
				assert.Equal(t, tc.wantText, model.Text)
			}
		})
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(api.Metrics.RouteRequestsTotal.WithLabelValues(metrics.OutcomeNoPath)))
	assert.Equal(t, 8.0, testutil.ToFloat64(api.Metrics.RouteRequestsTotal.WithLabelValues(metrics.OutcomeBadRequest)))
}

func TestRouteHandler_RecordsFoundOutcome(t *testing.T) {
	api := createTestApi(t)
	server := createTestServer(t, api)

	resp, _ := serveAndRetrieveEndpoint(t, server, http.MethodGet,
		routeQuery(url.Values{"origin": {"tokyo"}, "destination": {"kanda"}}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 1.0, testutil.ToFloat64(api.Metrics.RouteRequestsTotal.WithLabelValues(metrics.OutcomeFound)))
}

func TestRouteHandler_CachedRouteSkipsExpansions(t *testing.T) {
	api := createTestApi(t)
	server := createTestServer(t, api)

	path := routeQuery(url.Values{"origin": {"tokyo"}, "destination": {"shinjuku"}})
	for i := 0; i < 2; i++ {
		resp, _ := serveAndRetrieveEndpoint(t, server, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(api.Metrics.RouteRequestsTotal.WithLabelValues(metrics.OutcomeFound)))

	families, err := api.Metrics.Registry.Gather()
	require.NoError(t, err)
	var samples uint64
	for _, f := range families {
		if f.GetName() == "railplanner_route_astar_expansions" {
			samples = f.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(1), samples, "only the first request searched")
}

func TestSplitList(t *testing.T) {
	testCases := []struct {
		name   string
		values []string
		want   []string
	}{
		{name: "empty", values: nil, want: nil},
		{name: "comma separated", values: []string{"a, b,,c"}, want: []string{"a", "b", "c"}},
		{name: "repeated", values: []string{"a", "b"}, want: []string{"a", "b"}},
		{name: "single coordinate", values: []string{"35.68,139.76"}, want: []string{"35.68,139.76"}},
		{name: "coordinate list", values: []string{"35.68,139.76;kanda"}, want: []string{"35.68,139.76", "kanda"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, splitList(tc.values))
		})
	}
}
