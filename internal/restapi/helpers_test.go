package restapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"railplanner.org/internal/app"
	"railplanner.org/internal/appconf"
	"railplanner.org/internal/clock"
	"railplanner.org/internal/graph"
	"railplanner.org/internal/metrics"
	"railplanner.org/internal/passdb"
	"railplanner.org/internal/planner"
)

const testAPIKey = "TEST"

var testNow = time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)

func testDataConfig() appconf.DataConfig {
	return appconf.DataConfig{
		Tracks:   "../../testdata/tracks.geojson",
		Stations: "../../testdata/stations.geojson",
		Passes:   "../../testdata/passes.json",
		Keys:     appconf.DefaultPropertyKeys(),
	}
}

// createTestApplication wires the Tokyo test network with a pre-built graph
// and an in-memory pass catalog.
func createTestApplication(t *testing.T) *app.Application {
	t.Helper()

	dataCfg := testDataConfig()
	routingCfg := appconf.DefaultRoutingConfig()

	db, err := passdb.NewClient(passdb.Config{DBPath: ":memory:", Env: appconf.Test})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, db.ImportFromFile(ctx, dataCfg.Passes))
	catalog, err := db.LoadCatalog(ctx)
	require.NoError(t, err)

	ds, _, err := app.LoadDataset(dataCfg)
	require.NoError(t, err)
	graphs := graph.NewStaticProvider(graph.Build(ds, app.GraphOptions(routingCfg)))

	return &app.Application{
		Config: appconf.Config{
			Env:       appconf.Test,
			ApiKeys:   []string{testAPIKey},
			RateLimit: 100,
		},
		DataConfig:    dataCfg,
		RoutingConfig: routingCfg,
		Graphs:        graphs,
		Planner:       planner.New(graphs, catalog, app.PlannerConfig(routingCfg), nil),
		PassDB:        db,
		Clock:         clock.NewMockClock(testNow),
		Metrics:       metrics.New(),
	}
}

func createTestApi(t *testing.T) *RestAPI {
	t.Helper()
	api := NewRestAPI(createTestApplication(t))
	t.Cleanup(api.Shutdown)
	return api
}

// createTestServer serves api behind the same middleware chain as the binary.
func createTestServer(t *testing.T, api *RestAPI) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	api.SetRoutes(mux)
	handler := RequestIDMiddleware(NewRequestLoggingMiddleware(api.Logger)(MetricsHandler(api.Metrics)(mux)))
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

type testResponse struct {
	Code        int             `json:"code"`
	CurrentTime int64           `json:"currentTime"`
	Text        string          `json:"text"`
	Version     int             `json:"version"`
	Data        json.RawMessage `json:"data"`
}

// serveAndRetrieveEndpoint performs method on path and decodes the envelope.
func serveAndRetrieveEndpoint(t *testing.T, server *httptest.Server, method, path, body string) (*http.Response, testResponse) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var model testResponse
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &model), "body: %s", raw)
	}
	return resp, model
}

// decodeEntry unmarshals data.entry into v.
func decodeEntry(t *testing.T, data json.RawMessage, v any) {
	t.Helper()
	var envelope struct {
		Entry json.RawMessage `json:"entry"`
	}
	require.NoError(t, json.Unmarshal(data, &envelope))
	require.NoError(t, json.Unmarshal(envelope.Entry, v))
}

// decodeList unmarshals data.list into v and returns data.limitExceeded.
func decodeList(t *testing.T, data json.RawMessage, v any) bool {
	t.Helper()
	var envelope struct {
		List          json.RawMessage `json:"list"`
		LimitExceeded bool            `json:"limitExceeded"`
	}
	require.NoError(t, json.Unmarshal(data, &envelope))
	require.NoError(t, json.Unmarshal(envelope.List, v))
	return envelope.LimitExceeded
}
