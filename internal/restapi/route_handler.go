package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"railplanner.org/internal/cost"
	"railplanner.org/internal/logging"
	"railplanner.org/internal/metrics"
	"railplanner.org/internal/models"
	"railplanner.org/internal/pass"
	"railplanner.org/internal/planner"
)

const maxRouteBodyBytes = 64 << 10

// routeQueryHandler serves GET /api/routes?origin=&destination=&via=&priority=&passes=.
// via and passes are comma separated and may be repeated.
func (api *RestAPI) routeQueryHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := planner.Request{
		OriginID:      strings.TrimSpace(q.Get("origin")),
		DestinationID: strings.TrimSpace(q.Get("destination")),
		ViaIDs:        splitList(q["via"]),
		Priority:      q.Get("priority"),
		PassIDs:       splitList(q["passes"]),
	}
	api.planRoute(w, r, req)
}

// routeBodyHandler serves POST /api/routes with a JSON request body.
func (api *RestAPI) routeBodyHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRouteBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req planner.Request
	if err := dec.Decode(&req); err != nil {
		api.observeRoute(metrics.OutcomeBadRequest, api.Clock.Now(), 0)
		api.badRequestResponse(w, r, "invalid JSON body: "+err.Error())
		return
	}
	api.planRoute(w, r, req)
}

// splitList flattens repeated, comma separated query values. A value holding
// a single "lat,lon" pair is kept whole; several pairs are separated by ';'.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		sep := ","
		if strings.Contains(v, ";") {
			sep = ";"
		} else if _, err := planner.ParseCoordinate(v); err == nil {
			sep = ";"
		}
		for _, item := range strings.Split(v, sep) {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

func validateRouteRequest(req planner.Request) map[string][]string {
	fieldErrors := make(map[string][]string)
	if req.OriginID == "" {
		fieldErrors["origin"] = append(fieldErrors["origin"], "origin is required")
	}
	if req.DestinationID == "" {
		fieldErrors["destination"] = append(fieldErrors["destination"], "destination is required")
	}
	for _, id := range req.ViaIDs {
		if strings.TrimSpace(id) == "" {
			fieldErrors["via"] = append(fieldErrors["via"], "via entries must not be empty")
			break
		}
	}
	return fieldErrors
}

func (api *RestAPI) planRoute(w http.ResponseWriter, r *http.Request, req planner.Request) {
	if fieldErrors := validateRouteRequest(req); len(fieldErrors) > 0 {
		api.observeRoute(metrics.OutcomeBadRequest, api.Clock.Now(), 0)
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	start := api.Clock.Now()
	ctx := r.Context()

	resolved, err := api.Planner.ResolveRequest(ctx, req)
	var res *planner.Result
	if err == nil {
		res, err = api.Planner.FindRoute(ctx, resolved)
	}
	if err != nil {
		api.routeErrorResponse(w, r, start, err)
		return
	}

	api.observeRoute(metrics.OutcomeFound, start, res.Expansions)
	logging.LogOperation(api.requestLogger(r), "route_planned",
		slog.String("origin", resolved.OriginID),
		slog.String("destination", resolved.DestinationID),
		slog.Int("legs", res.Legs),
		slog.Int("segments", len(res.Segments)),
		slog.Int("expansions", res.Expansions),
		slog.Bool("cached", res.Cached))

	api.sendResponse(w, r, models.NewEntryResponse(models.NewRoute(res), api.Clock))
}

func (api *RestAPI) routeErrorResponse(w http.ResponseWriter, r *http.Request, start time.Time, err error) {
	var noPath *planner.NoPathError
	switch {
	case errors.Is(err, planner.ErrUnknownStation):
		api.observeRoute(metrics.OutcomeBadRequest, start, 0)
		api.sendError(w, r, http.StatusBadRequest, "Unknown station id")
	case errors.Is(err, pass.ErrUnknownPass), errors.Is(err, cost.ErrInvalidPriority):
		api.observeRoute(metrics.OutcomeBadRequest, start, 0)
		api.badRequestResponse(w, r, err.Error())
	case errors.As(err, &noPath):
		api.observeRoute(metrics.OutcomeNoPath, start, 0)
		api.sendError(w, r, http.StatusNotFound, noPath.Error())
	case errors.Is(err, planner.ErrNoStations):
		api.observeRoute(metrics.OutcomeNoPath, start, 0)
		api.sendError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		api.observeRoute(metrics.OutcomeError, start, 0)
		api.sendError(w, r, http.StatusServiceUnavailable, "route search aborted")
	case errors.Is(err, planner.ErrInvalidCoordinate):
		api.observeRoute(metrics.OutcomeBadRequest, start, 0)
		api.badRequestResponse(w, r, err.Error())
	default:
		api.observeRoute(metrics.OutcomeError, start, 0)
		api.serverErrorResponse(w, r, err)
	}
}

func (api *RestAPI) observeRoute(outcome string, start time.Time, expansions int) {
	if api.Metrics == nil {
		return
	}
	api.Metrics.ObserveRoute(outcome, api.Clock.Since(start), expansions)
}
