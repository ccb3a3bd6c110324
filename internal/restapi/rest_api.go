// Package restapi serves the planner over HTTP as JSON.
package restapi

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"railplanner.org/internal/app"
	"railplanner.org/internal/clock"
)

// Cache lifetimes in seconds, by how often the answer can change.
const (
	cacheStatic = 300
	cacheShort  = 30
	cacheNone   = 0
)

type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
}

func NewRestAPI(application *app.Application) *RestAPI {
	if application.Clock == nil {
		application.Clock = clock.RealClock{}
	}
	return &RestAPI{
		Application: application,
		rateLimiter: NewRateLimitMiddleware(application.Config.RateLimit, time.Second, nil, application.Clock),
	}
}

// Shutdown stops background work owned by the API.
func (api *RestAPI) Shutdown() {
	if api.rateLimiter != nil {
		api.rateLimiter.Stop()
	}
}

func (api *RestAPI) SetRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", api.healthHandler)
	if api.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(api.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	mux.Handle("GET /api/current-time", api.protected(cacheShort, api.currentTimeHandler))
	mux.Handle("GET /api/config", api.protected(cacheShort, api.configHandler))
	mux.Handle("GET /api/passes", api.protected(cacheStatic, api.passesHandler))
	mux.Handle("GET /api/stations", api.protected(cacheStatic, api.stationsHandler))
	mux.Handle("GET /api/stations/nearest", api.protected(cacheStatic, api.nearestStationHandler))
	mux.Handle("GET /api/routes", api.protected(cacheNone, api.routeQueryHandler))
	mux.Handle("POST /api/routes", api.protected(cacheNone, api.routeBodyHandler))
}

// protected applies rate limiting, API key validation and the cache policy.
func (api *RestAPI) protected(cacheSeconds int, h http.HandlerFunc) http.Handler {
	return api.rateLimiter.Handler()(api.requireAPIKey(CacheControlMiddleware(cacheSeconds, h)))
}

func (api *RestAPI) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := api.AuthorizePartner(r); !ok {
			api.sendUnauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
