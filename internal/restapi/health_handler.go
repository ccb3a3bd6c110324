package restapi

import (
	"encoding/json"
	"net/http"

	"railplanner.org/internal/logging"
)

// HealthResponse represents the JSON response from the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func writeHealth(w http.ResponseWriter, code int, resp HealthResponse) {
	setJSONResponseType(w)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// healthHandler reports whether the service can answer route requests.
// It returns 503 Service Unavailable until the routing graph is built.
func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	if api.Application == nil || api.Planner == nil || api.Graphs == nil {
		writeHealth(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unavailable",
			Detail: "planner not initialized",
		})
		return
	}

	// Instances still building the graph would block every route request.
	if !api.Graphs.Ready() {
		writeHealth(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "starting",
			Detail: "routing graph is being built",
		})
		return
	}

	if api.PassDB != nil {
		if err := api.PassDB.Ping(r.Context()); err != nil {
			logging.LogError(api.requestLogger(r), "Pass DB ping failed", err)
			writeHealth(w, http.StatusServiceUnavailable, HealthResponse{
				Status: "unavailable",
				Detail: "database connection failed",
			})
			return
		}
	}

	writeHealth(w, http.StatusOK, HealthResponse{Status: "ok"})
}
