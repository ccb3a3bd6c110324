package restapi

import (
	"net/http"

	"railplanner.org/internal/models"
)

func (api *RestAPI) configHandler(w http.ResponseWriter, r *http.Request) {
	entry := models.ConfigModel{
		Id:          "railplanner",
		Name:        "Rail Journey Planner",
		Environment: api.Config.Env.String(),
		PassCount:   api.Planner.Catalog().Len(),
		Routing:     models.NewRoutingModel(api.RoutingConfig),
	}

	// Reading the graph here must not trigger a build.
	if api.Graphs != nil && api.Graphs.Ready() {
		if g, err := api.Graphs.Get(r.Context()); err == nil {
			entry.Graph = models.NewGraphModel(g.Stats())
		}
	}

	api.sendResponse(w, r, models.NewEntryResponse(entry, api.Clock))
}
