package restapi

import (
	"net/http"

	"railplanner.org/internal/models"
)

// passesHandler lists the rail passes a route request may name.
func (api *RestAPI) passesHandler(w http.ResponseWriter, r *http.Request) {
	passes := models.NewPasses(api.Planner.Catalog().All())
	api.sendResponse(w, r, models.NewListResponse(passes, false, api.Clock))
}
