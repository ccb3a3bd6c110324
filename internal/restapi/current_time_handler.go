package restapi

import (
	"net/http"
	"time"

	"railplanner.org/internal/models"
)

type currentTimeData struct {
	Time         int64  `json:"time"`
	ReadableTime string `json:"readableTime"`
}

func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	now := api.Clock.Now()
	api.sendResponse(w, r, models.NewEntryResponse(currentTimeData{
		Time:         now.UnixMilli(),
		ReadableTime: now.Format(time.RFC3339),
	}, api.Clock))
}
