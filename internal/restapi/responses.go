package restapi

import (
	"encoding/json"
	"net/http"

	"railplanner.org/internal/logging"
	"railplanner.org/internal/models"
)

func setJSONResponseType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
}

func (api *RestAPI) sendResponse(w http.ResponseWriter, r *http.Request, response models.ResponseModel) {
	setJSONResponseType(w)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.LogError(api.requestLogger(r), "Failed to encode response", err)
	}
}

func (api *RestAPI) sendError(w http.ResponseWriter, r *http.Request, code int, message string) {
	api.sendErrorWithData(w, r, code, message, nil)
}

func (api *RestAPI) sendErrorWithData(w http.ResponseWriter, r *http.Request, code int, message string, data any) {
	setJSONResponseType(w)
	w.WriteHeader(code)

	response := models.NewErrorResponse(code, message, api.Clock)
	response.Data = data
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.LogError(api.requestLogger(r), "Failed to encode error response", err)
	}
}

func (api *RestAPI) sendNotFound(w http.ResponseWriter, r *http.Request) {
	api.sendError(w, r, http.StatusNotFound, "resource not found")
}

func (api *RestAPI) sendUnauthorized(w http.ResponseWriter, r *http.Request) {
	api.sendError(w, r, http.StatusUnauthorized, "permission denied")
}
