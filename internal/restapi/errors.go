package restapi

import (
	"log/slog"
	"net/http"

	"railplanner.org/internal/logging"
)

// requestLogger returns the request scoped logger set by the logging
// middleware.
func (api *RestAPI) requestLogger(r *http.Request) *slog.Logger {
	return logging.FromContext(r.Context())
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(api.requestLogger(r), "Request failed", err,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))
	api.sendError(w, r, http.StatusInternalServerError, "internal server error")
}

type fieldErrorsData struct {
	FieldErrors map[string][]string `json:"fieldErrors"`
}

func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	api.sendErrorWithData(w, r, http.StatusBadRequest, "invalid request", fieldErrorsData{FieldErrors: fieldErrors})
}

func (api *RestAPI) badRequestResponse(w http.ResponseWriter, r *http.Request, message string) {
	api.sendError(w, r, http.StatusBadRequest, message)
}
