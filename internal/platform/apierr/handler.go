package apierr

import (
	"encoding/json"
	"net/http"

	"github.com/sami-patel/geoworkflow/internal/platform/logging"
)

// ErrorResponse is the JSON envelope written for any failed HTTP request.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the classified error information.
type ErrorDetail struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Handler writes AppErrors (or arbitrary errors wrapped as internal) as JSON
// HTTP responses and logs them.
type Handler struct {
	log *logging.Logger
}

// NewHandler builds a Handler.
func NewHandler(log *logging.Logger) *Handler {
	return &Handler{log: log}
}

// Handle writes the appropriate status code and JSON body for err.
func (h *Handler) Handle(w http.ResponseWriter, err error) {
	appErr, ok := As(err)
	if !ok {
		appErr = Internalf("unexpected error").Wrap(err)
	}

	h.log.Errorw("request failed", "type", appErr.Type, "code", appErr.Code, "message", appErr.Message)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{
			Type:    string(appErr.Type),
			Code:    appErr.Code,
			Message: appErr.Message,
		},
	})
}
