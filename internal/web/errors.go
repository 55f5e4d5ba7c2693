package web

// errors.go provides unified error response handling for the web layer.
//
// Every error response is JSON of the form
//
//	{"error": ..., "message": ..., "action": ..., "code": ..., "kind": ...}
//
// where message/action/code come from core.MapError and kind is the
// taxonomy name from core.Kind. The technical error is logged server-side
// with the request ID for correlation and never sent to the client.

import (
	"context"
	"errors"
	"net/http"

	"github.com/dev-muradkhan/google-map-multi-marker/internal/auth"
	"github.com/dev-muradkhan/google-map-multi-marker/internal/core"
	"github.com/dev-muradkhan/google-map-multi-marker/internal/logging"
)

var (
	errNoFile             = errors.New("no file provided")
	errSessionsDisabled   = errors.New("sessions are not configured")
	errMissingCredentials = errors.New("missing credentials")
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code, Kind) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Kind    string `json:"kind"`
}

// statusFor maps an error to its HTTP status code.
func statusFor(err error) int {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrNoMarkers):
		return http.StatusNotFound
	case errors.Is(err, core.ErrRevisionConflict):
		return http.StatusConflict
	case errors.Is(err, core.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrMissingRequiredColumns):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrInvalidMapID), errors.Is(err, core.ErrInvalidMarkerID),
		errors.Is(err, core.ErrEmptyFile), errors.Is(err, core.ErrUnknownFormat),
		errors.Is(err, errNoFile):
		return http.StatusBadRequest
	case errors.Is(err, errMissingCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrMissingAPIKey), errors.Is(err, errSessionsDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// kindFor extends core.Kind with the kinds only the web layer produces.
func kindFor(err error, status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "Unauthorized"
	case http.StatusForbidden:
		return "Forbidden"
	}
	if errors.Is(err, core.ErrMissingAPIKey) || errors.Is(err, errSessionsDisabled) {
		return "Unavailable"
	}
	if errors.Is(err, errNoFile) || errors.Is(err, auth.ErrInvalidRole) {
		return "BadRequest"
	}
	return core.Kind(err)
}

// respondError logs the technical error and writes the user-facing JSON
// error response.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", args...)
	} else {
		logger.Info("request rejected", args...)
	}

	writeJSONStatus(w, status, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
		Kind:    kindFor(err, status),
	})
}
