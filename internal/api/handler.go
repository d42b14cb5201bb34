// Package api provides the local HTTP façade over the view-state controller.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/nia-console/internal/controller"
	"github.com/ashureev/nia-console/internal/tutorapi"
)

const maxBodySize = 1 << 20

// Handler exposes controller actions over HTTP. Every successful action
// answers with the resulting snapshot.
type Handler struct {
	ctrl           *controller.Controller
	allowedOrigins []string
	logger         *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(ctrl *controller.Controller, allowedOrigins []string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{ctrl: ctrl, allowedOrigins: allowedOrigins, logger: logger}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// StatusFor maps a controller or API error to an HTTP status.
func StatusFor(err error) int {
	var validationErr *controller.ValidationError
	var apiErr *tutorapi.APIError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, controller.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, controller.ErrInvalidTransition),
		errors.Is(err, controller.ErrSendInFlight),
		errors.Is(err, controller.ErrFeedbackLocked),
		errors.Is(err, controller.ErrNoChildSelected),
		errors.Is(err, controller.ErrStaleView):
		return http.StatusConflict
	case errors.Is(err, controller.ErrUnknownChild),
		errors.Is(err, controller.ErrFeedbackUnavailable):
		return http.StatusNotFound
	case errors.As(err, &apiErr):
		if apiErr.Status < 400 {
			return http.StatusBadGateway
		}
		return apiErr.Status
	case errors.Is(err, tutorapi.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Warn("action failed", "path", r.URL.Path, "status", status, "error", err)
	}
	Error(w, status, controller.UserMessage(err, err.Error()))
}

// respond writes the snapshot after a successful action or the error.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, h.ctrl.Snapshot())
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		Error(w, http.StatusBadRequest, fmt.Sprintf("invalid id %q", chi.URLParam(r, "id")))
		return 0, false
	}
	return id, true
}

// GetState returns the current snapshot.
func (h *Handler) GetState(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, h.ctrl.Snapshot())
}
