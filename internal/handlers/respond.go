// internal/handlers/respond.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ammerola/preloved-be/internal/adapters/vision"
	"github.com/ammerola/preloved-be/internal/core/catalog"
	"github.com/ammerola/preloved-be/internal/core/domain"
)

// responder is embedded by every handler for consistent JSON output.
type responder struct {
	logger *slog.Logger
}

func (h responder) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func (h responder) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps a service error to a status code. fallback is
// the message used for unexpected failures, which are logged.
func (h responder) respondServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrItemNotFound):
		h.respondError(w, http.StatusNotFound, "Item not found")
	case errors.Is(err, domain.ErrJobNotFound):
		h.respondError(w, http.StatusNotFound, "Job not found")
	case errors.Is(err, catalog.ErrSuperseded):
		h.respondError(w, http.StatusConflict, "Superseded by a newer request")
	case errors.Is(err, vision.ErrImageRejected):
		h.respondError(w, http.StatusUnprocessableEntity, "Image could not be assessed")
	case errors.Is(err, vision.ErrEstimatorUnavailable):
		h.respondError(w, http.StatusServiceUnavailable, "Condition estimator is unavailable")
	default:
		h.logger.ErrorContext(r.Context(), fallback,
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, fallback)
	}
}
