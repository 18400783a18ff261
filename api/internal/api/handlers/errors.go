package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"emotioncrypt/api/internal/core/domain"
)

// Use a single instance of Validate, it caches struct info
var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// HandleError maps domain errors onto HTTP status codes. Classifier-tier
// errors never reach here; the detector recovers them internally.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		details := make([]string, 0, len(validationErrs))
		for _, fe := range validationErrs {
			details = append(details, fe.Field()+": failed '"+fe.Tag()+"' check")
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Validation failed", Details: details})

	case errors.Is(err, domain.ErrMalformedEnvelope):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})

	case errors.Is(err, domain.ErrDecryptionFailed):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Message: "Decryption failed: wrong key or corrupted ciphertext"})

	case errors.Is(err, domain.ErrEnvelopeNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "Envelope not found"})

	default:
		slog.Error("unhandled request error",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Internal server error"})
	}
}
