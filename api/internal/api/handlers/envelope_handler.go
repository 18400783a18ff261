package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"emotioncrypt/api/internal/core/domain"
)

// EnvelopeHandler serves stored envelopes. Only mounted when persistence is
// configured.
type EnvelopeHandler struct {
	Repo domain.EnvelopeRepository
}

func NewEnvelopeHandler(repo domain.EnvelopeRepository) *EnvelopeHandler {
	return &EnvelopeHandler{Repo: repo}
}

// List handles GET /api/v1/envelopes
func (h *EnvelopeHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	envelopes, err := h.Repo.List(r.Context(), limit)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	if envelopes == nil {
		envelopes = []domain.StoredEnvelope{}
	}
	writeJSON(w, http.StatusOK, envelopes)
}

// GetByID handles GET /api/v1/envelopes/{id}
func (h *EnvelopeHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid envelope ID format"})
		return
	}

	stored, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}
