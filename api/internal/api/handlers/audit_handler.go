package handlers

import (
	"net/http"
	"strconv"

	"emotioncrypt/api/internal/core/domain"
)

// AuditHandler serves the plaintext-free operation log.
type AuditHandler struct {
	Repo domain.AuditRepository
}

func NewAuditHandler(repo domain.AuditRepository) *AuditHandler {
	return &AuditHandler{Repo: repo}
}

// List handles GET /api/v1/audit
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := h.Repo.List(r.Context(), limit)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	if events == nil {
		events = []domain.AuditEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}
