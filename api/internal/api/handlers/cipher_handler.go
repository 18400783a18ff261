package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"emotioncrypt/api/internal/core/domain"
	"emotioncrypt/api/internal/core/services"
	"emotioncrypt/api/internal/telemetry"
)

// ==============================================================================
// 1. Request Payloads (Input Validation)
// ==============================================================================

type EncryptRequest struct {
	Message string `json:"message" validate:"required,max=10000"`
}

type DecryptRequest struct {
	// Exactly one of Envelope / EnvelopeID must be set.
	Envelope   *domain.Envelope `json:"envelope,omitempty"`
	EnvelopeID *uuid.UUID       `json:"envelope_id,omitempty"`
}

type AnalyzeRequest struct {
	Message   string  `json:"message" validate:"required,max=10000"`
	Threshold float64 `json:"threshold,omitempty" validate:"omitempty,gte=0,lte=1"`
}

type EncryptResponse struct {
	ID *uuid.UUID `json:"id,omitempty"` // set when persistence is configured
	*domain.Envelope
}

// ==============================================================================
// 2. The Handler Struct (Dependency Injection)
// ==============================================================================

// CipherHandler serves the encrypt/decrypt/analyze surface. Envelopes and
// Audit are nil when the service runs stateless; persistence failures are
// logged but never block the cipher result.
type CipherHandler struct {
	Service   *services.EnvelopeService
	Envelopes domain.EnvelopeRepository
	Audit     domain.AuditRepository
	Hub       *telemetry.Hub
	Logger    *slog.Logger
}

func NewCipherHandler(service *services.EnvelopeService, envelopes domain.EnvelopeRepository, audit domain.AuditRepository, hub *telemetry.Hub, logger *slog.Logger) *CipherHandler {
	return &CipherHandler{
		Service:   service,
		Envelopes: envelopes,
		Audit:     audit,
		Hub:       hub,
		Logger:    logger,
	}
}

// ==============================================================================
// 3. HTTP Methods
// ==============================================================================

// Encrypt handles POST /api/v1/encrypt
func (h *CipherHandler) Encrypt(w http.ResponseWriter, r *http.Request) {
	var req EncryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid JSON payload"})
		return
	}
	if err := validate.Struct(req); err != nil {
		HandleError(w, r, err)
		return
	}

	envelope, err := h.Service.Encrypt(r.Context(), req.Message)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	resp := EncryptResponse{Envelope: envelope}
	if h.Envelopes != nil {
		stored, err := h.Envelopes.Save(r.Context(), envelope)
		if err != nil {
			h.Logger.Warn("envelope persistence failed", slog.String("error", err.Error()))
		} else {
			resp.ID = &stored.ID
		}
	}

	h.publish("encrypt", envelope.ShortEncryptedText, envelope.EmotionalSignature.PrimaryEmotions, envelope.EncryptionMethod, nil)

	writeJSON(w, http.StatusCreated, resp)
}

// Decrypt handles POST /api/v1/decrypt
func (h *CipherHandler) Decrypt(w http.ResponseWriter, r *http.Request) {
	var req DecryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid JSON payload"})
		return
	}

	envelope, err := h.resolveEnvelope(r.Context(), &req)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	result, err := h.Service.Decrypt(r.Context(), envelope)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	h.publish("decrypt", envelope.ShortEncryptedText, result.DetectedEmotion, envelope.EncryptionMethod, &result.IntegrityOK)

	writeJSON(w, http.StatusOK, result)
}

// Analyze handles POST /api/v1/analyze: the signature pipeline without any
// encryption, for callers that only want the emotional metadata.
func (h *CipherHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid JSON payload"})
		return
	}
	if err := validate.Struct(req); err != nil {
		HandleError(w, r, err)
		return
	}

	signature := h.Service.Analyze(r.Context(), req.Message, req.Threshold)
	writeJSON(w, http.StatusOK, signature)
}

func (h *CipherHandler) resolveEnvelope(ctx context.Context, req *DecryptRequest) (*domain.Envelope, error) {
	switch {
	case req.Envelope != nil && req.EnvelopeID != nil:
		return nil, fmt.Errorf("%w: provide either envelope or envelope_id, not both", domain.ErrMalformedEnvelope)
	case req.Envelope != nil:
		return req.Envelope, nil
	case req.EnvelopeID != nil:
		if h.Envelopes == nil {
			return nil, fmt.Errorf("%w: envelope_id lookup requires persistence, which is not configured", domain.ErrMalformedEnvelope)
		}
		stored, err := h.Envelopes.GetByID(ctx, *req.EnvelopeID)
		if err != nil {
			return nil, err
		}
		return &stored.Envelope, nil
	default:
		return nil, fmt.Errorf("%w: missing envelope", domain.ErrMalformedEnvelope)
	}
}

// publish fans the plaintext-free event out to the live feed and, when
// configured, the audit log.
func (h *CipherHandler) publish(kind, shortText string, emotions []domain.EmotionLabel, method string, integrityOK *bool) {
	event := telemetry.Event{
		Kind:            kind,
		ShortText:       shortText,
		PrimaryEmotions: emotions,
		Method:          method,
		IntegrityOK:     integrityOK,
		At:              time.Now().UTC(),
	}
	h.Hub.Broadcast(event)

	if h.Audit != nil {
		// Audit writes ride a detached context so a canceled request can't
		// drop the record mid-flight.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		record := domain.AuditEvent{
			Kind:            kind,
			ShortText:       shortText,
			PrimaryEmotions: emotions,
			Method:          method,
			IntegrityOK:     integrityOK,
		}
		if err := h.Audit.Record(ctx, &record); err != nil {
			h.Logger.Warn("audit record failed", slog.String("error", err.Error()))
		}
	}
}
