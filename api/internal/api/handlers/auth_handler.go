package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"emotioncrypt/api/internal/core/services"
)

type TokenRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AuthHandler mints access tokens for clients that present the configured API
// key. Read scopes cover the stored-envelope and audit endpoints.
type AuthHandler struct {
	Tokens *services.TokenService
	APIKey string
}

func NewAuthHandler(tokens *services.TokenService, apiKey string) *AuthHandler {
	return &AuthHandler{Tokens: tokens, APIKey: apiKey}
}

// IssueToken handles POST /api/v1/auth/token
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid JSON payload"})
		return
	}
	if err := validate.Struct(req); err != nil {
		HandleError(w, r, err)
		return
	}

	if h.APIKey == "" || subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(h.APIKey)) != 1 {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "Invalid API key"})
		return
	}

	token, err := h.Tokens.GenerateAccessToken("api-client", []string{"envelopes:read", "audit:read", "events:read"})
	if err != nil {
		HandleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "Bearer"})
}
