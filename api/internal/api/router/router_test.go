package router_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emotioncrypt/api/internal/api/handlers"
	"emotioncrypt/api/internal/api/middleware"
	"emotioncrypt/api/internal/api/router"
	"emotioncrypt/api/internal/core/services"
	"emotioncrypt/api/internal/infrastructure/crypto"
	"emotioncrypt/api/internal/telemetry"
)

const routerTestAPIKey = "router-test-api-key"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	engine, err := crypto.NewAESCipherEngine("router-test-secret")
	require.NoError(t, err)

	detector := services.NewDetector(logger)
	service := services.NewEnvelopeService(engine, detector, logger)
	hub := telemetry.NewHub()
	tokens := services.NewTokenService("router-test-jwt-secret")

	return router.NewRouter(router.RouterConfig{
		AllowedOrigins: []string{"http://localhost:5173"},
		CipherHandler:  handlers.NewCipherHandler(service, nil, nil, hub, logger),
		AuthHandler:    handlers.NewAuthHandler(tokens, routerTestAPIKey),
		EventsHandler:  handlers.NewEventsHandler(hub, logger),
		AuthMiddleware: middleware.NewAuthMiddleware(tokens, logger),
		Logger:         logger,
	})
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_HealthAndPing(t *testing.T) {
	r := newTestRouter(t)

	health := do(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, health.Code)
	assert.JSONEq(t, `{"status": "ok"}`, health.Body.String())

	ping := do(t, r, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, ping.Code)
	assert.Equal(t, "pong", ping.Body.String())
}

func TestRouter_PublicCipherRoutes(t *testing.T) {
	r := newTestRouter(t)

	enc := do(t, r, http.MethodPost, "/api/v1/encrypt", `{"message": "I am happy"}`, nil)
	require.Equal(t, http.StatusCreated, enc.Code)

	dec := do(t, r, http.MethodPost, "/api/v1/decrypt", `{"envelope": `+enc.Body.String()+`}`, nil)
	assert.Equal(t, http.StatusOK, dec.Code)

	ana := do(t, r, http.MethodPost, "/api/v1/analyze", `{"message": "I am happy"}`, nil)
	assert.Equal(t, http.StatusOK, ana.Code)
}

func TestRouter_EnvelopeRoutesAbsentWithoutPersistence(t *testing.T) {
	r := newTestRouter(t)

	token := issueToken(t, r)
	rec := do(t, r, http.MethodGet, "/api/v1/envelopes", "", map[string]string{
		"Authorization": "Bearer " + token,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/api/v1/ws/events", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_TokenFlow(t *testing.T) {
	r := newTestRouter(t)

	t.Run("wrong api key", func(t *testing.T) {
		rec := do(t, r, http.MethodPost, "/api/v1/auth/token", `{"api_key": "nope"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("issued token passes authentication", func(t *testing.T) {
		token := issueToken(t, r)
		// The WebSocket upgrade itself fails on a plain recorder, but the
		// request must make it past authentication and scope checks first:
		// anything but 401/403 means the token was accepted.
		rec := do(t, r, http.MethodGet, "/api/v1/ws/events", "", map[string]string{
			"Authorization": "Bearer " + token,
		})
		assert.NotEqual(t, http.StatusUnauthorized, rec.Code)
		assert.NotEqual(t, http.StatusForbidden, rec.Code)
	})
}

func TestRouter_RequestBodyCap(t *testing.T) {
	r := newTestRouter(t)

	big := strings.Repeat("a", 1_100_000)
	rec := do(t, r, http.MethodPost, "/api/v1/encrypt", `{"message": "`+big+`"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func issueToken(t *testing.T, r http.Handler) string {
	t.Helper()
	rec := do(t, r, http.MethodPost, "/api/v1/auth/token", `{"api_key": "`+routerTestAPIKey+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.AccessToken
}
