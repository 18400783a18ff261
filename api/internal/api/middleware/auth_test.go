package middleware_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emotioncrypt/api/internal/api/middleware"
	"emotioncrypt/api/internal/core/domain"
	"emotioncrypt/api/internal/core/services"
)

func newMiddleware() (*middleware.AuthMiddleware, *services.TokenService) {
	tokens := services.NewTokenService("middleware-test-secret")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return middleware.NewAuthMiddleware(tokens, logger), tokens
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthentication(t *testing.T) {
	m, tokens := newMiddleware()
	protected := m.RequireAuthentication(okHandler())

	t.Run("no header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token injects claims", func(t *testing.T) {
		token, err := tokens.GenerateAccessToken("api-client", []string{"audit:read"})
		require.NoError(t, err)

		var seen *domain.AccessClaims
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = r.Context().Value(domain.ClaimsContextKey).(*domain.AccessClaims)
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		m.RequireAuthentication(inner).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "api-client", seen.Subject)
	})
}

func TestRequireScope(t *testing.T) {
	m, tokens := newMiddleware()
	chain := m.RequireAuthentication(m.RequireScope("envelopes:read")(okHandler()))

	t.Run("scope present", func(t *testing.T) {
		token, err := tokens.GenerateAccessToken("api-client", []string{"envelopes:read"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		chain.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("scope missing", func(t *testing.T) {
		token, err := tokens.GenerateAccessToken("api-client", []string{"audit:read"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		chain.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("no claims in context", func(t *testing.T) {
		rec := httptest.NewRecorder()
		m.RequireScope("envelopes:read")(okHandler()).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRateLimit(t *testing.T) {
	m, _ := newMiddleware()
	limited := m.RateLimit(okHandler())

	// Burst is 30; the 31st immediate request from one IP must be rejected.
	var lastCode int
	for i := 0; i < 31; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Real-IP", "203.0.113.7")
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		lastCode = rec.Code
		if i < 30 {
			require.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i)
		}
	}
	assert.Equal(t, http.StatusTooManyRequests, lastCode)

	// A different IP has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "198.51.100.9")
	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_ConcurrentRequestsSameIP(t *testing.T) {
	m, _ := newMiddleware()
	limited := m.RateLimit(okHandler())

	// Parallel requests from one IP hammer the shared visitor entry; run
	// under -race this catches unsynchronized lastSeen updates.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Real-IP", "192.0.2.50")
			limited.ServeHTTP(httptest.NewRecorder(), req)
		}()
	}
	wg.Wait()
}

func TestMaxBytes(t *testing.T) {
	capped := middleware.MaxBytes(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("under limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small"))
		rec := httptest.NewRecorder()
		capped.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("over limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("this body is definitely longer than sixteen bytes"))
		rec := httptest.NewRecorder()
		capped.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}
