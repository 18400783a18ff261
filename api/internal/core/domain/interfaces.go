package domain

import (
	"context"

	"github.com/google/uuid"
)

// Classifier maps text onto ranked emotion scores. Implementations must cap
// their output to the top 2 entries, normalize labels through NormalizeLabel,
// and resolve within the deadline carried by ctx. A failing backend returns an
// error; it never panics into the caller.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, text string) ([]EmotionScore, error)
}

// CipherEngine performs authenticated encryption over message bytes. The
// ciphertext string embeds the nonce and auth tag, so Decrypt detects both
// tampering and key mismatch.
type CipherEngine interface {
	Method() string
	Encrypt(ctx context.Context, plaintext []byte) (string, error)
	Decrypt(ctx context.Context, ciphertext string) ([]byte, error)
}

// EnvelopeRepository persists envelopes at rest.
type EnvelopeRepository interface {
	Save(ctx context.Context, env *Envelope) (*StoredEnvelope, error)
	GetByID(ctx context.Context, id uuid.UUID) (*StoredEnvelope, error)
	List(ctx context.Context, limit int) ([]StoredEnvelope, error)
}

// AuditRepository persists the plaintext-free operation log.
type AuditRepository interface {
	Record(ctx context.Context, event *AuditEvent) error
	List(ctx context.Context, limit int) ([]AuditEvent, error)
}

// AccessClaims is the verified identity the auth middleware injects into the
// request context.
type AccessClaims struct {
	Subject string
	Scopes  []string
}

// HasScope reports whether the token carries the given scope.
func (c *AccessClaims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

type contextKey string

// ClaimsContextKey locates the verified AccessClaims in a request context.
const ClaimsContextKey contextKey = "emotioncrypt.claims"
