package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Envelope is the complete persisted/transmitted output of an encrypt call.
// Immutable after creation; decrypting never mutates it.
type Envelope struct {
	EncryptedText      string             `json:"encrypted_text"`
	ShortEncryptedText string             `json:"short_encrypted_text"`
	EmotionalSignature EmotionalSignature `json:"emotional_signature"`
	EncryptionMethod   string             `json:"encryption_method"`
}

// Validate rejects structurally incomplete envelopes before any cipher work.
func (e *Envelope) Validate() error {
	if e == nil {
		return fmt.Errorf("%w: envelope is nil", ErrMalformedEnvelope)
	}
	if e.EncryptedText == "" {
		return fmt.Errorf("%w: missing encrypted_text", ErrMalformedEnvelope)
	}
	if e.EncryptionMethod == "" {
		return fmt.Errorf("%w: missing encryption_method", ErrMalformedEnvelope)
	}
	if e.EmotionalSignature.MessageHash == "" {
		return fmt.Errorf("%w: missing emotional_signature.message_hash", ErrMalformedEnvelope)
	}
	return nil
}

// DecryptResult is what a successful decrypt returns. DetectedEmotion comes
// from the stored signature; VerifiedEmotion is re-detected on the recovered
// plaintext so callers can compare the two without trusting the signature.
type DecryptResult struct {
	OriginalMessage    string             `json:"original_message"`
	DetectedEmotion    []EmotionLabel     `json:"detected_emotion"`
	VerifiedEmotion    []EmotionLabel     `json:"verified_emotion"`
	EmotionalSignature EmotionalSignature `json:"emotional_signature"`
	IntegrityOK        bool               `json:"integrity_ok"`
}

// StoredEnvelope is an envelope at rest, as the repository returns it.
type StoredEnvelope struct {
	ID        uuid.UUID `json:"id"`
	Envelope  Envelope  `json:"envelope"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditEvent records one encrypt or decrypt operation. It carries no plaintext
// and no full ciphertext, only the cosmetic short text and the emotional
// metadata the envelope already exposes.
type AuditEvent struct {
	ID              uuid.UUID      `json:"id"`
	Kind            string         `json:"kind"` // "encrypt" or "decrypt"
	ShortText       string         `json:"short_text"`
	PrimaryEmotions []EmotionLabel `json:"primary_emotions"`
	Method          string         `json:"method"`
	IntegrityOK     *bool          `json:"integrity_ok,omitempty"` // decrypt only
	CreatedAt       time.Time      `json:"created_at"`
}
