package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"log/slog"

	"emotioncrypt/api/internal/core/domain"
)

// shortTextAlphabet is the character pool for the cosmetic display string.
const shortTextAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()_+-=[]{}|;:,.<>?"

// ShortTextLength is the default display-string length.
const ShortTextLength = 16

// EnvelopeService binds ciphertext to its emotional signature. Emotions are
// always computed on the plaintext BEFORE encryption; the integrity hash is a
// tamper hint layered on top of (never instead of) the cipher's own auth tag.
type EnvelopeService struct {
	engine    domain.CipherEngine
	detector  *Detector
	threshold float64
	logger    *slog.Logger
}

func NewEnvelopeService(engine domain.CipherEngine, detector *Detector, logger *slog.Logger) *EnvelopeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnvelopeService{
		engine:    engine,
		detector:  detector,
		threshold: domain.DefaultThreshold,
		logger:    logger,
	}
}

// Encrypt produces the complete envelope for a message.
func (s *EnvelopeService) Encrypt(ctx context.Context, message string) (*domain.Envelope, error) {
	scores := s.detector.Detect(ctx, message)
	signature := domain.NewEmotionalSignature(message, scores, s.threshold)

	encryptedText, err := s.engine.Encrypt(ctx, []byte(message))
	if err != nil {
		return nil, fmt.Errorf("envelope: encrypt: %w", err)
	}

	return &domain.Envelope{
		EncryptedText:      encryptedText,
		ShortEncryptedText: ShortDisplayText(encryptedText, ShortTextLength),
		EmotionalSignature: signature,
		EncryptionMethod:   s.engine.Method(),
	}, nil
}

// Decrypt recovers the plaintext, checks the truncated hash, and re-detects
// emotions on the recovered text. A hash mismatch is reported via IntegrityOK
// and a warning log, but the plaintext is still returned: the GCM tag already
// authenticated the ciphertext, so a stored-signature mismatch points at the
// signature, not the message.
func (s *EnvelopeService) Decrypt(ctx context.Context, env *domain.Envelope) (*domain.DecryptResult, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}

	plaintext, err := s.engine.Decrypt(ctx, env.EncryptedText)
	if err != nil {
		return nil, fmt.Errorf("envelope: decrypt: %w", err)
	}
	message := string(plaintext)

	recomputed := domain.MessageHash(message)
	integrityOK := subtle.ConstantTimeCompare([]byte(recomputed), []byte(env.EmotionalSignature.MessageHash)) == 1
	if !integrityOK {
		s.logger.Warn("message integrity check failed",
			slog.String("stored_hash", env.EmotionalSignature.MessageHash),
			slog.String("computed_hash", recomputed),
			slog.String("short_text", env.ShortEncryptedText),
		)
	}

	verified := domain.PrimaryEmotions(s.detector.Detect(ctx, message), s.threshold)

	return &domain.DecryptResult{
		OriginalMessage:    message,
		DetectedEmotion:    env.EmotionalSignature.PrimaryEmotions,
		VerifiedEmotion:    verified,
		EmotionalSignature: env.EmotionalSignature,
		IntegrityOK:        integrityOK,
	}, nil
}

// Analyze computes the emotional signature without encrypting anything.
func (s *EnvelopeService) Analyze(ctx context.Context, message string, threshold float64) domain.EmotionalSignature {
	if threshold <= 0 {
		threshold = s.threshold
	}
	return domain.NewEmotionalSignature(message, s.detector.Detect(ctx, message), threshold)
}

// ShortDisplayText derives the fixed-length cosmetic string from the encoded
// ciphertext. Purely decorative and never used for decryption, but it must be
// reproducible: the SHA-256 digest of the ciphertext text drives character
// selection deterministically.
func ShortDisplayText(encryptedText string, length int) string {
	if length <= 0 {
		length = ShortTextLength
	}
	digest := sha256.Sum256([]byte(encryptedText))

	out := make([]byte, length)
	for i := 0; i < length; i++ {
		b := digest[i%len(digest)]
		out[i] = shortTextAlphabet[int(b)%len(shortTextAlphabet)]
	}
	return string(out)
}
