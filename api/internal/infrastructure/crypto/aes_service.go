package crypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"emotioncrypt/api/internal/core/domain"
)

// Method is the fixed algorithm identifier written into every envelope.
const Method = "AES-256-GCM-PBKDF2"

const (
	kdfIterations = 100_000
	kdfKeyLen     = 32
)

// kdfSalt is fixed so the same secret always derives the same key and
// envelopes stay decryptable across restarts. Known weakening: a per-envelope
// random salt is the production-correct choice, but it requires persisting the
// salt in the envelope schema.
var kdfSalt = []byte("emotioncrypt-kdf-salt-v1")

// DeriveKey stretches a password/secret into a 256-bit AES key.
func DeriveKey(secret string) []byte {
	return pbkdf2.Key([]byte(secret), kdfSalt, kdfIterations, kdfKeyLen, sha256.New)
}

// AESCipherEngine implements domain.CipherEngine with AES-256-GCM. The AEAD is
// precomputed once; the engine is read-only after construction.
type AESCipherEngine struct {
	aead cipher.AEAD
}

func NewAESCipherEngine(secret string) (*AESCipherEngine, error) {
	if secret == "" {
		return nil, errors.New("crypto: secret must not be empty")
	}

	key := DeriveKey(secret)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: block cipher failure: %w", err)
	}

	// Zeroize the temporary key slice after use
	defer func() {
		for i := range key {
			key[i] = 0
		}
	}()

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: GCM failure: %w", err)
	}

	return &AESCipherEngine{aead: aesGCM}, nil
}

// Method names the algorithm in use.
func (e *AESCipherEngine) Method() string { return Method }

// Encrypt seals the plaintext under a fresh random nonce. The returned string
// is URL-safe base64 of nonce || ciphertext || tag.
func (e *AESCipherEngine) Encrypt(_ context.Context, plaintext []byte) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("crypto: nonce generation failure: %w", err)
	}

	ciphertext := e.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// Decrypt opens the sealed payload. Every failure mode (bad encoding,
// truncation, wrong key, flipped ciphertext bytes) collapses to
// domain.ErrDecryptionFailed so callers cannot distinguish why.
func (e *AESCipherEngine) Decrypt(_ context.Context, ciphertextBase64 string) ([]byte, error) {
	data, err := base64.URLEncoding.DecodeString(ciphertextBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: base64 decode failure", domain.ErrDecryptionFailed)
	}

	ns := e.aead.NonceSize()
	if len(data) < ns {
		return nil, fmt.Errorf("%w: ciphertext too short", domain.ErrDecryptionFailed)
	}

	nonce, actualCiphertext := data[:ns], data[ns:]

	plaintext, err := e.aead.Open(nil, nonce, actualCiphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: integrity violation or key mismatch", domain.ErrDecryptionFailed)
	}

	return plaintext, nil
}
