package domain

import "errors"

var (
	// ErrClassifierUnavailable signals a classifier backend that cannot be
	// reached or initialized. Recovered inside the detector by falling to the
	// next tier; never surfaced from Encrypt/Decrypt.
	ErrClassifierUnavailable = errors.New("classifier unavailable")

	// ErrClassifierResponseInvalid signals a backend that answered with
	// unparseable or empty data. Recovered the same way.
	ErrClassifierResponseInvalid = errors.New("classifier response invalid")

	// ErrDecryptionFailed covers wrong key, truncated ciphertext, and GCM tag
	// verification failure. Always surfaced to the caller.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrMalformedEnvelope means the decrypt input is missing required fields.
	ErrMalformedEnvelope = errors.New("malformed envelope")

	// ErrEnvelopeNotFound is returned by repositories for unknown IDs.
	ErrEnvelopeNotFound = errors.New("envelope not found")
)
