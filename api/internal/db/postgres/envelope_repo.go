package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"emotioncrypt/api/internal/core/domain"
)

// EnvelopeRepo implements domain.EnvelopeRepository for PostgreSQL.
//
// Schema:
//
//	CREATE TABLE envelopes (
//	    id                   UUID PRIMARY KEY DEFAULT gen_random_uuid(),
//	    encrypted_text       TEXT NOT NULL,
//	    short_encrypted_text TEXT NOT NULL,
//	    emotional_signature  JSONB NOT NULL,
//	    encryption_method    TEXT NOT NULL,
//	    created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type EnvelopeRepo struct {
	pool *pgxpool.Pool
}

func NewEnvelopeRepo(pool *pgxpool.Pool) *EnvelopeRepo {
	return &EnvelopeRepo{pool: pool}
}

// Save inserts an envelope and scans the generated ID and timestamp back.
func (r *EnvelopeRepo) Save(ctx context.Context, env *domain.Envelope) (*domain.StoredEnvelope, error) {
	query := `
		INSERT INTO envelopes (encrypted_text, short_encrypted_text, emotional_signature, encryption_method)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	// The signature travels as JSONB so its label maps survive intact.
	signatureJSON, err := json.Marshal(env.EmotionalSignature)
	if err != nil {
		return nil, fmt.Errorf("envelope repo: marshal signature: %w", err)
	}

	stored := domain.StoredEnvelope{Envelope: *env}
	err = r.pool.QueryRow(ctx, query,
		env.EncryptedText,
		env.ShortEncryptedText,
		signatureJSON,
		env.EncryptionMethod,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("envelope repo: insert: %w", err)
	}

	return &stored, nil
}

// GetByID fetches a stored envelope, mapping missing rows to the domain error.
func (r *EnvelopeRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.StoredEnvelope, error) {
	query := `
		SELECT id, encrypted_text, short_encrypted_text, emotional_signature, encryption_method, created_at
		FROM envelopes
		WHERE id = $1
	`

	stored, err := scanStoredEnvelope(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEnvelopeNotFound
		}
		return nil, fmt.Errorf("envelope repo: get: %w", err)
	}
	return stored, nil
}

// List returns the most recent envelopes, newest first.
func (r *EnvelopeRepo) List(ctx context.Context, limit int) ([]domain.StoredEnvelope, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `
		SELECT id, encrypted_text, short_encrypted_text, emotional_signature, encryption_method, created_at
		FROM envelopes
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("envelope repo: list: %w", err)
	}
	defer rows.Close()

	var out []domain.StoredEnvelope
	for rows.Next() {
		stored, err := scanStoredEnvelope(rows)
		if err != nil {
			return nil, fmt.Errorf("envelope repo: scan: %w", err)
		}
		out = append(out, *stored)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStoredEnvelope(row rowScanner) (*domain.StoredEnvelope, error) {
	var stored domain.StoredEnvelope
	var signatureJSON []byte

	err := row.Scan(
		&stored.ID,
		&stored.Envelope.EncryptedText,
		&stored.Envelope.ShortEncryptedText,
		&signatureJSON,
		&stored.Envelope.EncryptionMethod,
		&stored.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(signatureJSON, &stored.Envelope.EmotionalSignature); err != nil {
		return nil, err
	}
	return &stored, nil
}
