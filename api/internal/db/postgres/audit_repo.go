package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"emotioncrypt/api/internal/core/domain"
)

// AuditRepo persists the plaintext-free operation log.
//
// Schema:
//
//	CREATE TABLE cipher_audit (
//	    id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
//	    kind             TEXT NOT NULL,
//	    short_text       TEXT NOT NULL,
//	    primary_emotions JSONB NOT NULL,
//	    method           TEXT NOT NULL,
//	    integrity_ok     BOOLEAN,
//	    created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

// Record persists one operation event with consistent metadata.
func (r *AuditRepo) Record(ctx context.Context, event *domain.AuditEvent) error {
	query := `
		INSERT INTO cipher_audit (kind, short_text, primary_emotions, method, integrity_ok)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	emotionsJSON, err := json.Marshal(event.PrimaryEmotions)
	if err != nil {
		return fmt.Errorf("audit repo: marshal emotions: %w", err)
	}

	err = r.pool.QueryRow(ctx, query,
		event.Kind,
		event.ShortText,
		emotionsJSON,
		event.Method,
		event.IntegrityOK,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("audit repo: insert: %w", err)
	}
	return nil
}

// List returns the most recent events, newest first.
func (r *AuditRepo) List(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `
		SELECT id, kind, short_text, primary_emotions, method, integrity_ok, created_at
		FROM cipher_audit
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("audit repo: list: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditEvent
	for rows.Next() {
		var event domain.AuditEvent
		var emotionsJSON []byte
		if err := rows.Scan(&event.ID, &event.Kind, &event.ShortText, &emotionsJSON, &event.Method, &event.IntegrityOK, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit repo: scan: %w", err)
		}
		if err := json.Unmarshal(emotionsJSON, &event.PrimaryEmotions); err != nil {
			return nil, fmt.Errorf("audit repo: unmarshal emotions: %w", err)
		}
		out = append(out, event)
	}
	return out, rows.Err()
}
