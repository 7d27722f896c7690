package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/logify-sh/logify/internal/model"
)

// APIKeyRepository persists ingestion credentials. It implements
// auth.CredentialStore and auth.KeyStore.
type APIKeyRepository struct {
	pool *pgxpool.Pool
}

func NewAPIKeyRepository(pool *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

// FindActiveByHash returns the non-revoked key with the given digest, or
// nil if none exists. Revoked keys are deliberately invisible here.
func (r *APIKeyRepository) FindActiveByHash(ctx context.Context, keyHash string) (*model.APIKey, error) {
	var k model.APIKey
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, project_id, key_hash, key_prefix, name, created_at, revoked_at, last_used_at
		FROM api_keys
		WHERE key_hash = $1 AND revoked_at IS NULL`, keyHash).Scan(
		&k.ID,
		&k.UserID,
		&k.ProjectID,
		&k.KeyHash,
		&k.KeyPrefix,
		&k.Name,
		&k.CreatedAt,
		&k.RevokedAt,
		&k.LastUsedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &k, nil
}

// TouchLastUsed records when the key last authenticated a request.
func (r *APIKeyRepository) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE api_keys SET last_used_at = $2 WHERE id = $1`, id, at)
	return err
}

// Insert stores a new key.
func (r *APIKeyRepository) Insert(ctx context.Context, key *model.APIKey) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO api_keys (id, user_id, project_id, key_hash, key_prefix, name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		key.ID,
		key.UserID,
		key.ProjectID,
		key.KeyHash,
		key.KeyPrefix,
		key.Name,
		key.CreatedAt,
	)
	return err
}

// Revoke soft-deletes the key; the row stays for audit history.
func (r *APIKeyRepository) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE api_keys SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`, id, at)
	return err
}
