package model

import (
	"time"

	"github.com/google/uuid"
)

// APIKey is an ingestion credential. The raw secret is shown once at
// creation; only the SHA-256 digest and a short display prefix are stored.
type APIKey struct {
	ID         uuid.UUID  `db:"id"`
	UserID     string     `db:"user_id"`
	ProjectID  string     `db:"project_id"`
	KeyHash    string     `db:"key_hash"`
	KeyPrefix  string     `db:"key_prefix"`
	Name       string     `db:"name"`
	CreatedAt  time.Time  `db:"created_at"`
	RevokedAt  *time.Time `db:"revoked_at"`
	LastUsedAt *time.Time `db:"last_used_at"`
}

// Active reports whether the key is usable for ingestion.
func (k *APIKey) Active() bool { return k.RevokedAt == nil }
