package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/logify-sh/logify/internal/clock"
	"github.com/logify-sh/logify/internal/model"
)

// KeyStore is the persistence surface for key lifecycle operations.
type KeyStore interface {
	Insert(ctx context.Context, key *model.APIKey) error
	Revoke(ctx context.Context, id uuid.UUID, at time.Time) error
}

// KeyService creates and revokes ingestion keys. Keys are soft-deleted:
// revocation sets revoked_at and leaves the row for audit history.
type KeyService struct {
	store KeyStore
	clock clock.Clock
}

func NewKeyService(store KeyStore, clk clock.Clock) *KeyService {
	if clk == nil {
		clk = clock.System{}
	}
	return &KeyService{store: store, clock: clk}
}

// Create mints a key for the given owner and project. The raw key is
// returned exactly once; only its digest and display prefix are persisted.
func (s *KeyService) Create(ctx context.Context, userID, projectID, name string) (string, *model.APIKey, error) {
	raw, prefix, err := GenerateKey()
	if err != nil {
		return "", nil, err
	}
	key := &model.APIKey{
		ID:        uuid.New(),
		UserID:    userID,
		ProjectID: projectID,
		KeyHash:   HashKey(raw),
		KeyPrefix: prefix,
		Name:      name,
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.Insert(ctx, key); err != nil {
		return "", nil, err
	}
	return raw, key, nil
}

// Revoke disables the key for ingestion from this instant on.
func (s *KeyService) Revoke(ctx context.Context, id uuid.UUID) error {
	return s.store.Revoke(ctx, id, s.clock.Now())
}
