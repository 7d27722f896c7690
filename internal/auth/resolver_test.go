package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logify-sh/logify/internal/model"
)

// memKeyStore is an in-memory CredentialStore + KeyStore.
type memKeyStore struct {
	mu       sync.Mutex
	keys     map[uuid.UUID]*model.APIKey
	touched  chan uuid.UUID
	touchErr error
}

func newMemKeyStore() *memKeyStore {
	return &memKeyStore{
		keys:    make(map[uuid.UUID]*model.APIKey),
		touched: make(chan uuid.UUID, 8),
	}
}

func (s *memKeyStore) FindActiveByHash(_ context.Context, keyHash string) (*model.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.keys {
		if k.KeyHash == keyHash && k.Active() {
			cp := *k
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memKeyStore) TouchLastUsed(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.touchErr != nil {
		return s.touchErr
	}
	if k, ok := s.keys[id]; ok {
		k.LastUsedAt = &at
	}
	s.touched <- id
	return nil
}

func (s *memKeyStore) Insert(_ context.Context, key *model.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *key
	s.keys[key.ID] = &cp
	return nil
}

func (s *memKeyStore) Revoke(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if k, ok := s.keys[id]; ok {
		k.RevokedAt = &at
	}
	return nil
}

func TestResolver_MalformedAndUnknownAreIndistinguishable(t *testing.T) {
	r := NewResolver(newMemKeyStore(), nil, zerolog.Nop())

	for _, raw := range []string{"", "not-a-key", "sk_live_abc", KeyPrefix + "neverissued"} {
		_, err := r.Resolve(context.Background(), raw)
		assert.ErrorIs(t, err, ErrUnauthenticated, "raw=%q", raw)
	}
}

func TestResolver_RoundTrip(t *testing.T) {
	store := newMemKeyStore()
	svc := NewKeyService(store, nil)
	r := NewResolver(store, nil, zerolog.Nop())
	ctx := context.Background()

	raw, key, err := svc.Create(ctx, "user-1", "proj-1", "ci key")
	require.NoError(t, err)

	id, err := r.Resolve(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, key.ID, id.KeyID)
	assert.Equal(t, "user-1", id.UserID)
	assert.Equal(t, "proj-1", id.ProjectID)
	assert.Equal(t, "apikey:"+key.ID.String(), id.LimiterKey())

	// The last-used update is detached; wait for it rather than sleeping.
	select {
	case touched := <-store.touched:
		assert.Equal(t, key.ID, touched)
	case <-time.After(2 * time.Second):
		t.Fatal("last-used update never ran")
	}

	require.NoError(t, svc.Revoke(ctx, key.ID))
	_, err = r.Resolve(ctx, raw)
	assert.ErrorIs(t, err, ErrUnauthenticated, "revoked key resolves like an unknown one")
}

func TestResolver_TouchFailureDoesNotFailResolution(t *testing.T) {
	store := newMemKeyStore()
	store.touchErr = errors.New("store down")
	svc := NewKeyService(store, nil)
	r := NewResolver(store, nil, zerolog.Nop())
	ctx := context.Background()

	raw, _, err := svc.Create(ctx, "user-1", "proj-1", "ci key")
	require.NoError(t, err)

	_, err = r.Resolve(ctx, raw)
	assert.NoError(t, err)
}
