package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/logify-sh/logify/internal/clock"
	"github.com/logify-sh/logify/internal/model"
)

// ErrUnauthenticated is returned for malformed, unknown and revoked keys
// alike, so callers cannot distinguish which applied.
var ErrUnauthenticated = errors.New("invalid or revoked API key")

// Identity is the tenant/project scope a key resolves to.
type Identity struct {
	KeyID     uuid.UUID
	UserID    string
	ProjectID string
}

// LimiterKey is the admission-limiter identity for this credential.
func (id Identity) LimiterKey() string { return "apikey:" + id.KeyID.String() }

// CredentialStore is the persistence surface the resolver needs.
type CredentialStore interface {
	// FindActiveByHash returns the non-revoked key with the given digest,
	// or (nil, nil) when none exists.
	FindActiveByHash(ctx context.Context, keyHash string) (*model.APIKey, error)
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
}

const touchTimeout = 5 * time.Second

// Resolver maps a presented raw key to an Identity.
type Resolver struct {
	store  CredentialStore
	clock  clock.Clock
	logger zerolog.Logger
}

func NewResolver(store CredentialStore, clk clock.Clock, logger zerolog.Logger) *Resolver {
	if clk == nil {
		clk = clock.System{}
	}
	return &Resolver{store: store, clock: clk, logger: logger}
}

// Resolve authenticates a raw key. On success it schedules a detached
// last-used update; that update is never awaited and its failure is only
// logged.
func (r *Resolver) Resolve(ctx context.Context, raw string) (Identity, error) {
	if raw == "" || !strings.HasPrefix(raw, KeyPrefix) {
		return Identity{}, ErrUnauthenticated
	}

	key, err := r.store.FindActiveByHash(ctx, HashKey(raw))
	if err != nil {
		return Identity{}, err
	}
	if key == nil {
		return Identity{}, ErrUnauthenticated
	}

	now := r.clock.Now()
	go func() {
		touchCtx, cancel := context.WithTimeout(context.Background(), touchTimeout)
		defer cancel()
		if err := r.store.TouchLastUsed(touchCtx, key.ID, now); err != nil {
			r.logger.Warn().Err(err).Stringer("key_id", key.ID).Msg("last-used update failed")
		}
	}()

	return Identity{KeyID: key.ID, UserID: key.UserID, ProjectID: key.ProjectID}, nil
}
