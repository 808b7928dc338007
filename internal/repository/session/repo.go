// Package session implements the bearer-token session store. Session
// establishment itself belongs to the auth collaborator; this repo only
// resolves and records tokens.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/collabtask/collabtask/internal/db"
	"github.com/collabtask/collabtask/internal/domain"
)

const keyPrefix = "collabtask:"

// store is the consumer interface for session tokens.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Repo resolves session tokens to user IDs.
type Repo struct {
	store store
	ttl   time.Duration
}

// New creates a session repository with the given token lifetime.
func New(s store, ttl time.Duration) *Repo {
	return &Repo{store: s, ttl: ttl}
}

// Resolve maps a token to the authenticated user's ID. An unknown or
// expired token yields domain.ErrUnauthenticated.
func (r *Repo) Resolve(ctx context.Context, token string) (int64, error) {
	raw, err := r.store.Get(ctx, sessionKey(token))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, domain.ErrUnauthenticated
		}
		return 0, fmt.Errorf("%w: resolve session: %w", domain.ErrUnavailable, err)
	}
	userID, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, domain.ErrUnauthenticated
	}
	return userID, nil
}

// Put records a token for a user, refreshing the TTL.
func (r *Repo) Put(ctx context.Context, token string, userID int64) error {
	value := []byte(strconv.FormatInt(userID, 10))
	if err := r.store.SetWithTTL(ctx, sessionKey(token), value, r.ttl); err != nil {
		return fmt.Errorf("%w: store session: %w", domain.ErrUnavailable, err)
	}
	return nil
}

// Delete drops a token (logout).
func (r *Repo) Delete(ctx context.Context, token string) error {
	if err := r.store.Del(ctx, sessionKey(token)); err != nil {
		return fmt.Errorf("%w: delete session: %w", domain.ErrUnavailable, err)
	}
	return nil
}

func sessionKey(token string) string {
	return keyPrefix + "session:" + token
}
