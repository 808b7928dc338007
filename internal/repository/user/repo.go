// Package user implements user account lookups over the db facade.
package user

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/collabtask/collabtask/internal/domain"
)

const keyPrefix = "collabtask:"

// store is the consumer interface for user lookups.
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Repo implements the user lookup contract of the search use case.
type Repo struct {
	store store
}

// New creates a user repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// FindByNameOrEmail returns the first user whose name or email equals the
// normalized query. When activeOnly is set, inactive accounts are skipped.
func (r *Repo) FindByNameOrEmail(ctx context.Context, normalizedQuery string, activeOnly bool) (domain.User, error) {
	raw, err := r.store.SMembers(ctx, keyPrefix+"users")
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: list users: %w", domain.ErrUnavailable, err)
	}
	if len(raw) == 0 {
		return domain.User{}, domain.ErrNotFound
	}

	ids := make([]int64, 0, len(raw))
	keys := make([]string, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
		keys = append(keys, keyPrefix+"user:"+s)
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: fetch users: %w", domain.ErrUnavailable, err)
	}

	for i, h := range hashes {
		if len(h) == 0 {
			continue
		}
		u := parseUser(ids[i], h)
		if activeOnly && !u.Active {
			continue
		}
		if strings.ToLower(u.Name) == normalizedQuery || strings.ToLower(u.Email) == normalizedQuery {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

// FindByID returns one user account.
func (r *Repo) FindByID(ctx context.Context, id int64) (domain.User, error) {
	h, err := r.store.HGetAll(ctx, keyPrefix+"user:"+strconv.FormatInt(id, 10))
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: fetch user %d: %w", domain.ErrUnavailable, id, err)
	}
	if len(h) == 0 {
		return domain.User{}, domain.ErrNotFound
	}
	return parseUser(id, h), nil
}

func parseUser(id int64, h map[string]string) domain.User {
	return domain.User{
		ID:      id,
		Name:    h["name"],
		Email:   h["email"],
		IsAdmin: h["is_admin"] == "1",
		Active:  h["active"] != "0",
	}
}
