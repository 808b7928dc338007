// Package project implements project lookups over the db facade.
package project

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/collabtask/collabtask/internal/domain"
)

const keyPrefix = "collabtask:"

// store is the consumer interface for project lookups.
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	SMembers(ctx context.Context, key string) ([]string, error)
	SIsMember(ctx context.Context, key, member string) (bool, error)
}

// Repo implements the project lookup contracts of the access and search
// use cases.
type Repo struct {
	store store
}

// New creates a project repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// FindAccessibleByUser returns every project the user owns or belongs to.
func (r *Repo) FindAccessibleByUser(ctx context.Context, userID int64) ([]domain.Project, error) {
	raw, err := r.store.SMembers(ctx, userProjectsKey(userID))
	if err != nil {
		return nil, fmt.Errorf("%w: projects of user %d: %w", domain.ErrUnavailable, userID, err)
	}
	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	// SMEMBERS order is not guaranteed; sort so the enumeration order is
	// stable across calls.
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return r.FindByIDs(ctx, ids)
}

// FindByIDs bulk-fetches projects in ID order, one round-trip.
func (r *Repo) FindByIDs(ctx context.Context, ids []int64) ([]domain.Project, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = projectKey(id)
	}
	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch projects: %w", domain.ErrUnavailable, err)
	}
	projects := make([]domain.Project, 0, len(hashes))
	for i, h := range hashes {
		if len(h) == 0 {
			continue
		}
		projects = append(projects, parseProject(ids[i], h))
	}
	return projects, nil
}

// FindByID returns one project or domain.ErrNotFound.
func (r *Repo) FindByID(ctx context.Context, id int64) (domain.Project, error) {
	h, err := r.store.HGetAll(ctx, projectKey(id))
	if err != nil {
		return domain.Project{}, fmt.Errorf("%w: fetch project %d: %w", domain.ErrUnavailable, id, err)
	}
	if len(h) == 0 {
		return domain.Project{}, fmt.Errorf("project %d: %w", id, domain.ErrNotFound)
	}
	return parseProject(id, h), nil
}

// HasMember reports whether the user owns or belongs to the project.
func (r *Repo) HasMember(ctx context.Context, projectID, userID int64) (bool, error) {
	ok, err := r.store.SIsMember(ctx, userProjectsKey(userID), strconv.FormatInt(projectID, 10))
	if err != nil {
		return false, fmt.Errorf("%w: membership of user %d in project %d: %w",
			domain.ErrUnavailable, userID, projectID, err)
	}
	return ok, nil
}

func projectKey(id int64) string {
	return keyPrefix + "project:" + strconv.FormatInt(id, 10)
}

func userProjectsKey(userID int64) string {
	return keyPrefix + "user:" + strconv.FormatInt(userID, 10) + ":projects"
}

func parseProject(id int64, h map[string]string) domain.Project {
	return domain.Project{
		ID:          id,
		Name:        h["name"],
		Description: h["description"],
		Status:      h["status"],
		OwnerID:     parseInt(h["owner_id"]),
		CreatedAt:   parseTime(h["created_at"]),
	}
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
