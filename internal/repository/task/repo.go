// Package task implements task lookups over the db facade.
package task

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/collabtask/collabtask/internal/domain"
)

// store is the consumer interface for task lookups.
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	SMembers(ctx context.Context, key string) ([]string, error)
	SMembersMulti(ctx context.Context, keys []string) ([][]string, error)
}

// Repo implements the task lookup contracts of the access and search use
// cases.
type Repo struct {
	store store
}

// New creates a task repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// FindAccessibleByUser returns every task the user may see: tasks assigned
// to them, tasks they created, and all tasks of projects they belong to.
// The result carries no tasks reachable only through entities outside that
// set.
func (r *Repo) FindAccessibleByUser(ctx context.Context, userID int64) ([]domain.Task, error) {
	ids := make(map[int64]struct{})
	order := make([]int64, 0, 32)
	add := func(raw []string) {
		for _, s := range raw {
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				continue
			}
			if _, seen := ids[id]; !seen {
				ids[id] = struct{}{}
				order = append(order, id)
			}
		}
	}

	assigned, err := r.store.SMembers(ctx, userAssignedKey(userID))
	if err != nil {
		return nil, fmt.Errorf("%w: assigned tasks of user %d: %w", domain.ErrUnavailable, userID, err)
	}
	add(assigned)

	created, err := r.store.SMembers(ctx, userCreatedKey(userID))
	if err != nil {
		return nil, fmt.Errorf("%w: created tasks of user %d: %w", domain.ErrUnavailable, userID, err)
	}
	add(created)

	projectIDs, err := r.store.SMembers(ctx, userProjectsKey(userID))
	if err != nil {
		return nil, fmt.Errorf("%w: projects of user %d: %w", domain.ErrUnavailable, userID, err)
	}
	if len(projectIDs) > 0 {
		keys := make([]string, 0, len(projectIDs))
		for _, p := range projectIDs {
			id, err := strconv.ParseInt(p, 10, 64)
			if err != nil {
				continue
			}
			keys = append(keys, projectTasksKey(id))
		}
		taskSets, err := r.store.SMembersMulti(ctx, keys)
		if err != nil {
			return nil, fmt.Errorf("%w: project tasks for user %d: %w", domain.ErrUnavailable, userID, err)
		}
		for _, set := range taskSets {
			add(set)
		}
	}

	// SMEMBERS order is not guaranteed; sort so the enumeration order is
	// stable across calls.
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	return r.FindByIDs(ctx, order)
}

// FindByIDs bulk-fetches tasks in ID order, one round-trip. IDs of deleted
// tasks are skipped.
func (r *Repo) FindByIDs(ctx context.Context, ids []int64) ([]domain.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = taskKey(id)
	}
	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch tasks: %w", domain.ErrUnavailable, err)
	}
	tasks := make([]domain.Task, 0, len(hashes))
	for i, h := range hashes {
		if len(h) == 0 {
			continue
		}
		tasks = append(tasks, parseTask(ids[i], h))
	}
	return tasks, nil
}

// FindByID returns one task or domain.ErrNotFound.
func (r *Repo) FindByID(ctx context.Context, id int64) (domain.Task, error) {
	h, err := r.store.HGetAll(ctx, taskKey(id))
	if err != nil {
		return domain.Task{}, fmt.Errorf("%w: fetch task %d: %w", domain.ErrUnavailable, id, err)
	}
	if len(h) == 0 {
		return domain.Task{}, fmt.Errorf("task %d: %w", id, domain.ErrNotFound)
	}
	return parseTask(id, h), nil
}
