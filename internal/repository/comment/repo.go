// Package comment implements comment lookups over the db facade.
package comment

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/collabtask/collabtask/internal/domain"
)

const keyPrefix = "collabtask:"

// store is the consumer interface for comment lookups.
type store interface {
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	SMembersMulti(ctx context.Context, keys []string) ([][]string, error)
}

// Repo implements the comment lookup contract of the search use case.
type Repo struct {
	store store
}

// New creates a comment repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// FindByTaskIDs bulk-fetches the comments of the given tasks, grouped by
// task ID. Two round-trips total: one for the per-task comment sets, one
// for the comment hashes.
func (r *Repo) FindByTaskIDs(ctx context.Context, taskIDs []int64) (map[int64][]domain.Comment, error) {
	if len(taskIDs) == 0 {
		return map[int64][]domain.Comment{}, nil
	}

	setKeys := make([]string, len(taskIDs))
	for i, id := range taskIDs {
		setKeys[i] = taskCommentsKey(id)
	}
	sets, err := r.store.SMembersMulti(ctx, setKeys)
	if err != nil {
		return nil, fmt.Errorf("%w: comment sets: %w", domain.ErrUnavailable, err)
	}

	var commentIDs []int64
	for _, set := range sets {
		for _, s := range set {
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				continue
			}
			commentIDs = append(commentIDs, id)
		}
	}
	if len(commentIDs) == 0 {
		return map[int64][]domain.Comment{}, nil
	}

	hashKeys := make([]string, len(commentIDs))
	for i, id := range commentIDs {
		hashKeys[i] = commentKey(id)
	}
	hashes, err := r.store.HGetAllMulti(ctx, hashKeys)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch comments: %w", domain.ErrUnavailable, err)
	}

	out := make(map[int64][]domain.Comment, len(taskIDs))
	for i, h := range hashes {
		if len(h) == 0 {
			continue
		}
		c := parseComment(commentIDs[i], h)
		out[c.TaskID] = append(out[c.TaskID], c)
	}
	return out, nil
}

func taskCommentsKey(taskID int64) string {
	return keyPrefix + "task:" + strconv.FormatInt(taskID, 10) + ":comments"
}

func commentKey(id int64) string {
	return keyPrefix + "comment:" + strconv.FormatInt(id, 10)
}

func parseComment(id int64, h map[string]string) domain.Comment {
	c := domain.Comment{
		ID:      id,
		Content: h["content"],
	}
	c.TaskID, _ = strconv.ParseInt(h["task_id"], 10, 64)
	c.UserID, _ = strconv.ParseInt(h["user_id"], 10, 64)
	if v := h["created_at"]; v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			c.CreatedAt = t
		}
	}
	return c
}
