// Package notification implements the notification system of record. A
// row here is durable regardless of whether the realtime push reaches a
// live connection.
package notification

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/collabtask/collabtask/internal/domain"
)

const keyPrefix = "collabtask:"

// store is the consumer interface for notification persistence.
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	Incr(ctx context.Context, key string) (int64, error)
}

// Repo implements the notify use case's persistence contract.
type Repo struct {
	store store
}

// New creates a notification repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create persists a notification, allocating its ID. The ID is written
// back into n.
func (r *Repo) Create(ctx context.Context, n *domain.Notification) error {
	id, err := r.store.Incr(ctx, keyPrefix+"seq:notification")
	if err != nil {
		return fmt.Errorf("%w: allocate notification id: %w", domain.ErrUnavailable, err)
	}
	n.ID = id
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	fields := map[string]string{
		"user_id":    strconv.FormatInt(n.UserID, 10),
		"content":    n.Content,
		"type":       n.Type,
		"object_id":  strconv.FormatInt(n.ObjectID, 10),
		"read":       boolField(n.Read),
		"created_at": n.CreatedAt.Format(time.RFC3339),
	}
	if err := r.store.HSet(ctx, notificationKey(id), fields); err != nil {
		return fmt.Errorf("%w: store notification %d: %w", domain.ErrUnavailable, id, err)
	}
	if err := r.store.SAdd(ctx, userNotificationsKey(n.UserID), strconv.FormatInt(id, 10)); err != nil {
		return fmt.Errorf("%w: index notification %d: %w", domain.ErrUnavailable, id, err)
	}
	return nil
}

// FindByID returns one notification or domain.ErrNotFound.
func (r *Repo) FindByID(ctx context.Context, id int64) (domain.Notification, error) {
	h, err := r.store.HGetAll(ctx, notificationKey(id))
	if err != nil {
		return domain.Notification{}, fmt.Errorf("%w: fetch notification %d: %w", domain.ErrUnavailable, id, err)
	}
	if len(h) == 0 {
		return domain.Notification{}, fmt.Errorf("notification %d: %w", id, domain.ErrNotFound)
	}
	return parseNotification(id, h), nil
}

// MarkRead flags a notification as read.
func (r *Repo) MarkRead(ctx context.Context, id int64) error {
	if err := r.store.HSet(ctx, notificationKey(id), map[string]string{"read": "1"}); err != nil {
		return fmt.Errorf("%w: mark notification %d read: %w", domain.ErrUnavailable, id, err)
	}
	return nil
}

// UnreadCount returns the number of unread notifications for a user.
func (r *Repo) UnreadCount(ctx context.Context, userID int64) (int, error) {
	raw, err := r.store.SMembers(ctx, userNotificationsKey(userID))
	if err != nil {
		return 0, fmt.Errorf("%w: notifications of user %d: %w", domain.ErrUnavailable, userID, err)
	}
	if len(raw) == 0 {
		return 0, nil
	}
	keys := make([]string, len(raw))
	for i, s := range raw {
		keys[i] = keyPrefix + "notification:" + s
	}
	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return 0, fmt.Errorf("%w: fetch notifications of user %d: %w", domain.ErrUnavailable, userID, err)
	}
	count := 0
	for _, h := range hashes {
		if len(h) > 0 && h["read"] != "1" {
			count++
		}
	}
	return count, nil
}

func notificationKey(id int64) string {
	return keyPrefix + "notification:" + strconv.FormatInt(id, 10)
}

func userNotificationsKey(userID int64) string {
	return keyPrefix + "user:" + strconv.FormatInt(userID, 10) + ":notifications"
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func parseNotification(id int64, h map[string]string) domain.Notification {
	n := domain.Notification{
		ID:      id,
		Content: h["content"],
		Type:    h["type"],
		Read:    h["read"] == "1",
	}
	n.UserID, _ = strconv.ParseInt(h["user_id"], 10, 64)
	n.ObjectID, _ = strconv.ParseInt(h["object_id"], 10, 64)
	if v := h["created_at"]; v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			n.CreatedAt = t
		}
	}
	return n
}
