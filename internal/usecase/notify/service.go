// Package notify creates notifications and pushes them to live
// connections. Persistence always happens first: a user with no open
// connection sees the notification on next login, so a failed push is
// never an error.
package notify

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/collabtask/collabtask/internal/domain"
	"github.com/collabtask/collabtask/internal/realtime"
)

// Service persists notifications and fans them out.
type Service struct {
	store  NotificationStore
	pusher Pusher
	logger *zap.Logger
}

// New creates a notification service.
func New(store NotificationStore, pusher Pusher, logger *zap.Logger) *Service {
	return &Service{store: store, pusher: pusher, logger: logger}
}

// NotifyUser stores a notification for the user and pushes it, plus the
// updated unread count, to the user's live connection if any.
func (s *Service) NotifyUser(ctx context.Context, userID int64, content, msgType string, objectID int64) (domain.Notification, error) {
	if msgType == "" {
		msgType = realtime.TypeNotification
	}

	n := domain.Notification{
		UserID:   userID,
		Content:  content,
		Type:     msgType,
		ObjectID: objectID,
	}
	if err := s.store.Create(ctx, &n); err != nil {
		return domain.Notification{}, fmt.Errorf("notify user %d: %w", userID, err)
	}

	s.pusher.SendToUser(userID, realtime.NewDirectMessage(
		msgType, content, realtime.SystemSender, realtime.FormatUserID(userID), objectID,
	))
	s.pushUnreadCount(ctx, userID)

	return n, nil
}

// NotifyTaskUpdate broadcasts a task change to everyone watching the
// project. Nothing is persisted; watchers that miss it catch up from
// storage on their next load.
func (s *Service) NotifyTaskUpdate(projectID, taskID int64, content, sender string) {
	s.pusher.BroadcastToProject(projectID, realtime.NewDirectMessage(
		realtime.TypeTaskUpdate, content, sender, "", taskID,
	))
}

// MarkRead marks one of the user's notifications as read and pushes the
// updated unread count. A user can only touch their own notifications.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID int64) error {
	n, err := s.store.FindByID(ctx, notificationID)
	if err != nil {
		return fmt.Errorf("mark read %d: %w", notificationID, err)
	}
	if n.UserID != userID {
		return fmt.Errorf("mark read %d: %w", notificationID, domain.ErrAccessDenied)
	}

	if err := s.store.MarkRead(ctx, notificationID); err != nil {
		return fmt.Errorf("mark read %d: %w", notificationID, err)
	}

	s.pushUnreadCount(ctx, userID)
	return nil
}

// UnreadCount returns the user's unread notification count.
func (s *Service) UnreadCount(ctx context.Context, userID int64) (int, error) {
	count, err := s.store.UnreadCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("unread count for user %d: %w", userID, err)
	}
	return count, nil
}

func (s *Service) pushUnreadCount(ctx context.Context, userID int64) {
	count, err := s.store.UnreadCount(ctx, userID)
	if err != nil {
		s.logger.Warn("skipping unread count push",
			zap.Int64("user_id", userID),
			zap.Error(err))
		return
	}
	s.pusher.SendToUser(userID, realtime.NewMessage(
		realtime.TypeNotificationCount, strconv.Itoa(count), realtime.SystemSender,
	))
}
