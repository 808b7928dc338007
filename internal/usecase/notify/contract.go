package notify

import (
	"context"

	"github.com/collabtask/collabtask/internal/domain"
	"github.com/collabtask/collabtask/internal/realtime"
)

// NotificationStore persists notifications independently of live delivery.
type NotificationStore interface {
	Create(ctx context.Context, n *domain.Notification) error
	FindByID(ctx context.Context, id int64) (domain.Notification, error)
	MarkRead(ctx context.Context, id int64) error
	UnreadCount(ctx context.Context, userID int64) (int, error)
}

// Pusher delivers messages to live connections, best effort.
type Pusher interface {
	SendToUser(userID int64, msg realtime.Message)
	BroadcastToProject(projectID int64, msg realtime.Message)
}
