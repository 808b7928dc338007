package realtime

import (
	"strconv"

	"go.uber.org/zap"
)

// Broadcaster pushes messages to live connections. Delivery is best
// effort: the notification row is already stored by the time a message
// reaches here, so a dropped send is invisible to durability.
type Broadcaster struct {
	registry *Registry
	logger   *zap.Logger
}

// NewBroadcaster creates a broadcaster over the given registry.
func NewBroadcaster(registry *Registry, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{registry: registry, logger: logger}
}

// SendToUser pushes a message to one user's live connection. A user with
// no live handle is a no-op; the message is simply dropped.
func (b *Broadcaster) SendToUser(userID int64, msg Message) {
	c := b.registry.Lookup(userID)
	if c == nil {
		return
	}
	if err := c.Send(msg); err != nil {
		b.logger.Warn("dropping realtime message",
			zap.Int64("user_id", userID),
			zap.String("type", msg.Type),
			zap.Error(err),
		)
		if c.Closed() {
			b.registry.Unregister(userID, c)
		}
	}
}

// BroadcastToProject pushes a message to every watcher of a project. A
// handle that fails mid-broadcast is skipped, never retried, and evicted
// from the watcher set if closed; delivery to the remaining handles
// continues regardless.
func (b *Broadcaster) BroadcastToProject(projectID int64, msg Message) {
	for _, c := range b.registry.Watchers(projectID) {
		err := c.Send(msg)
		if err == nil {
			continue
		}
		b.logger.Warn("skipping watcher during broadcast",
			zap.Int64("project_id", projectID),
			zap.String("type", msg.Type),
			zap.Error(err),
		)
		if c.Closed() {
			b.registry.Unwatch(projectID, c)
		}
	}
}

// FormatUserID renders a user ID the way the wire format spells senders
// and recipients.
func FormatUserID(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
