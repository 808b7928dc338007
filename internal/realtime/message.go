// Package realtime implements the live-update fan-out: the wire message
// format, per-connection handles with bounded async sends, the session
// registry, and the best-effort broadcaster.
package realtime

import "time"

// Message types on the wire. The client protocol predates this service, so
// the JSON shape must stay bit-compatible.
const (
	TypeChat              = "chat"
	TypeNotification      = "notification"
	TypeTaskUpdate        = "task_update"
	TypeNotificationCount = "notification_count"
	TypeSystem            = "system"
	TypeError             = "error"
	TypeMarkRead          = "mark_read"
)

// SystemSender marks server-originated messages.
const SystemSender = "System"

// Message is one realtime frame. Content often carries a JSON-encoded
// sub-payload; the envelope does not interpret it.
type Message struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient,omitempty"`
	ObjectID  int64  `json:"objectId,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// NewMessage creates a broadcast message. The timestamp is assigned at
// construction, in epoch milliseconds.
func NewMessage(msgType, content, sender string) Message {
	return Message{
		Type:      msgType,
		Content:   content,
		Sender:    sender,
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewDirectMessage creates a message addressed to one recipient, optionally
// referencing an object (task, notification).
func NewDirectMessage(msgType, content, sender, recipient string, objectID int64) Message {
	m := NewMessage(msgType, content, sender)
	m.Recipient = recipient
	m.ObjectID = objectID
	return m
}
