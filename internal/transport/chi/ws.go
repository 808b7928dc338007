package chi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/collabtask/collabtask/internal/domain"
	"github.com/collabtask/collabtask/internal/metrics"
	"github.com/collabtask/collabtask/internal/realtime"
	notifyuc "github.com/collabtask/collabtask/internal/usecase/notify"
)

// Channel labels for the connection gauge.
const (
	channelNotifications = "notifications"
	channelProject       = "project"
)

// TaskGetter loads a task to validate rebroadcast requests.
type TaskGetter interface {
	FindByID(ctx context.Context, id int64) (domain.Task, error)
}

// ProjectAccessChecker gates the project channel handshake.
type ProjectAccessChecker interface {
	HasProjectAccess(ctx context.Context, userID, projectID int64) (bool, error)
}

// WSHandler hosts the two WebSocket channels: per-user notifications and
// per-project task updates.
type WSHandler struct {
	upgrader    websocket.Upgrader
	registry    *realtime.Registry
	broadcaster *realtime.Broadcaster
	notify      *notifyuc.Service
	access      ProjectAccessChecker
	tasks       TaskGetter
	connOpts    realtime.Options
	logger      *zap.Logger
}

// NewWSHandler creates the WebSocket handler.
func NewWSHandler(
	registry *realtime.Registry,
	broadcaster *realtime.Broadcaster,
	notify *notifyuc.Service,
	access ProjectAccessChecker,
	tasks TaskGetter,
	connOpts realtime.Options,
	logger *zap.Logger,
) *WSHandler {
	return &WSHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		registry:    registry,
		broadcaster: broadcaster,
		notify:      notify,
		access:      access,
		tasks:       tasks,
		connOpts:    connOpts,
		logger:      logger,
	}
}

// Routes mounts the WebSocket endpoints.
func (h *WSHandler) Routes(r chi.Router) {
	r.Get("/ws/notifications", h.handleNotifications)
	r.Get("/ws/projects/{projectID}", h.handleProject)
}

// handleNotifications serves the per-user notification channel. The
// connection is registered for direct pushes; the client may send
// mark_read frames, everything else is ignored.
func (h *WSHandler) handleNotifications(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthenticated, "not authenticated")
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := realtime.NewConn(ws, h.connOpts)
	h.registry.Register(identity.UserID, conn)
	metrics.ActiveConnections.WithLabelValues(channelNotifications).Inc()

	defer func() {
		h.registry.Unregister(identity.UserID, conn)
		conn.Close()
		metrics.ActiveConnections.WithLabelValues(channelNotifications).Dec()
	}()

	_ = conn.Send(realtime.NewMessage(
		realtime.TypeSystem, "Connected to notification service.", realtime.SystemSender,
	))
	if count, err := h.notify.UnreadCount(r.Context(), identity.UserID); err == nil {
		_ = conn.Send(realtime.NewMessage(
			realtime.TypeNotificationCount, strconv.Itoa(count), realtime.SystemSender,
		))
	}

	h.logger.Info("notification channel opened", zap.Int64("user_id", identity.UserID))

	for {
		var msg realtime.Message
		if err := ws.ReadJSON(&msg); err != nil {
			h.logger.Info("notification channel closed",
				zap.Int64("user_id", identity.UserID),
				zap.Error(err))
			return
		}

		switch msg.Type {
		case realtime.TypeMarkRead:
			if msg.ObjectID == 0 {
				continue
			}
			if err := h.notify.MarkRead(r.Context(), identity.UserID, msg.ObjectID); err != nil {
				_ = conn.Send(realtime.NewMessage(
					realtime.TypeError, "Failed to update notification", realtime.SystemSender,
				))
				continue
			}
			_ = conn.Send(realtime.NewMessage(
				realtime.TypeSystem, "Notification marked as read", realtime.SystemSender,
			))
		case realtime.TypeChat:
			h.relayChat(identity.UserID, conn, msg)
		default:
			_ = conn.Send(realtime.NewMessage(
				realtime.TypeError, "Unsupported message type", realtime.SystemSender,
			))
		}
	}
}

// relayChat delivers a direct chat message and echoes it back to the
// sender. The sender field is always rewritten from the session identity.
func (h *WSHandler) relayChat(senderID int64, conn *realtime.Conn, msg realtime.Message) {
	recipientID, err := strconv.ParseInt(msg.Recipient, 10, 64)
	if err != nil || recipientID <= 0 {
		_ = conn.Send(realtime.NewMessage(
			realtime.TypeError, "Invalid chat recipient", realtime.SystemSender,
		))
		return
	}

	if h.registry.Lookup(recipientID) == nil {
		_ = conn.Send(realtime.NewMessage(
			realtime.TypeSystem, "User is offline. Message will be delivered later.", realtime.SystemSender,
		))
		return
	}

	out := realtime.NewDirectMessage(
		realtime.TypeChat, msg.Content, realtime.FormatUserID(senderID), msg.Recipient, 0,
	)
	h.broadcaster.SendToUser(recipientID, out)
	_ = conn.Send(out)
}

// handleProject serves the per-project task update channel. Membership is
// checked before any frame flows; a non-member gets a policy-violation
// close instead of a silent subscription.
func (h *WSHandler) handleProject(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthenticated, "not authenticated")
		return
	}

	projectID, err := strconv.ParseInt(chi.URLParam(r, "projectID"), 10, 64)
	if err != nil || projectID <= 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid project ID")
		return
	}

	allowed, err := h.access.HasProjectAccess(r.Context(), identity.UserID, projectID)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, codeUnavailable, "access check unavailable")
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := realtime.NewConn(ws, h.connOpts)

	if !allowed {
		h.logger.Warn("project channel denied",
			zap.Int64("user_id", identity.UserID),
			zap.Int64("project_id", projectID))
		conn.CloseWithReason(websocket.ClosePolicyViolation, "project access denied")
		return
	}

	h.registry.Watch(projectID, conn)
	metrics.ActiveConnections.WithLabelValues(channelProject).Inc()

	defer func() {
		h.registry.Unwatch(projectID, conn)
		conn.Close()
		metrics.ActiveConnections.WithLabelValues(channelProject).Dec()
	}()

	_ = conn.Send(realtime.NewMessage(
		realtime.TypeSystem,
		fmt.Sprintf("Connected to task update service for project %d", projectID),
		realtime.SystemSender,
	))

	h.logger.Info("project channel opened",
		zap.Int64("user_id", identity.UserID),
		zap.Int64("project_id", projectID))

	for {
		var msg realtime.Message
		if err := ws.ReadJSON(&msg); err != nil {
			h.logger.Info("project channel closed",
				zap.Int64("user_id", identity.UserID),
				zap.Int64("project_id", projectID),
				zap.Error(err))
			return
		}

		if msg.Type != realtime.TypeTaskUpdate {
			continue
		}
		if !h.taskBelongsToProject(r.Context(), msg.ObjectID, projectID) {
			_ = conn.Send(realtime.NewMessage(
				realtime.TypeError, "Invalid task or project", realtime.SystemSender,
			))
			continue
		}

		msg.Sender = realtime.FormatUserID(identity.UserID)
		h.broadcaster.BroadcastToProject(projectID, msg)
	}
}

func (h *WSHandler) taskBelongsToProject(ctx context.Context, taskID, projectID int64) bool {
	if taskID == 0 {
		return false
	}
	task, err := h.tasks.FindByID(ctx, taskID)
	if err != nil {
		return false
	}
	return task.ProjectID == projectID
}
