package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/collabtask/collabtask/internal/metrics"
)

// Send errors. Both mean the message was dropped; durable delivery is the
// notification store's job, not the broadcaster's.
var (
	ErrConnClosed = errors.New("realtime: connection closed")
	ErrQueueFull  = errors.New("realtime: send queue full")
)

// Socket is the transport surface a Conn writes to. *websocket.Conn
// satisfies it; tests substitute a fake.
type Socket interface {
	WriteJSON(v any) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Options tune a connection handle.
type Options struct {
	QueueSize   int           // outbound buffer; 0 means 32
	SendTimeout time.Duration // per-write deadline; 0 means 5s
}

// Conn is an opaque handle to one live client connection. All writes go
// through a single writer goroutine fed by a bounded queue, so one slow
// client can never stall a broadcast loop. Once closed, a Conn stays
// closed and every Send fails fast.
type Conn struct {
	ws          Socket
	queue       chan Message
	quit        chan struct{}
	sendTimeout time.Duration
	closeOnce   sync.Once
}

// NewConn wraps an open socket and starts its writer goroutine.
func NewConn(ws Socket, opts Options) *Conn {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 32
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 5 * time.Second
	}
	c := &Conn{
		ws:          ws,
		queue:       make(chan Message, opts.QueueSize),
		quit:        make(chan struct{}),
		sendTimeout: opts.SendTimeout,
	}
	go c.writeLoop()
	return c
}

// Send enqueues a message without blocking. A closed handle or a full
// queue drops the message and reports why.
func (c *Conn) Send(msg Message) error {
	select {
	case <-c.quit:
		return ErrConnClosed
	default:
	}
	select {
	case c.queue <- msg:
		return nil
	case <-c.quit:
		return ErrConnClosed
	default:
		return ErrQueueFull
	}
}

// Close tears the connection down. Idempotent; safe from any goroutine.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.quit)
		_ = c.ws.Close()
	})
}

// CloseWithReason sends a close frame with the given code and reason before
// tearing down. Used for policy-violation handshake rejections.
func (c *Conn) CloseWithReason(code int, reason string) {
	deadline := time.Now().Add(c.sendTimeout)
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	c.Close()
}

// Closed reports whether the handle reached its terminal state.
func (c *Conn) Closed() bool {
	select {
	case <-c.quit:
		return true
	default:
		return false
	}
}

func (c *Conn) writeLoop() {
	for {
		select {
		case <-c.quit:
			return
		case msg := <-c.queue:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.sendTimeout))
			if err := c.ws.WriteJSON(msg); err != nil {
				metrics.SendFailures.Inc()
				c.Close()
				return
			}
			metrics.MessagesSent.WithLabelValues(msg.Type).Inc()
		}
	}
}
