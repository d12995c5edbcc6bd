package relay

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Websocket timing defaults and message size limit.
const (
	defaultWriteWait  = 10 * time.Second
	defaultPongWait   = 60 * time.Second
	defaultMaxMsgSize = 1 << 12 // 4 KB
)

// WSOptions tunes a websocket channel. Zero values take the defaults above.
type WSOptions struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
}

func (o WSOptions) withDefaults() WSOptions {
	if o.WriteWait <= 0 {
		o.WriteWait = defaultWriteWait
	}
	if o.PongWait <= 0 {
		o.PongWait = defaultPongWait
	}
	if o.PingPeriod <= 0 || o.PingPeriod >= o.PongWait {
		o.PingPeriod = (o.PongWait * 9) / 10
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = defaultMaxMsgSize
	}
	return o
}

// WSChannel is a Channel backed by a gorilla websocket connection.
type WSChannel struct {
	id     string
	remote string
	conn   *websocket.Conn
	opts   WSOptions

	// writeMu serializes data frames so each peer sees messages in send order.
	writeMu sync.Mutex

	closeOnce sync.Once
	closed    chan struct{}
}

// NewWSChannel wraps an upgraded connection.
func NewWSChannel(conn *websocket.Conn, opts WSOptions) *WSChannel {
	return &WSChannel{
		id:     uuid.NewString(),
		remote: conn.RemoteAddr().String(),
		conn:   conn,
		opts:   opts.withDefaults(),
		closed: make(chan struct{}),
	}
}

// ID returns the channel identity used in logs.
func (c *WSChannel) ID() string { return c.id }

// RemoteAddr returns the peer address.
func (c *WSChannel) RemoteAddr() string { return c.remote }

// Send writes one text frame. The write deadline is the earlier of ctx's deadline and WriteWait.
func (c *WSChannel) Send(ctx context.Context, payload []byte) error {
	select {
	case <-c.closed:
		return ErrChannelClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	deadline := time.Now().Add(c.opts.WriteWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(deadline)
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// ReadLoop drains inbound frames until the peer goes away, handing text payloads to
// onMessage (which may be nil). It also keeps the connection alive with pings.
// It returns the read error that ended the loop.
func (c *WSChannel) ReadLoop(onMessage func([]byte)) error {
	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go c.pingLoop(done)

	for {
		typ, data, err := c.conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		if onMessage != nil && typ == websocket.TextMessage {
			onMessage(data)
		}
	}
}

// pingLoop sends control pings until done or closed. WriteControl may run concurrently with Send.
func (c *WSChannel) pingLoop(done <-chan struct{}) {
	ticker := time.NewTicker(c.opts.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-c.closed:
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.opts.WriteWait)); err != nil {
				return
			}
		}
	}
}

// Close sends a close frame (best effort) and closes the connection. Safe to call more than once.
func (c *WSChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = c.conn.Close()
	})
	return err
}

// IsUnexpectedClose reports whether err is a close other than a normal/going-away one.
func IsUnexpectedClose(err error) bool {
	return websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure)
}
