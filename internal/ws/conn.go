package ws

import (
	"context"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

// Outbox is the write side of one connection as the relay sees it.
// Enqueue must never block; it reports false when the recipient cannot
// keep up and the payload was dropped.
type Outbox interface {
	ID() string
	Enqueue(payload []byte) bool
}

// Conn wraps one websocket connection: a unique identity, a buffered
// outbound queue drained by a single writer goroutine, and a read side
// consumed by the session loop. The single writer preserves per-recipient
// delivery order.
type Conn struct {
	id  string
	ws  *websocket.Conn
	out chan []byte
}

// Accept upgrades HTTP to websocket (allow all origins)
func Accept(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
}

// NewConn wraps a websocket connection under the given identity
func NewConn(ws *websocket.Conn, id string) *Conn {
	return &Conn{
		id:  id,
		ws:  ws,
		out: make(chan []byte, 256),
	}
}

func (c *Conn) ID() string { return c.id }

// Enqueue queues a payload for delivery without blocking.
func (c *Conn) Enqueue(payload []byte) bool {
	select {
	case c.out <- payload:
		return true
	default:
		return false
	}
}

// Read blocks until it receives a text/binary frame.
// Returns false when the connection is closed or errored.
func (c *Conn) Read(ctx context.Context) ([]byte, bool) {
	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			return nil, false
		}
		if typ == websocket.MessageText || typ == websocket.MessageBinary {
			return data, true
		}
	}
}

// WriteLoop drains the outbound queue and pings periodically so dead
// transports surface as read errors within a bounded interval.
// Exits when ctx is cancelled.
func (c *Conn) WriteLoop(ctx context.Context) {
	t := time.NewTicker(20 * time.Second)
	defer t.Stop()

	for {
		select {
		case b := <-c.out:
			_ = c.ws.Write(ctx, websocket.MessageText, b)
		case <-t.C:
			_ = c.ws.Ping(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// SetReadLimit caps inbound frame size
func (c *Conn) SetReadLimit(n int64) { c.ws.SetReadLimit(n) }

// Close closes the connection normally
func (c *Conn) Close() error { return c.ws.Close(websocket.StatusNormalClosure, "bye") }
