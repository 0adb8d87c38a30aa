// Package websocket publishes envelopes as text frames on a gorilla/websocket
// connection.
package websocket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jbctechsolutions/answerstream/internal/application/ports"
)

// DefaultWriteTimeout bounds a single frame write.
const DefaultWriteTimeout = 10 * time.Second

// Publisher writes each payload as one text message. gorilla connections
// allow a single concurrent writer, so writes are serialized.
type Publisher struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration
}

// Ensure Publisher implements ports.PublisherPort.
var _ ports.PublisherPort = (*Publisher)(nil)

// Option configures a Publisher.
type Option func(*Publisher)

// WithWriteTimeout sets the per-frame write deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.writeTimeout = d
		}
	}
}

// New creates a publisher for conn. The caller keeps ownership of conn.
func New(conn *websocket.Conn, opts ...Option) *Publisher {
	p := &Publisher{conn: conn, writeTimeout: DefaultWriteTimeout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish writes payload as a text frame.
func (p *Publisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	deadline := time.Now().Add(p.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := p.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := p.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("write websocket message: %w", err)
	}
	return nil
}

// Close sends a normal closure frame.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	return p.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(p.writeTimeout))
}
