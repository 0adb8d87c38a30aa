// Package writer publishes envelopes as newline-delimited JSON to an io.Writer.
package writer

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/jbctechsolutions/answerstream/internal/application/ports"
)

// Publisher writes one payload per line. It is safe for concurrent use;
// lines from different goroutines never interleave.
type Publisher struct {
	mu sync.Mutex
	w  io.Writer
}

// Ensure Publisher implements ports.PublisherPort.
var _ ports.PublisherPort = (*Publisher)(nil)

// New creates a publisher writing to w.
func New(w io.Writer) *Publisher {
	return &Publisher{w: w}
}

// Publish writes payload followed by a newline.
func (p *Publisher) Publish(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	line := make([]byte, 0, len(payload)+1)
	line = append(append(line, payload...), '\n')
	if _, err := p.w.Write(line); err != nil {
		return fmt.Errorf("write envelope: %w", err)
	}
	return nil
}
