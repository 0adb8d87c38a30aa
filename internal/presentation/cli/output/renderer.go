package output

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/jbctechsolutions/answerstream/internal/application/delivery"
	"github.com/jbctechsolutions/answerstream/internal/domain/message"
)

// DefaultPreviewWidth bounds the streamed text shown on the status line.
const DefaultPreviewWidth = 60

// Renderer is a publisher that draws delivered envelopes on a terminal.
// Stream envelopes only update the live status line; the cleaned answer is
// printed once, when the End envelope arrives.
type Renderer struct {
	mu           sync.Mutex
	formatter    *Formatter
	status       *StatusLine
	label        string
	previewWidth int
	streams      int
	answer       string
	failure      string
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithStatusLine shows streaming progress on s. Without one the renderer
// prints nothing until the stream ends.
func WithStatusLine(s *StatusLine) RendererOption {
	return func(r *Renderer) { r.status = s }
}

// WithLabel sets the text shown before the preview, usually the model name.
func WithLabel(label string) RendererOption {
	return func(r *Renderer) { r.label = label }
}

// WithPreviewWidth sets how many trailing runes of streamed text are shown.
func WithPreviewWidth(n int) RendererOption {
	return func(r *Renderer) {
		if n > 0 {
			r.previewWidth = n
		}
	}
}

// NewRenderer creates a Renderer that prints through f.
func NewRenderer(f *Formatter, opts ...RendererOption) *Renderer {
	r := &Renderer{
		formatter:    f,
		label:        "Streaming",
		previewWidth: DefaultPreviewWidth,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Publish decodes one envelope and renders it.
func (r *Renderer) Publish(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env, err := delivery.Decode(payload)
	if err != nil {
		return fmt.Errorf("render envelope: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch env.Type {
	case message.TypeStream:
		r.streams++
		if r.status != nil {
			r.status.Set(r.progress(env.Message))
		}
		return nil
	case message.TypeEnd:
		if r.status != nil {
			r.status.Clear()
		}
		r.answer = env.Message
		if err := r.formatter.Println("%s", env.Message); err != nil {
			return err
		}
		if rel, ok := relevanceOf(env.Data); ok {
			return r.formatter.Println("%s", r.formatter.Dim(rel))
		}
		return nil
	case message.TypeError:
		r.failure = env.Message
		if r.status != nil {
			r.status.Fail(env.Message)
			return nil
		}
		return r.formatter.Error("%s", env.Message)
	default:
		return r.formatter.Info("%s", env.Message)
	}
}

// Streams returns the number of Stream envelopes rendered so far.
func (r *Renderer) Streams() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.streams
}

// Answer returns the text of the End envelope, or "" before it arrives.
func (r *Renderer) Answer() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.answer
}

// Failure returns the message of the Error envelope, if one was rendered.
func (r *Renderer) Failure() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failure
}

func (r *Renderer) progress(text string) string {
	return fmt.Sprintf("%s (%d) %s", r.label, r.streams, preview(text, r.previewWidth))
}

// preview flattens text to one line and keeps its last width runes.
func preview(text string, width int) string {
	flat := strings.Join(strings.Fields(text), " ")
	if n := utf8.RuneCountInString(flat); n > width {
		runes := []rune(flat)
		return "…" + string(runes[n-width:])
	}
	return flat
}

// relevanceOf formats the relevance entry of decoded End data.
func relevanceOf(data any) (string, bool) {
	m, ok := data.(map[string]any)
	if !ok {
		return "", false
	}
	rel, ok := m["relevance"].(map[string]any)
	if !ok {
		return "", false
	}
	method, _ := rel["method"].(string)
	score, ok := rel["score"].(float64)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("relevance %s: %.2f", method, score), true
}
