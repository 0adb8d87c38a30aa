package ports

import (
	"context"

	"github.com/jbctechsolutions/answerstream/internal/domain/answer"
	"github.com/jbctechsolutions/answerstream/internal/domain/provider"
)

// StreamCallback receives the token events produced by a provider adapter.
// Returning an error aborts the stream.
type StreamCallback interface {
	HandleToken(ctx context.Context, ev answer.TokenEvent) error
}

// StreamCallbackFunc adapts an ordinary function to StreamCallback.
type StreamCallbackFunc func(ctx context.Context, ev answer.TokenEvent) error

// HandleToken calls f(ctx, ev).
func (f StreamCallbackFunc) HandleToken(ctx context.Context, ev answer.TokenEvent) error {
	return f(ctx, ev)
}

// Prompt is the input handed to a provider adapter.
type Prompt struct {
	System   string
	Question string
	// Context is optional retrieved text the answer should be grounded on.
	Context string
}

// UserMessage renders the question, preceded by the context when present.
func (p Prompt) UserMessage() string {
	if p.Context == "" {
		return p.Question
	}
	return "Context:\n" + p.Context + "\n\nQuestion: " + p.Question
}

// AdapterInfo describes a constructed adapter.
type AdapterInfo struct {
	Kind    provider.Kind
	Model   string
	ModelID string
}

// AdapterConfig carries everything a factory needs to build an adapter.
// The selector validates required capabilities before a factory sees it.
type AdapterConfig struct {
	Descriptor  provider.Descriptor
	Callback    StreamCallback
	APIKey      string
	MaxTokens   int
	Temperature float64
}

// ProviderAdapter streams a completion for one prompt into the callback it
// was constructed with. A successful stream ends with a final token event;
// transport failures are returned without emitting one.
type ProviderAdapter interface {
	Info() AdapterInfo
	Stream(ctx context.Context, prompt Prompt) error
}

// AdapterFactory constructs adapters for a single provider kind.
type AdapterFactory interface {
	Construct(cfg AdapterConfig) (ProviderAdapter, error)
}

// AdapterFactoryFunc adapts an ordinary function to AdapterFactory.
type AdapterFactoryFunc func(cfg AdapterConfig) (ProviderAdapter, error)

// Construct calls f(cfg).
func (f AdapterFactoryFunc) Construct(cfg AdapterConfig) (ProviderAdapter, error) {
	return f(cfg)
}
