// Package openai streams chat completions from the OpenAI API into a
// token callback using the official openai-go client.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/jbctechsolutions/answerstream/internal/application/ports"
	"github.com/jbctechsolutions/answerstream/internal/domain/answer"
	domainErrors "github.com/jbctechsolutions/answerstream/internal/domain/errors"
	"github.com/jbctechsolutions/answerstream/internal/domain/provider"
)

// DefaultTimeout bounds one streaming request.
const DefaultTimeout = 60 * time.Second

// Factory builds OpenAI adapters. It implements ports.AdapterFactory.
type Factory struct {
	baseURL    string
	httpClient *http.Client
}

// Ensure Factory implements ports.AdapterFactory.
var _ ports.AdapterFactory = (*Factory)(nil)

// FactoryOption is a functional option for configuring the Factory.
type FactoryOption func(*Factory)

// WithBaseURL points adapters at an OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) FactoryOption {
	return func(f *Factory) { f.baseURL = baseURL }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) FactoryOption {
	return func(f *Factory) {
		if timeout > 0 {
			f.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) FactoryOption {
	return func(f *Factory) {
		if c != nil {
			f.httpClient = c
		}
	}
}

// NewFactory creates an OpenAI adapter factory.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{httpClient: &http.Client{Timeout: DefaultTimeout}}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Construct builds an adapter for cfg. The API key and callback are required.
func (f *Factory) Construct(cfg ports.AdapterConfig) (ports.ProviderAdapter, error) {
	if cfg.Callback == nil {
		return nil, &domainErrors.MissingCapabilityError{Provider: provider.KindOpenAI.DisplayName(), Capability: string(provider.CapabilityCallback)}
	}
	if cfg.APIKey == "" {
		return nil, &domainErrors.MissingCapabilityError{Provider: provider.KindOpenAI.DisplayName(), Capability: string(provider.CapabilityAPIKey)}
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(f.httpClient),
		option.WithMaxRetries(0),
	}
	if f.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(f.baseURL))
	}

	client := openai.NewClient(reqOpts...)
	return &Adapter{client: &client, cfg: cfg}, nil
}

// Adapter streams one model's completions into its callback.
type Adapter struct {
	client *openai.Client
	cfg    ports.AdapterConfig
}

// Info describes the adapter.
func (a *Adapter) Info() ports.AdapterInfo {
	return ports.AdapterInfo{
		Kind:    provider.KindOpenAI,
		Model:   a.cfg.Descriptor.Name,
		ModelID: a.cfg.Descriptor.ModelID,
	}
}

// Stream sends the prompt and forwards every content delta as a token event,
// followed by a final event once the stream completes. Callback errors stop
// the stream and are returned unchanged.
func (a *Adapter) Stream(ctx context.Context, prompt ports.Prompt) error {
	stream := a.client.Chat.Completions.NewStreaming(ctx, a.params(prompt))
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			if err := a.cfg.Callback.HandleToken(ctx, answer.Token(choice.Delta.Content)); err != nil {
				return err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("openai streaming error: %w", err)
	}

	return a.cfg.Callback.HandleToken(ctx, answer.Final())
}

func (a *Adapter) params(prompt ports.Prompt) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	if prompt.System != "" {
		messages = append(messages, openai.SystemMessage(prompt.System))
	}
	messages = append(messages, openai.UserMessage(prompt.UserMessage()))

	params := openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       a.cfg.Descriptor.ModelID,
		Temperature: openai.Float(a.cfg.Temperature),
	}
	if a.cfg.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(a.cfg.MaxTokens))
	}
	return params
}
