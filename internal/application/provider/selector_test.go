package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbctechsolutions/answerstream/internal/application/ports"
	"github.com/jbctechsolutions/answerstream/internal/domain/answer"
	domainErrors "github.com/jbctechsolutions/answerstream/internal/domain/errors"
	domainProvider "github.com/jbctechsolutions/answerstream/internal/domain/provider"
)

type stubAdapter struct {
	cfg ports.AdapterConfig
}

func (a *stubAdapter) Info() ports.AdapterInfo {
	return ports.AdapterInfo{Kind: a.cfg.Descriptor.Kind, Model: a.cfg.Descriptor.Name, ModelID: a.cfg.Descriptor.ModelID}
}

func (a *stubAdapter) Stream(context.Context, ports.Prompt) error { return nil }

// countingFactory records how often it was asked to construct an adapter.
type countingFactory struct {
	calls int
	err   error
}

func (f *countingFactory) Construct(cfg ports.AdapterConfig) (ports.ProviderAdapter, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &stubAdapter{cfg: cfg}, nil
}

var noopCallback = ports.StreamCallbackFunc(func(context.Context, answer.TokenEvent) error { return nil })

type pointerCallback struct{}

func (*pointerCallback) HandleToken(context.Context, answer.TokenEvent) error { return nil }

func newTestSelector() (*Selector, *countingFactory, *countingFactory) {
	bedrock, openai := &countingFactory{}, &countingFactory{}
	s := NewSelector()
	s.RegisterFactory(domainProvider.KindBedrock, bedrock)
	s.RegisterFactory(domainProvider.KindOpenAI, openai)
	return s, bedrock, openai
}

func TestGetProviderKind(t *testing.T) {
	s := NewSelector()

	tests := []struct {
		model string
		want  domainProvider.Kind
	}{
		{"GPT_4O", domainProvider.KindOpenAI},
		{"GPT_3_5_TURBO", domainProvider.KindOpenAI},
		{"CLAUDE_3_HAIKU", domainProvider.KindBedrock},
		{"TITAN_TEXT_EXPRESS_V1", domainProvider.KindBedrock},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			kind, err := s.GetProviderKind(tt.model)
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestGetProviderKind_Unsupported(t *testing.T) {
	_, err := NewSelector().GetProviderKind("made_up_model")

	var ume *domainErrors.UnsupportedModelError
	require.ErrorAs(t, err, &ume)
	assert.Equal(t, "made_up_model", ume.Model)
	assert.ErrorIs(t, err, domainErrors.ErrUnsupportedModel)
}

func TestGetProvider(t *testing.T) {
	s, bedrock, openai := newTestSelector()

	adapter, err := s.GetProvider("CLAUDE_3_HAIKU", noopCallback, "", 1000, 0.7)
	require.NoError(t, err)
	assert.Equal(t, domainProvider.KindBedrock, adapter.Info().Kind)
	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", adapter.Info().ModelID)
	assert.Equal(t, 1, bedrock.calls)

	adapter, err = s.GetProvider("GPT_4O", noopCallback, "sk-test", 256, 0.1)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", adapter.Info().ModelID)

	stub := adapter.(*stubAdapter)
	assert.Equal(t, "sk-test", stub.cfg.APIKey)
	assert.Equal(t, 256, stub.cfg.MaxTokens)
	assert.InDelta(t, 0.1, stub.cfg.Temperature, 1e-9)
	assert.Equal(t, 1, openai.calls)
}

func TestGetProvider_MissingCapability(t *testing.T) {
	tests := []struct {
		name       string
		model      string
		cb         ports.StreamCallback
		apiKey     string
		capability domainProvider.Capability
	}{
		{"bedrock without callback", "CLAUDE_3_SONNET", nil, "", domainProvider.CapabilityCallback},
		{"openai without callback", "GPT_4", nil, "sk-test", domainProvider.CapabilityCallback},
		{"openai without api key", "GPT_4", noopCallback, "", domainProvider.CapabilityAPIKey},
		{"openai without either names callback first", "GPT_4", nil, "", domainProvider.CapabilityCallback},
		{"typed nil pointer callback", "CLAUDE_3_HAIKU", (*pointerCallback)(nil), "", domainProvider.CapabilityCallback},
		{"nil callback func", "GPT_4", ports.StreamCallbackFunc(nil), "sk-test", domainProvider.CapabilityCallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, bedrock, openai := newTestSelector()

			adapter, err := s.GetProvider(tt.model, tt.cb, tt.apiKey, 1000, 0.7)

			assert.Nil(t, adapter)
			var mce *domainErrors.MissingCapabilityError
			require.ErrorAs(t, err, &mce)
			assert.Equal(t, string(tt.capability), mce.Capability)
			assert.ErrorIs(t, err, domainErrors.ErrMissingCapability)
			assert.Zero(t, bedrock.calls+openai.calls, "no adapter may be constructed")
		})
	}
}

func TestGetProvider_UnsupportedBeforeValidation(t *testing.T) {
	s, _, _ := newTestSelector()

	_, err := s.GetProvider("made_up_model", nil, "", 0, 0)
	assert.ErrorIs(t, err, domainErrors.ErrUnsupportedModel)
}

func TestGetProvider_NoFactory(t *testing.T) {
	s := NewSelector()
	assert.False(t, s.HasFactory(domainProvider.KindBedrock))

	_, err := s.GetProvider("CLAUDE_V2", noopCallback, "", 100, 0.5)
	assert.ErrorIs(t, err, domainErrors.ErrAdapterUnavailable)
}

func TestGetProvider_FactoryError(t *testing.T) {
	s := NewSelector()
	boom := errors.New("no credentials")
	s.RegisterFactory(domainProvider.KindBedrock, &countingFactory{err: boom})

	_, err := s.GetProvider("CLAUDE_V2", noopCallback, "", 100, 0.5)
	assert.ErrorIs(t, err, boom)
}
