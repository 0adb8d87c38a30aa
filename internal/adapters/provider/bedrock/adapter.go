// Package bedrock streams Converse API completions from Amazon Bedrock into a
// token callback.
package bedrock

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/jbctechsolutions/answerstream/internal/application/ports"
	"github.com/jbctechsolutions/answerstream/internal/domain/answer"
	domainErrors "github.com/jbctechsolutions/answerstream/internal/domain/errors"
	"github.com/jbctechsolutions/answerstream/internal/domain/provider"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "us-west-2"

// EventStream is the part of a Converse event stream the adapter reads.
// *bedrockruntime.ConverseStreamEventStream satisfies it.
type EventStream interface {
	Events() <-chan types.ConverseStreamOutput
	Close() error
	Err() error
}

// Streamer opens a Converse event stream.
type Streamer interface {
	ConverseStream(ctx context.Context, in *bedrockruntime.ConverseStreamInput) (EventStream, error)
}

// ClientStreamer adapts a *bedrockruntime.Client to Streamer.
type ClientStreamer struct {
	Client *bedrockruntime.Client
}

// ConverseStream calls the Converse streaming API.
func (c ClientStreamer) ConverseStream(ctx context.Context, in *bedrockruntime.ConverseStreamInput) (EventStream, error) {
	out, err := c.Client.ConverseStream(ctx, in)
	if err != nil {
		return nil, err
	}
	return out.GetStream(), nil
}

// Factory builds Bedrock adapters sharing one runtime client.
type Factory struct {
	streamer Streamer
	region   string
}

// Ensure Factory implements ports.AdapterFactory.
var _ ports.AdapterFactory = (*Factory)(nil)

// NewFactory loads the default AWS configuration for region and creates a
// factory backed by a Bedrock runtime client.
func NewFactory(ctx context.Context, region string) (*Factory, error) {
	if region == "" {
		region = DefaultRegion
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Factory{
		streamer: ClientStreamer{Client: bedrockruntime.NewFromConfig(cfg)},
		region:   region,
	}, nil
}

// NewFactoryWithStreamer creates a factory around an existing streamer.
func NewFactoryWithStreamer(s Streamer, region string) *Factory {
	return &Factory{streamer: s, region: region}
}

// Region returns the AWS region adapters call.
func (f *Factory) Region() string {
	return f.region
}

// Construct builds an adapter for cfg. A callback is required.
func (f *Factory) Construct(cfg ports.AdapterConfig) (ports.ProviderAdapter, error) {
	if cfg.Callback == nil {
		return nil, &domainErrors.MissingCapabilityError{Provider: provider.KindBedrock.DisplayName(), Capability: string(provider.CapabilityCallback)}
	}
	return &Adapter{streamer: f.streamer, cfg: cfg}, nil
}

// Adapter streams one Bedrock model's completions into its callback.
type Adapter struct {
	streamer Streamer
	cfg      ports.AdapterConfig
}

// Info describes the adapter.
func (a *Adapter) Info() ports.AdapterInfo {
	return ports.AdapterInfo{
		Kind:    provider.KindBedrock,
		Model:   a.cfg.Descriptor.Name,
		ModelID: a.cfg.Descriptor.ModelID,
	}
}

// Stream sends the prompt and forwards every text delta as a token event.
// The final event is emitted when the model reports the message stop.
func (a *Adapter) Stream(ctx context.Context, prompt ports.Prompt) error {
	stream, err := a.streamer.ConverseStream(ctx, a.input(prompt))
	if err != nil {
		return fmt.Errorf("bedrock converse stream: %w", err)
	}
	defer stream.Close()

	for ev := range stream.Events() {
		switch v := ev.(type) {
		case *types.ConverseStreamOutputMemberContentBlockDelta:
			delta, ok := v.Value.Delta.(*types.ContentBlockDeltaMemberText)
			if !ok || delta.Value == "" {
				continue
			}
			if err := a.cfg.Callback.HandleToken(ctx, answer.Token(delta.Value)); err != nil {
				return err
			}
		case *types.ConverseStreamOutputMemberMessageStop:
			if err := stream.Err(); err != nil {
				return fmt.Errorf("bedrock stream: %w", err)
			}
			return a.cfg.Callback.HandleToken(ctx, answer.Final())
		}
	}

	if err := stream.Err(); err != nil {
		return fmt.Errorf("bedrock stream: %w", err)
	}
	// Stream closed without a stop event; still a complete answer.
	return a.cfg.Callback.HandleToken(ctx, answer.Final())
}

func (a *Adapter) input(prompt ports.Prompt) *bedrockruntime.ConverseStreamInput {
	in := &bedrockruntime.ConverseStreamInput{
		ModelId: aws.String(a.cfg.Descriptor.ModelID),
		Messages: []types.Message{{
			Role:    types.ConversationRoleUser,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: prompt.UserMessage()}},
		}},
		InferenceConfig: &types.InferenceConfiguration{
			Temperature: aws.Float32(float32(a.cfg.Temperature)),
		},
	}
	if a.cfg.MaxTokens > 0 {
		in.InferenceConfig.MaxTokens = aws.Int32(int32(a.cfg.MaxTokens))
	}
	if prompt.System != "" {
		in.System = []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: prompt.System}}
	}
	return in
}
