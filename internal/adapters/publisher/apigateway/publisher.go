// Package apigateway publishes envelopes to an API Gateway WebSocket
// connection through the management API.
package apigateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/aws/smithy-go"

	"github.com/jbctechsolutions/answerstream/internal/application/ports"
)

// ErrConnectionGone is returned when the recipient has disconnected.
var ErrConnectionGone = errors.New("websocket connection is gone")

// Client abstracts the management API operation used by [Publisher].
// The [apigatewaymanagementapi.Client] type satisfies this interface.
type Client interface {
	PostToConnection(ctx context.Context, params *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error)
}

// Publisher posts every payload to one connection.
type Publisher struct {
	client       Client
	connectionID string
}

// Ensure Publisher implements ports.PublisherPort.
var _ ports.PublisherPort = (*Publisher)(nil)

// New creates a publisher for connectionID.
func New(client Client, connectionID string) *Publisher {
	return &Publisher{client: client, connectionID: connectionID}
}

// NewClient builds a management API client for the stage endpoint, e.g.
// https://{api-id}.execute-api.{region}.amazonaws.com/{stage}.
func NewClient(ctx context.Context, endpointURL, region string) (*apigatewaymanagementapi.Client, error) {
	if endpointURL == "" {
		return nil, errors.New("apigateway: endpoint url is required")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("apigateway: load aws config: %w", err)
	}

	return apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = aws.String(endpointURL)
	}), nil
}

// ConnectionID returns the target connection.
func (p *Publisher) ConnectionID() string {
	return p.connectionID
}

// Publish posts payload to the connection.
func (p *Publisher) Publish(ctx context.Context, payload []byte) error {
	_, err := p.client.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(p.connectionID),
		Data:         payload,
	})
	if err == nil {
		return nil
	}

	var gone *types.GoneException
	if errors.As(err, &gone) {
		return fmt.Errorf("apigateway: post to %s: %w", p.connectionID, ErrConnectionGone)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("apigateway: post to %s: %s: %w", p.connectionID, apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("apigateway: post to %s: %w", p.connectionID, err)
}
