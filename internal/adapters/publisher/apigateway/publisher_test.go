package apigateway

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	inputs []*apigatewaymanagementapi.PostToConnectionInput
	err    error
}

func (m *mockClient) PostToConnection(_ context.Context, in *apigatewaymanagementapi.PostToConnectionInput, _ ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error) {
	m.inputs = append(m.inputs, in)
	if m.err != nil {
		return nil, m.err
	}
	return &apigatewaymanagementapi.PostToConnectionOutput{}, nil
}

func TestPublisher_Publish(t *testing.T) {
	client := &mockClient{}
	p := New(client, "conn-123")
	assert.Equal(t, "conn-123", p.ConnectionID())

	require.NoError(t, p.Publish(context.Background(), []byte(`{"message":"hi","type":"end"}`)))

	require.Len(t, client.inputs, 1)
	assert.Equal(t, "conn-123", aws.ToString(client.inputs[0].ConnectionId))
	assert.Equal(t, `{"message":"hi","type":"end"}`, string(client.inputs[0].Data))
}

func TestPublisher_Gone(t *testing.T) {
	p := New(&mockClient{err: &types.GoneException{Message: aws.String("gone")}}, "conn-1")

	err := p.Publish(context.Background(), []byte(`{}`))
	assert.ErrorIs(t, err, ErrConnectionGone)
}

func TestPublisher_APIError(t *testing.T) {
	p := New(&mockClient{err: &types.ForbiddenException{Message: aws.String("denied")}}, "conn-1")

	err := p.Publish(context.Background(), []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ForbiddenException")
	assert.NotErrorIs(t, err, ErrConnectionGone)
}

func TestPublisher_TransportError(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	p := New(&mockClient{err: cause}, "conn-1")

	assert.ErrorIs(t, p.Publish(context.Background(), []byte(`{}`)), cause)
}

func TestNewClient_RequiresEndpoint(t *testing.T) {
	_, err := NewClient(context.Background(), "", "us-west-2")
	assert.Error(t, err)
}
