package delivery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbctechsolutions/answerstream/internal/application/ports"
	domainErrors "github.com/jbctechsolutions/answerstream/internal/domain/errors"
	"github.com/jbctechsolutions/answerstream/internal/domain/message"
)

type recordingPublisher struct {
	payloads []string
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, string(payload))
	return nil
}

func TestNewService_RequiresPublisher(t *testing.T) {
	_, err := NewService(nil)
	assert.ErrorIs(t, err, domainErrors.ErrPublisherRequired)
}

func TestService_Post(t *testing.T) {
	pub := &recordingPublisher{}
	svc, err := NewService(pub)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, svc.Post(ctx, message.NewStream("Hel.")))
	require.NoError(t, svc.Post(ctx, message.NewEnd("Hello.", map[string]any{"relevance": 1.0})))

	require.Len(t, pub.payloads, 2)
	assert.JSONEq(t, `{"message":"Hel....","type":"stream"}`, pub.payloads[0])
	assert.JSONEq(t, `{"message":"Hello.","type":"end","data":{"relevance":1}}`, pub.payloads[1])
	assert.Equal(t, 2, svc.Posted())
}

func TestService_Post_OmitsEmptyOptionalFields(t *testing.T) {
	pub := &recordingPublisher{}
	svc, err := NewService(pub)
	require.NoError(t, err)

	require.NoError(t, svc.Post(context.Background(), message.NewError(errors.New("boom"))))

	require.Len(t, pub.payloads, 1)
	assert.NotContains(t, pub.payloads[0], "action")
	assert.NotContains(t, pub.payloads[0], "feedback")
	assert.NotContains(t, pub.payloads[0], "data")
}

func TestService_Post_DeliveryError(t *testing.T) {
	transport := errors.New("connection gone")
	svc, err := NewService(ports.PublisherFunc(func(context.Context, []byte) error {
		return transport
	}))
	require.NoError(t, err)

	err = svc.Post(context.Background(), message.NewStream("x"))

	var de *domainErrors.DeliveryError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, transport)
	assert.ErrorIs(t, err, domainErrors.ErrDelivery)
	assert.Equal(t, 0, svc.Posted())
}

func TestDecode(t *testing.T) {
	env, err := Decode([]byte(`{"message":"done","type":"end","action":"close"}`))
	require.NoError(t, err)
	assert.Equal(t, message.TypeEnd, env.Type)
	assert.Equal(t, message.ActionClose, env.Action)

	_, err = Decode([]byte(`{"message":"x","type":"bogus"}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}
