package streaming

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbctechsolutions/answerstream/internal/application/delivery"
	"github.com/jbctechsolutions/answerstream/internal/application/postprocess"
	"github.com/jbctechsolutions/answerstream/internal/domain/answer"
	domainErrors "github.com/jbctechsolutions/answerstream/internal/domain/errors"
	"github.com/jbctechsolutions/answerstream/internal/domain/message"
	"github.com/jbctechsolutions/answerstream/internal/domain/relevance"
)

// capturePublisher decodes every payload it receives.
type capturePublisher struct {
	t         *testing.T
	envelopes []message.Envelope
	failOn    int
	err       error
}

func (p *capturePublisher) Publish(_ context.Context, payload []byte) error {
	if p.err != nil && len(p.envelopes)+1 == p.failOn {
		p.failOn = 0
		return p.err
	}
	env, err := delivery.Decode(payload)
	require.NoError(p.t, err)
	p.envelopes = append(p.envelopes, env)
	return nil
}

func newTestAggregator(t *testing.T, opts ...Option) (*Aggregator, *capturePublisher) {
	t.Helper()
	pub := &capturePublisher{t: t}
	svc, err := delivery.NewService(pub)
	require.NoError(t, err)
	return NewAggregator(svc, opts...), pub
}

func types(envs []message.Envelope) []message.Type {
	out := make([]message.Type, len(envs))
	for i, e := range envs {
		out[i] = e.Type
	}
	return out
}

func TestAggregator_StreamThenEnd(t *testing.T) {
	agg, pub := newTestAggregator(t)
	ctx := context.Background()

	for _, tok := range []string{"Hel", "lo wor", "ld."} {
		require.NoError(t, agg.OnToken(ctx, tok))
	}
	require.NoError(t, agg.OnEnd(ctx))

	require.Equal(t,
		[]message.Type{message.TypeStream, message.TypeStream, message.TypeStream, message.TypeEnd},
		types(pub.envelopes))
	assert.Equal(t, "Hel....", pub.envelopes[0].Message)
	assert.Equal(t, "Hello wor....", pub.envelopes[1].Message)
	assert.Equal(t, "Hello world....", pub.envelopes[2].Message)
	assert.Equal(t, "Hello world.", pub.envelopes[3].Message)
	assert.Nil(t, pub.envelopes[3].Data)

	assert.Equal(t, answer.State{Text: "Hello world.", Phase: answer.PhaseEnded}, agg.State())
	assert.Equal(t, Stats{TokenEvents: 3, Envelopes: 4}, agg.Stats())
}

func TestAggregator_SpaceLedFragments(t *testing.T) {
	agg, pub := newTestAggregator(t)
	ctx := context.Background()

	for _, tok := range []string{" paris", " is the", " capital"} {
		require.NoError(t, agg.OnToken(ctx, tok))
	}
	require.NoError(t, agg.OnEnd(ctx))

	require.Len(t, pub.envelopes, 4)
	assert.Equal(t, "Paris....", pub.envelopes[0].Message)
	assert.Equal(t, "Paris is the....", pub.envelopes[1].Message)
	assert.Equal(t, "Paris is the capital....", pub.envelopes[2].Message)
	assert.Equal(t, message.TypeEnd, pub.envelopes[3].Type)
	assert.Equal(t, "Paris is the capital.", pub.envelopes[3].Message)
	assert.Equal(t, "Paris is the capital.", agg.Answer())
}

func TestAggregator_OnStart(t *testing.T) {
	agg, pub := newTestAggregator(t)
	ctx := context.Background()

	require.NoError(t, agg.OnStart(ctx))
	assert.Equal(t, answer.PhaseStreaming, agg.State().Phase)
	assert.Empty(t, pub.envelopes)

	err := agg.OnStart(ctx)
	assert.ErrorIs(t, err, domainErrors.ErrInvalidState)
}

func TestAggregator_TokenAfterEndRejected(t *testing.T) {
	agg, pub := newTestAggregator(t)
	ctx := context.Background()

	require.NoError(t, agg.OnToken(ctx, "done"))
	require.NoError(t, agg.OnEnd(ctx))

	err := agg.OnToken(ctx, "late")

	var ise *domainErrors.InvalidStateError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "ended", ise.Phase)
	assert.Len(t, pub.envelopes, 2)
	assert.Equal(t, "done", agg.State().Text)
}

func TestAggregator_TerminalPhasesRejectEverything(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		terminate func(a *Aggregator) error
	}{
		{"after end", func(a *Aggregator) error { return a.OnEnd(ctx) }},
		{"after error", func(a *Aggregator) error { return a.OnError(ctx, errors.New("x")) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg, pub := newTestAggregator(t)
			require.NoError(t, tt.terminate(agg))

			assert.ErrorIs(t, agg.OnToken(ctx, "t"), domainErrors.ErrInvalidState)
			assert.ErrorIs(t, agg.OnEnd(ctx), domainErrors.ErrInvalidState)
			assert.ErrorIs(t, agg.OnError(ctx, errors.New("y")), domainErrors.ErrInvalidState)
			assert.ErrorIs(t, agg.OnStart(ctx), domainErrors.ErrInvalidState)
			assert.Len(t, pub.envelopes, 1)
		})
	}
}

func TestAggregator_EndWithoutTokens(t *testing.T) {
	agg, pub := newTestAggregator(t)

	require.NoError(t, agg.OnEnd(context.Background()))

	require.Len(t, pub.envelopes, 1)
	assert.Equal(t, message.TypeEnd, pub.envelopes[0].Type)
	assert.Equal(t, postprocess.NoAnswer, pub.envelopes[0].Message)
}

func TestAggregator_OnError(t *testing.T) {
	agg, pub := newTestAggregator(t)
	ctx := context.Background()

	require.NoError(t, agg.OnToken(ctx, "partial"))
	require.NoError(t, agg.OnError(ctx, errors.New("model throttled")))

	require.Equal(t, []message.Type{message.TypeStream, message.TypeError}, types(pub.envelopes))
	assert.Equal(t, "model throttled", pub.envelopes[1].Message)
	assert.Equal(t, answer.PhaseErrored, agg.State().Phase)
}

func TestAggregator_DeliveryErrorPropagates(t *testing.T) {
	agg, pub := newTestAggregator(t)
	pub.err = errors.New("gone")
	pub.failOn = 2
	ctx := context.Background()

	require.NoError(t, agg.OnToken(ctx, "one"))
	err := agg.OnToken(ctx, " two")

	var de *domainErrors.DeliveryError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, pub.err)
	assert.Equal(t, answer.PhaseStreaming, agg.State().Phase)
	assert.Equal(t, Stats{TokenEvents: 2, Envelopes: 1}, agg.Stats())

	require.NoError(t, agg.OnToken(ctx, " three"))
	assert.Equal(t, "One two three....", pub.envelopes[len(pub.envelopes)-1].Message)
}

func TestAggregator_RelevanceAttached(t *testing.T) {
	var scored string
	agg, pub := newTestAggregator(t, WithRelevance(func(final string) relevance.Result {
		scored = final
		return relevance.Coverage(1.0, 0.5)
	}))
	ctx := context.Background()

	require.NoError(t, agg.OnToken(ctx, "paris is the capital"))
	require.NoError(t, agg.OnEnd(ctx))

	assert.Equal(t, "Paris is the capital.", scored)

	r, ok := agg.Relevance()
	require.True(t, ok)
	assert.InDelta(t, 0.5, r.Score, 1e-9)

	end := pub.envelopes[len(pub.envelopes)-1]
	data, ok := end.Data.(map[string]any)
	require.True(t, ok, "data should decode to an object, got %T", end.Data)
	rel, ok := data[DataKeyRelevance].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "WORD_RELEVANCE", rel["method"])
	assert.InDelta(t, 0.5, rel["score"], 1e-9)
}

func TestAggregator_NoRelevanceByDefault(t *testing.T) {
	agg, _ := newTestAggregator(t)
	require.NoError(t, agg.OnEnd(context.Background()))

	_, ok := agg.Relevance()
	assert.False(t, ok)
}

func TestAggregator_CleanOptions(t *testing.T) {
	agg, pub := newTestAggregator(t, WithCleanOptions(postprocess.WithRemoveFirstBulletpoint(false)))
	ctx := context.Background()

	require.NoError(t, agg.OnToken(ctx, "-first point"))
	require.NoError(t, agg.OnEnd(ctx))

	assert.Equal(t, "- first point.", pub.envelopes[1].Message)
}

func TestAggregator_HandleToken(t *testing.T) {
	ctx := context.Background()

	t.Run("tokens then final", func(t *testing.T) {
		agg, pub := newTestAggregator(t)
		require.NoError(t, agg.HandleToken(ctx, answer.Token("Hel")))
		require.NoError(t, agg.HandleToken(ctx, answer.Token("lo.")))
		require.NoError(t, agg.HandleToken(ctx, answer.Final()))

		assert.Equal(t, []message.Type{message.TypeStream, message.TypeStream, message.TypeEnd}, types(pub.envelopes))
		assert.Equal(t, "Hello.", pub.envelopes[2].Message)
	})

	t.Run("final with fragment", func(t *testing.T) {
		agg, pub := newTestAggregator(t)
		require.NoError(t, agg.HandleToken(ctx, answer.Token("Hel")))
		require.NoError(t, agg.HandleToken(ctx, answer.TokenEvent{Fragment: "lo.", IsFinal: true}))

		assert.Equal(t, []message.Type{message.TypeStream, message.TypeStream, message.TypeEnd}, types(pub.envelopes))
	})

	t.Run("error event", func(t *testing.T) {
		agg, pub := newTestAggregator(t)
		require.NoError(t, agg.HandleToken(ctx, answer.Failed(errors.New("stream reset"))))

		require.Len(t, pub.envelopes, 1)
		assert.Equal(t, message.TypeError, pub.envelopes[0].Type)
		assert.Equal(t, "stream reset", pub.envelopes[0].Message)
	})

	t.Run("exactly one terminal envelope", func(t *testing.T) {
		agg, pub := newTestAggregator(t)
		require.NoError(t, agg.HandleToken(ctx, answer.Final()))
		assert.Error(t, agg.HandleToken(ctx, answer.Final()))
		assert.Error(t, agg.HandleToken(ctx, answer.Failed(errors.New("late"))))

		terminal := 0
		for _, e := range pub.envelopes {
			if e.Type.IsTerminal() {
				terminal++
			}
		}
		assert.Equal(t, 1, terminal)
	})
}
