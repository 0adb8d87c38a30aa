// Package streaming turns a sequence of token events into delivered
// envelopes: one Stream envelope per token followed by exactly one End or
// Error envelope.
package streaming

import (
	"context"

	"github.com/jbctechsolutions/answerstream/internal/application/ports"
	"github.com/jbctechsolutions/answerstream/internal/application/postprocess"
	"github.com/jbctechsolutions/answerstream/internal/domain/answer"
	domainErrors "github.com/jbctechsolutions/answerstream/internal/domain/errors"
	"github.com/jbctechsolutions/answerstream/internal/domain/message"
	"github.com/jbctechsolutions/answerstream/internal/domain/relevance"
	"github.com/jbctechsolutions/answerstream/internal/infrastructure/logging"
)

// Poster publishes one envelope. *delivery.Service implements it.
type Poster interface {
	Post(ctx context.Context, env message.Envelope) error
}

// RelevanceFunc scores the final cleaned answer.
type RelevanceFunc func(answer string) relevance.Result

// DataKeyRelevance is the key of the relevance result in the End envelope data.
const DataKeyRelevance = "relevance"

// Stats counts what an aggregator has processed.
type Stats struct {
	TokenEvents int
	Envelopes   int
}

// Aggregator accumulates the answer of one request. It is driven by a single
// token source and is not safe for concurrent use.
type Aggregator struct {
	poster      Poster
	cleanOpts   []postprocess.Option
	relevanceFn RelevanceFunc
	logger      *logging.Logger

	state     answer.State
	final     string
	relevance *relevance.Result
	stats     Stats
}

// Ensure Aggregator implements ports.StreamCallback.
var _ ports.StreamCallback = (*Aggregator)(nil)

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithCleanOptions sets the options passed to postprocess.CleanAnswer.
func WithCleanOptions(opts ...postprocess.Option) Option {
	return func(a *Aggregator) { a.cleanOpts = opts }
}

// WithRelevance scores the final answer and attaches the result to the End
// envelope.
func WithRelevance(fn RelevanceFunc) Option {
	return func(a *Aggregator) { a.relevanceFn = fn }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAggregator creates an idle aggregator publishing through poster.
func NewAggregator(poster Poster, opts ...Option) *Aggregator {
	a := &Aggregator{
		poster: poster,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// OnStart resets the accumulated text and enters Streaming. Only valid
// while Idle.
func (a *Aggregator) OnStart(ctx context.Context) error {
	if a.state.Phase != answer.PhaseIdle {
		return a.invalid("start", a.state.Phase)
	}
	a.state = answer.State{Phase: answer.PhaseStreaming}
	a.logger.DebugContext(ctx, "aggregator started")
	return nil
}

// OnToken appends fragment and publishes a Stream envelope with the cleaned
// running text. A delivery failure is returned and leaves the aggregator
// Streaming; tokens after a terminal phase are rejected.
func (a *Aggregator) OnToken(ctx context.Context, fragment string) error {
	switch a.state.Phase {
	case answer.PhaseIdle:
		a.state.Phase = answer.PhaseStreaming
	case answer.PhaseStreaming:
	default:
		return a.invalid("accept token", a.state.Phase)
	}

	a.state.Text += fragment
	a.stats.TokenEvents++

	return a.post(ctx, message.NewStream(postprocess.CleanAnswer(a.state.Text, a.cleanOpts...)))
}

// OnEnd finishes the stream and publishes the End envelope with the cleaned
// final text and, when configured, its relevance.
func (a *Aggregator) OnEnd(ctx context.Context) error {
	if a.state.Phase.IsTerminal() {
		return a.invalid("end", a.state.Phase)
	}
	a.state.Phase = answer.PhaseEnded

	final := postprocess.CleanAnswer(a.state.Text, a.cleanOpts...)
	a.final = final

	var data any
	if a.relevanceFn != nil {
		r := a.relevanceFn(final)
		a.relevance = &r
		data = map[string]any{DataKeyRelevance: r}
		logging.LogRelevance(ctx, a.logger, r.MethodName, r.Score)
	}

	return a.post(ctx, message.NewEnd(final, data))
}

// OnError fails the stream and publishes an Error envelope describing err.
func (a *Aggregator) OnError(ctx context.Context, err error) error {
	if a.state.Phase.IsTerminal() {
		return a.invalid("fail", a.state.Phase)
	}
	a.state.Phase = answer.PhaseErrored
	a.logger.DebugContext(ctx, "aggregator errored", "error", err)

	return a.post(ctx, message.NewError(err))
}

// HandleToken dispatches a token event. A final event carrying a fragment
// is treated as a last token followed by the end of the stream.
func (a *Aggregator) HandleToken(ctx context.Context, ev answer.TokenEvent) error {
	switch {
	case ev.Err != nil:
		return a.OnError(ctx, ev.Err)
	case ev.IsFinal:
		if ev.Fragment != "" {
			if err := a.OnToken(ctx, ev.Fragment); err != nil {
				return err
			}
		}
		return a.OnEnd(ctx)
	default:
		return a.OnToken(ctx, ev.Fragment)
	}
}

// State returns a copy of the current state.
func (a *Aggregator) State() answer.State {
	return a.state
}

// Answer returns the cleaned final answer once the stream has ended.
func (a *Aggregator) Answer() string {
	return a.final
}

// Relevance returns the relevance computed at the end of the stream, if any.
func (a *Aggregator) Relevance() (relevance.Result, bool) {
	if a.relevance == nil {
		return relevance.Result{}, false
	}
	return *a.relevance, true
}

// Stats returns the processing counters.
func (a *Aggregator) Stats() Stats {
	return a.stats
}

func (a *Aggregator) post(ctx context.Context, env message.Envelope) error {
	if err := a.poster.Post(ctx, env); err != nil {
		return err
	}
	a.stats.Envelopes++
	return nil
}

func (a *Aggregator) invalid(op string, phase answer.Phase) error {
	return &domainErrors.InvalidStateError{Operation: op, Phase: phase.String()}
}
