// Package pipeline runs one question through a model and streams the cleaned
// answer to a publisher.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jbctechsolutions/answerstream/internal/application/delivery"
	"github.com/jbctechsolutions/answerstream/internal/application/ports"
	"github.com/jbctechsolutions/answerstream/internal/application/postprocess"
	"github.com/jbctechsolutions/answerstream/internal/application/provider"
	"github.com/jbctechsolutions/answerstream/internal/application/relevance"
	"github.com/jbctechsolutions/answerstream/internal/application/streaming"
	"github.com/jbctechsolutions/answerstream/internal/domain/answer"
	domainErrors "github.com/jbctechsolutions/answerstream/internal/domain/errors"
	"github.com/jbctechsolutions/answerstream/internal/domain/message"
	"github.com/jbctechsolutions/answerstream/internal/domain/metrics"
	domainProvider "github.com/jbctechsolutions/answerstream/internal/domain/provider"
	domainRelevance "github.com/jbctechsolutions/answerstream/internal/domain/relevance"
	"github.com/jbctechsolutions/answerstream/internal/infrastructure/logging"
	"github.com/jbctechsolutions/answerstream/internal/infrastructure/tracing"
)

// DefaultSystemPrompt instructs the model to answer from the supplied context.
const DefaultSystemPrompt = "You are a helpful assistant. Answer the question using the provided context when it is given. Be concise."

// Settings are the per-service generation and postprocessing parameters.
type Settings struct {
	APIKey          string
	MaxTokens       int
	Temperature     float64
	SystemPrompt    string
	Clean           postprocess.Options
	RelevanceMethod domainRelevance.Method
}

// Request is one question to answer.
type Request struct {
	Question string
	Model    string
	// Context is retrieved text the answer should be grounded in. Optional.
	Context string
	// Publisher receives the envelopes of this request.
	Publisher ports.PublisherPort
}

// Result describes a finished request.
type Result struct {
	RequestID    string
	Model        string
	Answer       string
	Phase        answer.Phase
	Relevance    domainRelevance.Result
	Stats        streaming.Stats
	OutputTokens int
	Duration     time.Duration
}

// Service wires selector, aggregator and delivery together for each request.
type Service struct {
	selector  *provider.Selector
	scorer    *relevance.Scorer
	estimator ports.TokenEstimator
	store     ports.MetricsStoragePort
	tracer    *tracing.Tracer
	logger    *logging.Logger
	settings  Settings

	newID func() string
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithScorer sets the relevance scorer.
func WithScorer(s *relevance.Scorer) Option {
	return func(svc *Service) {
		if s != nil {
			svc.scorer = s
		}
	}
}

// WithEstimator sets the token estimator used for stream records.
func WithEstimator(e ports.TokenEstimator) Option {
	return func(svc *Service) { svc.estimator = e }
}

// WithMetricsStore records a metrics.StreamRecord per request.
func WithMetricsStore(store ports.MetricsStoragePort) Option {
	return func(svc *Service) { svc.store = store }
}

// WithTracer sets the tracer.
func WithTracer(t *tracing.Tracer) Option {
	return func(svc *Service) {
		if t != nil {
			svc.tracer = t
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.logger = l
		}
	}
}

// WithIDGenerator overrides request id generation.
func WithIDGenerator(fn func() string) Option {
	return func(svc *Service) { svc.newID = fn }
}

// NewService creates a pipeline service.
func NewService(selector *provider.Selector, settings Settings, opts ...Option) *Service {
	if settings.SystemPrompt == "" {
		settings.SystemPrompt = DefaultSystemPrompt
	}

	svc := &Service{
		selector: selector,
		scorer:   relevance.NewScorer(),
		tracer:   tracing.Noop(),
		logger:   logging.Discard(),
		settings: settings,
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Answer streams the answer to req.Question. Every request whose publisher
// is usable ends with exactly one End or Error envelope; setup failures such
// as an unknown model are reported through an Error envelope as well as the
// returned error.
func (s *Service) Answer(ctx context.Context, req Request) (*Result, error) {
	start := s.now()
	id := s.newID()

	ctx = logging.WithCorrelationID(ctx, id)
	ctx = logging.WithModel(ctx, req.Model)

	deliverer, err := delivery.NewService(req.Publisher, delivery.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}

	desc, descErr := s.selector.Describe(req.Model)
	if descErr == nil {
		ctx = logging.WithProvider(ctx, desc.Kind.String())
	}

	ctx, span := s.tracer.StartStreamSpan(ctx, id, desc.Kind.String(), req.Model, desc.ModelID)

	question := postprocess.CleanQuestion(req.Question)
	agg := streaming.NewAggregator(
		tracedPoster{next: deliverer, tracer: s.tracer},
		s.aggregatorOptions(req.Context, question)...,
	)

	streamErr := s.run(ctx, agg, req.Model, ports.Prompt{
		System:   s.settings.SystemPrompt,
		Question: question,
		Context:  req.Context,
	})

	// Guarantee a terminal envelope.
	switch {
	case agg.State().Phase.IsTerminal():
	case streamErr != nil:
		if err := agg.OnError(ctx, streamErr); err != nil {
			s.logger.WarnContext(ctx, "failed to deliver error envelope", "error", err)
		}
	default:
		if err := agg.OnEnd(ctx); err != nil {
			streamErr = err
		}
	}

	res := s.result(id, req.Model, agg, start)
	if streamErr == nil && res.Phase == answer.PhaseErrored {
		streamErr = errors.New("stream reported an error")
	}

	span.SetCounts(res.Stats.TokenEvents, res.Stats.Envelopes, res.OutputTokens)
	if res.Phase == answer.PhaseEnded {
		tracing.RecordRelevance(ctx, res.Relevance)
	}
	span.End(streamErr)

	if streamErr != nil {
		logging.LogStreamFailed(ctx, s.logger, streamErr, res.Duration)
	} else {
		logging.LogStreamComplete(ctx, s.logger, res.Stats.TokenEvents, res.Stats.Envelopes, res.Duration)
	}

	s.record(ctx, desc, res, start, streamErr)

	return res, streamErr
}

// run validates the request, builds the adapter with agg as its callback
// and streams.
func (s *Service) run(ctx context.Context, agg *streaming.Aggregator, model string, prompt ports.Prompt) error {
	if prompt.Question == "" {
		return domainErrors.NewError(domainErrors.CodeValidation, "cannot answer", domainErrors.ErrEmptyQuestion)
	}

	adapter, err := s.selector.GetProvider(model, agg, s.settings.APIKey, s.settings.MaxTokens, s.settings.Temperature)
	if err != nil {
		return err
	}

	info := adapter.Info()
	logging.LogStreamStart(ctx, s.logger, info.Model, info.ModelID)

	if err := agg.OnStart(ctx); err != nil {
		return err
	}
	if err := adapter.Stream(ctx, prompt); err != nil {
		return fmt.Errorf("stream %s: %w", model, err)
	}
	return nil
}

func (s *Service) aggregatorOptions(contextText, question string) []streaming.Option {
	opts := []streaming.Option{
		streaming.WithCleanOptions(postprocess.WithOptions(s.settings.Clean)),
		streaming.WithLogger(s.logger),
	}
	if s.settings.RelevanceMethod != domainRelevance.MethodNone {
		method := s.settings.RelevanceMethod
		opts = append(opts, streaming.WithRelevance(func(final string) domainRelevance.Result {
			return s.scorer.Evaluate(method, contextText, question, final)
		}))
	}
	return opts
}

func (s *Service) result(id, model string, agg *streaming.Aggregator, start time.Time) *Result {
	res := &Result{
		RequestID: id,
		Model:     model,
		Answer:    agg.Answer(),
		Phase:     agg.State().Phase,
		Relevance: domainRelevance.Unscored(),
		Stats:     agg.Stats(),
		Duration:  s.now().Sub(start),
	}
	if r, ok := agg.Relevance(); ok {
		res.Relevance = r
	}
	if s.estimator != nil && res.Answer != "" {
		res.OutputTokens = s.estimator.CountTokens(res.Answer)
	}
	return res
}

func (s *Service) record(ctx context.Context, desc domainProvider.Descriptor, res *Result, start time.Time, streamErr error) {
	if s.store == nil {
		return
	}

	rec := &metrics.StreamRecord{
		ID:              res.RequestID,
		Model:           res.Model,
		Provider:        desc.Kind.String(),
		Status:          metrics.StatusCompleted,
		TokenEvents:     res.Stats.TokenEvents,
		Envelopes:       res.Stats.Envelopes,
		OutputTokens:    res.OutputTokens,
		RelevanceMethod: res.Relevance.MethodName,
		RelevanceScore:  res.Relevance.Score,
		Duration:        res.Duration,
		StartedAt:       start,
		CompletedAt:     start.Add(res.Duration),
	}
	if streamErr != nil {
		rec.Status = metrics.StatusFailed
		rec.ErrorMessage = streamErr.Error()
	}

	// The request context may already be canceled by a disconnecting client.
	if err := s.store.SaveStream(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.WarnContext(ctx, "failed to save stream record", "error", err)
	}
}

// tracedPoster opens a publish span around each envelope.
type tracedPoster struct {
	next   streaming.Poster
	tracer *tracing.Tracer
}

func (p tracedPoster) Post(ctx context.Context, env message.Envelope) error {
	ctx, span := p.tracer.StartPublishSpan(ctx, string(env.Type), len(env.Message))
	err := p.next.Post(ctx, env)
	tracing.EndSpanWithError(span, err)
	return err
}
