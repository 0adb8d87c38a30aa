// Package application provides application-level services and dependency injection.
package application

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jbctechsolutions/answerstream/internal/adapters/provider/bedrock"
	"github.com/jbctechsolutions/answerstream/internal/adapters/provider/openai"
	"github.com/jbctechsolutions/answerstream/internal/adapters/publisher/apigateway"
	"github.com/jbctechsolutions/answerstream/internal/adapters/publisher/writer"
	"github.com/jbctechsolutions/answerstream/internal/application/pipeline"
	"github.com/jbctechsolutions/answerstream/internal/application/ports"
	"github.com/jbctechsolutions/answerstream/internal/application/postprocess"
	appProvider "github.com/jbctechsolutions/answerstream/internal/application/provider"
	"github.com/jbctechsolutions/answerstream/internal/application/relevance"
	"github.com/jbctechsolutions/answerstream/internal/domain/provider"
	"github.com/jbctechsolutions/answerstream/internal/infrastructure/config"
	"github.com/jbctechsolutions/answerstream/internal/infrastructure/logging"
	"github.com/jbctechsolutions/answerstream/internal/infrastructure/storage"
	"github.com/jbctechsolutions/answerstream/internal/infrastructure/tokenizer"
	"github.com/jbctechsolutions/answerstream/internal/infrastructure/tracing"
)

// Container holds all application dependencies and provides a central
// point for dependency injection. It manages the lifecycle of services
// and ensures proper initialization order.
type Container struct {
	config  *config.Config
	verbose bool // Override log level to debug when true

	// Observability
	logger *logging.Logger
	tracer *tracing.Tracer

	// Metrics store, nil when disabled
	dbConn     *storage.Connection
	streamRepo *storage.StreamRepository

	// Services
	selector  *appProvider.Selector
	scorer    *relevance.Scorer
	estimator ports.TokenEstimator
	pipeline  *pipeline.Service
}

// NewContainer creates a new dependency injection container with all services
// initialized based on the provided configuration.
func NewContainer(cfg *config.Config, verbose bool) (*Container, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	c := &Container{
		config:  cfg,
		verbose: verbose,
	}

	if err := c.initObservability(); err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	if err := c.initDatabase(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := c.initProviders(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	c.initServices()

	return c, nil
}

// initObservability initializes the logger and tracer.
func (c *Container) initObservability() error {
	ctx := context.Background()

	logLevel := logging.Level(c.config.Logging.Level)
	if !logLevel.IsValid() {
		logLevel = logging.LevelInfo
	}
	if c.verbose {
		logLevel = logging.LevelDebug
	}

	logFormat := logging.FormatText
	if c.config.Logging.Format == "json" {
		logFormat = logging.FormatJSON
	}

	c.logger = logging.New(logging.Config{
		Level:  logLevel,
		Format: logFormat,
		Output: os.Stderr,
	})

	tc := c.config.Observability.Tracing
	if !tc.Enabled {
		c.tracer = tracing.Noop()
		return nil
	}

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:      true,
		ExporterType: tracing.ExporterType(tc.ExporterType),
		OTLPEndpoint: tc.OTLPEndpoint,
		ServiceName:  tc.ServiceName,
		Environment:  "production",
		SampleRate:   tc.SampleRate,
		Output:       os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}
	c.tracer = tracer
	return nil
}

// initDatabase opens the metrics database when metrics are enabled.
func (c *Container) initDatabase() error {
	if !c.config.Observability.Metrics.Enabled {
		return nil
	}

	conn, err := storage.NewConnection(c.config.Observability.Metrics.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}

	if err := conn.Open(); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db, err := conn.DB()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to get database handle: %w", err)
	}

	c.dbConn = conn
	c.streamRepo = storage.NewStreamRepository(db)
	return nil
}

// initProviders registers an adapter factory per provider kind.
func (c *Container) initProviders() error {
	c.selector = appProvider.NewSelector()

	oc := c.config.Providers.OpenAI
	c.selector.RegisterFactory(provider.KindOpenAI, openai.NewFactory(
		openai.WithBaseURL(oc.BaseURL),
		openai.WithTimeout(oc.Timeout),
	))

	bf, err := bedrock.NewFactory(context.Background(), c.config.Providers.Bedrock.Region)
	if err != nil {
		return fmt.Errorf("failed to create bedrock factory: %w", err)
	}
	c.selector.RegisterFactory(provider.KindBedrock, bf)

	return nil
}

// initServices builds the scorer, the token estimator and the pipeline.
func (c *Container) initServices() {
	c.scorer = relevance.NewScorer(
		relevance.WithTokenizer(tokenizer.NewTokenizer13a()),
		relevance.WithLengthCutoff(c.config.Relevance.LengthCutoff),
	)

	est, err := tokenizer.NewBestEffort(tokenizer.DefaultEncoding)
	if err != nil {
		c.logger.Warn("tiktoken encoding unavailable, using character estimate", "error", err)
	}
	c.estimator = est

	// Validate has already rejected unknown methods.
	method, _ := c.config.RelevanceMethod()

	opts := []pipeline.Option{
		pipeline.WithScorer(c.scorer),
		pipeline.WithEstimator(c.estimator),
		pipeline.WithTracer(c.tracer),
		pipeline.WithLogger(c.logger),
	}
	if c.streamRepo != nil {
		opts = append(opts, pipeline.WithMetricsStore(c.streamRepo))
	}

	c.pipeline = pipeline.NewService(c.selector, pipeline.Settings{
		APIKey:      c.config.Providers.OpenAI.APIKey,
		MaxTokens:   c.config.Generation.MaxTokens,
		Temperature: c.config.Generation.Temperature,
		Clean: postprocess.Options{
			RemoveFirstBulletpoint: c.config.Postprocess.RemoveFirstBulletpoint,
			RemoveLastKeywords:     c.config.Postprocess.RemoveLastKeywords,
		},
		RelevanceMethod: method,
	}, opts...)
}

// NewPublisher builds the publisher named by the delivery configuration.
// The stdout publisher writes to w.
func (c *Container) NewPublisher(ctx context.Context, w io.Writer) (ports.PublisherPort, error) {
	dc := c.config.Delivery
	switch dc.Publisher {
	case config.PublisherAPIGateway:
		client, err := apigateway.NewClient(ctx, dc.EndpointURL, c.config.Providers.Bedrock.Region)
		if err != nil {
			return nil, err
		}
		return apigateway.New(client, dc.ConnectionID), nil
	default:
		return writer.New(w), nil
	}
}

// Close releases all resources held by the container.
func (c *Container) Close() error {
	ctx := context.Background()

	if c.tracer != nil {
		_ = c.tracer.Shutdown(ctx)
	}

	if c.dbConn != nil {
		return c.dbConn.Close()
	}
	return nil
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the application logger.
func (c *Container) Logger() *logging.Logger {
	return c.logger
}

// Tracer returns the tracer.
func (c *Container) Tracer() *tracing.Tracer {
	return c.tracer
}

// Selector returns the provider selector.
func (c *Container) Selector() *appProvider.Selector {
	return c.selector
}

// Scorer returns the relevance scorer.
func (c *Container) Scorer() *relevance.Scorer {
	return c.scorer
}

// Estimator returns the output token estimator.
func (c *Container) Estimator() ports.TokenEstimator {
	return c.estimator
}

// Pipeline returns the answer pipeline.
func (c *Container) Pipeline() *pipeline.Service {
	return c.pipeline
}

// MetricsRepository returns the stream record store, or nil when metrics
// are disabled.
func (c *Container) MetricsRepository() ports.MetricsStoragePort {
	if c.streamRepo == nil {
		return nil
	}
	return c.streamRepo
}
