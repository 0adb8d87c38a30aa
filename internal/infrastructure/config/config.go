// Package config provides configuration structs and utilities for the answerstream application.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jbctechsolutions/answerstream/internal/domain/relevance"
)

// Config represents the root configuration for the answerstream application.
type Config struct {
	Providers     ProviderConfigs     `yaml:"providers"`
	Generation    GenerationConfig    `yaml:"generation"`
	Postprocess   PostprocessConfig   `yaml:"postprocess"`
	Relevance     RelevanceConfig     `yaml:"relevance"`
	Delivery      DeliveryConfig      `yaml:"delivery"`
	Server        ServerConfig        `yaml:"server"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ProviderConfigs holds configuration for the supported model providers.
type ProviderConfigs struct {
	OpenAI  OpenAIConfig  `yaml:"openai"`
	Bedrock BedrockConfig `yaml:"bedrock"`
}

// OpenAIConfig holds configuration for the OpenAI chat completions API.
type OpenAIConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url,omitempty"` // Optional custom endpoint (e.g., for proxies)
	Timeout time.Duration `yaml:"timeout"`
}

// BedrockConfig holds configuration for AWS Bedrock.
type BedrockConfig struct {
	Region string `yaml:"region"`
}

// GenerationConfig holds sampling parameters passed to every adapter.
type GenerationConfig struct {
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// PostprocessConfig controls answer cleaning.
type PostprocessConfig struct {
	RemoveFirstBulletpoint bool `yaml:"remove_first_bulletpoint"`
	RemoveLastKeywords     bool `yaml:"remove_last_keywords"`
}

// RelevanceConfig selects the scoring method applied to finished answers.
type RelevanceConfig struct {
	Method       string `yaml:"method"` // "", WORD_RELEVANCE, TOKEN_INTERSECTION
	LengthCutoff int    `yaml:"length_cutoff"`
}

// DeliveryConfig selects where envelopes are published.
type DeliveryConfig struct {
	Publisher    string `yaml:"publisher"` // stdout, apigateway
	EndpointURL  string `yaml:"endpoint_url"`
	ConnectionID string `yaml:"connection_id"`
}

// ServerConfig holds settings for the WebSocket server.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	ReadLimit int64  `yaml:"read_limit"`
}

// LoggingConfig holds configuration for application logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// ObservabilityConfig holds configuration for tracing and stream metrics.
type ObservabilityConfig struct {
	Tracing TracingConfig `yaml:"tracing"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// TracingConfig holds configuration for distributed tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`       // Whether tracing is enabled
	ExporterType string  `yaml:"exporter_type"` // none, stdout, otlp
	OTLPEndpoint string  `yaml:"otlp_endpoint"` // OTLP collector endpoint
	SampleRate   float64 `yaml:"sample_rate"`   // Sampling rate (0.0 to 1.0)
	ServiceName  string  `yaml:"service_name"`  // Service name for traces
}

// MetricsConfig holds configuration for the stream record store.
type MetricsConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"` // empty means ~/.answerstream/metrics.db
}

// Default configuration values.
const (
	DefaultTimeout       = 30 * time.Second
	DefaultBedrockRegion = "us-west-2"
	DefaultMaxTokens     = 1000
	DefaultTemperature   = 0.7
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
	DefaultPublisher     = PublisherStdout
	DefaultServerAddr    = ":8080"
	DefaultReadLimit     = 64 * 1024

	// Observability defaults
	DefaultMetricsEnabled      = true
	DefaultTracingEnabled      = false
	DefaultTracingExporterType = "none"
	DefaultTracingSampleRate   = 1.0
	DefaultTracingServiceName  = "answerstream"
)

// Publisher names.
const (
	PublisherStdout     = "stdout"
	PublisherAPIGateway = "apigateway"
)

// Valid log levels.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Valid log formats.
var validLogFormats = map[string]bool{
	"json": true,
	"text": true,
}

// Valid tracing exporter types.
var validTracingExporterTypes = map[string]bool{
	"none":   true,
	"stdout": true,
	"otlp":   true,
}

var validPublishers = map[string]bool{
	PublisherStdout:     true,
	PublisherAPIGateway: true,
}

// NewDefaultConfig creates a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		Providers: ProviderConfigs{
			OpenAI:  OpenAIConfig{Timeout: DefaultTimeout},
			Bedrock: BedrockConfig{Region: DefaultBedrockRegion},
		},
		Generation: GenerationConfig{
			MaxTokens:   DefaultMaxTokens,
			Temperature: DefaultTemperature,
		},
		Postprocess: PostprocessConfig{
			RemoveFirstBulletpoint: true,
		},
		Relevance: RelevanceConfig{
			LengthCutoff: relevance.DefaultLengthCutoff,
		},
		Delivery: DeliveryConfig{
			Publisher: DefaultPublisher,
		},
		Server: ServerConfig{
			Addr:      DefaultServerAddr,
			ReadLimit: DefaultReadLimit,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Observability: ObservabilityConfig{
			Tracing: TracingConfig{
				Enabled:      DefaultTracingEnabled,
				ExporterType: DefaultTracingExporterType,
				SampleRate:   DefaultTracingSampleRate,
				ServiceName:  DefaultTracingServiceName,
			},
			Metrics: MetricsConfig{
				Enabled: DefaultMetricsEnabled,
			},
		},
	}
}

// RelevanceMethod parses the configured scoring method.
func (c *Config) RelevanceMethod() (relevance.Method, error) {
	return relevance.ParseMethod(c.Relevance.Method)
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if err := c.Providers.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("providers: %w", err))
	}

	if err := c.Generation.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("generation: %w", err))
	}

	if err := c.Relevance.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("relevance: %w", err))
	}

	if err := c.Delivery.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("delivery: %w", err))
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}

	if err := c.Observability.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("observability: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the LoggingConfig is valid.
func (l *LoggingConfig) Validate() error {
	var errs []error

	if l.Level != "" && !validLogLevels[l.Level] {
		errs = append(errs, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", l.Level))
	}

	if l.Format != "" && !validLogFormats[l.Format] {
		errs = append(errs, fmt.Errorf("invalid log format %q: must be one of json, text", l.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the ProviderConfigs is valid.
func (p *ProviderConfigs) Validate() error {
	var errs []error

	if err := p.OpenAI.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("openai: %w", err))
	}

	if p.Bedrock.Region == "" {
		errs = append(errs, errors.New("bedrock: region is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the OpenAIConfig is valid. The API key is checked at
// adapter construction, since it is only needed for OpenAI models.
func (o *OpenAIConfig) Validate() error {
	var errs []error

	if o.Timeout < 0 {
		errs = append(errs, errors.New("timeout must be non-negative"))
	}

	if o.BaseURL != "" {
		parsedURL, err := url.Parse(o.BaseURL)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid base_url: %w", err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errs = append(errs, errors.New("base_url must use http or https scheme"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the GenerationConfig is valid.
func (g *GenerationConfig) Validate() error {
	var errs []error

	if g.MaxTokens <= 0 {
		errs = append(errs, errors.New("max_tokens must be positive"))
	}
	if g.Temperature < 0 || g.Temperature > 2 {
		errs = append(errs, errors.New("temperature must be between 0.0 and 2.0"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the RelevanceConfig is valid.
func (r *RelevanceConfig) Validate() error {
	var errs []error

	if _, err := relevance.ParseMethod(r.Method); err != nil {
		errs = append(errs, err)
	}
	if r.LengthCutoff < 0 {
		errs = append(errs, errors.New("length_cutoff must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the DeliveryConfig is valid.
func (d *DeliveryConfig) Validate() error {
	var errs []error

	if !validPublishers[d.Publisher] {
		errs = append(errs, fmt.Errorf("invalid publisher %q: must be one of stdout, apigateway", d.Publisher))
	}

	if d.Publisher == PublisherAPIGateway {
		if d.EndpointURL == "" {
			errs = append(errs, errors.New("endpoint_url is required for the apigateway publisher"))
		} else if u, err := url.Parse(d.EndpointURL); err != nil || u.Scheme != "https" {
			errs = append(errs, errors.New("endpoint_url must be an https URL"))
		}
		if d.ConnectionID == "" {
			errs = append(errs, errors.New("connection_id is required for the apigateway publisher"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the ServerConfig is valid.
func (s *ServerConfig) Validate() error {
	var errs []error

	if s.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if s.ReadLimit <= 0 {
		errs = append(errs, errors.New("read_limit must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the ObservabilityConfig is valid.
func (o *ObservabilityConfig) Validate() error {
	if err := o.Tracing.Validate(); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	return nil
}

// Validate checks if the TracingConfig is valid.
func (t *TracingConfig) Validate() error {
	var errs []error

	if t.Enabled {
		if t.ExporterType != "" && !validTracingExporterTypes[t.ExporterType] {
			errs = append(errs, fmt.Errorf("invalid exporter_type %q: must be one of none, stdout, otlp", t.ExporterType))
		}
		if t.ExporterType == "otlp" && t.OTLPEndpoint == "" {
			errs = append(errs, errors.New("otlp_endpoint is required when exporter_type is 'otlp'"))
		}
		if t.SampleRate < 0 || t.SampleRate > 1 {
			errs = append(errs, errors.New("sample_rate must be between 0.0 and 1.0"))
		}
		if t.ServiceName == "" {
			errs = append(errs, errors.New("service_name is required when tracing is enabled"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}
