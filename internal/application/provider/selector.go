// Package provider selects and constructs the provider adapter for a model.
package provider

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/jbctechsolutions/answerstream/internal/application/ports"
	domainErrors "github.com/jbctechsolutions/answerstream/internal/domain/errors"
	domainProvider "github.com/jbctechsolutions/answerstream/internal/domain/provider"
)

// Selector resolves model names against the static model tables and builds
// adapters through the factory registered for each provider kind.
// It is safe for concurrent use.
type Selector struct {
	mu        sync.RWMutex
	factories map[domainProvider.Kind]ports.AdapterFactory
}

// NewSelector creates a Selector with no factories registered.
func NewSelector() *Selector {
	return &Selector{
		factories: make(map[domainProvider.Kind]ports.AdapterFactory),
	}
}

// RegisterFactory sets the factory used for kind, replacing any previous one.
func (s *Selector) RegisterFactory(kind domainProvider.Kind, factory ports.AdapterFactory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factories[kind] = factory
}

// HasFactory reports whether a factory is registered for kind.
func (s *Selector) HasFactory(kind domainProvider.Kind) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.factories[kind]
	return ok
}

// GetProviderKind returns the provider kind serving modelName.
func (s *Selector) GetProviderKind(modelName string) (domainProvider.Kind, error) {
	d, err := s.Describe(modelName)
	if err != nil {
		return "", err
	}
	return d.Kind, nil
}

// Describe returns the descriptor of modelName.
func (s *Selector) Describe(modelName string) (domainProvider.Descriptor, error) {
	d, ok := domainProvider.Lookup(modelName)
	if !ok {
		return domainProvider.Descriptor{}, &domainErrors.UnsupportedModelError{Model: modelName}
	}
	return d, nil
}

// GetProvider validates every capability the model's provider requires and
// only then constructs the adapter. Nothing is constructed when validation
// fails.
func (s *Selector) GetProvider(modelName string, cb ports.StreamCallback, apiKey string, maxTokens int, temperature float64) (ports.ProviderAdapter, error) {
	d, err := s.Describe(modelName)
	if err != nil {
		return nil, err
	}

	cfg := ports.AdapterConfig{
		Descriptor:  d,
		Callback:    cb,
		APIKey:      apiKey,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}

	s.mu.RLock()
	factory, ok := s.factories[d.Kind]
	s.mu.RUnlock()
	if !ok {
		return nil, domainErrors.NewError(domainErrors.CodeProvider,
			fmt.Sprintf("no adapter registered for %s", d.Kind.DisplayName()),
			domainErrors.ErrAdapterUnavailable)
	}

	adapter, err := factory.Construct(cfg)
	if err != nil {
		return nil, fmt.Errorf("construct %s adapter for %s: %w", d.Kind, modelName, err)
	}
	return adapter, nil
}

func validate(cfg ports.AdapterConfig) error {
	for _, c := range cfg.Descriptor.Required {
		missing := false
		switch c {
		case domainProvider.CapabilityCallback:
			missing = isNil(cfg.Callback)
		case domainProvider.CapabilityAPIKey:
			missing = cfg.APIKey == ""
		}
		if missing {
			return &domainErrors.MissingCapabilityError{
				Provider:   cfg.Descriptor.Kind.DisplayName(),
				Capability: string(c),
			}
		}
	}
	return nil
}

// isNil also catches a nil pointer or func stored in the interface, which
// would otherwise panic on the first token.
func isNil(cb ports.StreamCallback) bool {
	if cb == nil {
		return true
	}
	v := reflect.ValueOf(cb)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Chan, reflect.Interface, reflect.Slice:
		return v.IsNil()
	}
	return false
}
