// Package delivery serializes envelopes and hands them to a publisher.
package delivery

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jbctechsolutions/answerstream/internal/application/ports"
	domainErrors "github.com/jbctechsolutions/answerstream/internal/domain/errors"
	"github.com/jbctechsolutions/answerstream/internal/domain/message"
	"github.com/jbctechsolutions/answerstream/internal/infrastructure/logging"
)

// Service posts envelopes to exactly one publisher, synchronously and in
// call order. It does not retry.
type Service struct {
	publisher ports.PublisherPort
	logger    *logging.Logger
	posted    int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for delivery failures.
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a delivery service for publisher.
func NewService(publisher ports.PublisherPort, opts ...Option) (*Service, error) {
	if publisher == nil {
		return nil, domainErrors.ErrPublisherRequired
	}

	s := &Service{
		publisher: publisher,
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Post serializes env and publishes it. A publisher failure is returned as a
// *errors.DeliveryError.
func (s *Service) Post(ctx context.Context, env message.Envelope) error {
	payload, err := Encode(env)
	if err != nil {
		return err
	}

	if err := s.publisher.Publish(ctx, payload); err != nil {
		logging.LogDeliveryFailed(ctx, s.logger, string(env.Type), err)
		return &domainErrors.DeliveryError{Cause: err}
	}

	s.posted++
	return nil
}

// Posted returns the number of envelopes published successfully.
func (s *Service) Posted() int {
	return s.posted
}

// Encode returns the wire payload of env.
func Encode(env message.Envelope) ([]byte, error) {
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", env.Type, err)
	}
	return payload, nil
}

// Decode parses a wire payload.
func Decode(payload []byte) (message.Envelope, error) {
	var env message.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return message.Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if _, err := message.ParseType(string(env.Type)); err != nil {
		return message.Envelope{}, err
	}
	return env, nil
}
