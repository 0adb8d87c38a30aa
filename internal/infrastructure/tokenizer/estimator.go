// Package tokenizer provides the text tokenizers used around the answer
// pipeline: tiktoken-based token counting for usage statistics and the 13a
// word tokenizer used for n-gram relevance scoring.
package tokenizer

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/jbctechsolutions/answerstream/internal/application/ports"
)

// DefaultEncoding is used when a model has no known tiktoken encoding.
// cl100k_base is a reasonable approximation for Bedrock-hosted models.
const DefaultEncoding = "cl100k_base"

// Estimator counts tokens with tiktoken-go.
type Estimator struct {
	encoding *tiktoken.Tiktoken
	name     string
	mu       sync.RWMutex
}

// Ensure Estimator implements ports.TokenEstimator.
var _ ports.TokenEstimator = (*Estimator)(nil)

// NewEstimator creates an estimator for the named encoding.
// An empty name selects DefaultEncoding.
func NewEstimator(encoding string) (*Estimator, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}

	return &Estimator{encoding: enc, name: encoding}, nil
}

// NewEstimatorForModel creates an estimator for an OpenAI model id, falling
// back to DefaultEncoding for models tiktoken does not know.
func NewEstimatorForModel(modelID string) (*Estimator, error) {
	enc, err := tiktoken.EncodingForModel(modelID)
	if err != nil {
		return NewEstimator(DefaultEncoding)
	}
	return &Estimator{encoding: enc, name: modelID}, nil
}

// Name returns the encoding or model the estimator was built for.
func (e *Estimator) Name() string {
	return e.name
}

// CountTokens returns the token count for the given text.
// This method is thread-safe.
func (e *Estimator) CountTokens(text string) int {
	if text == "" {
		return 0
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.encoding.Encode(text, nil, nil))
}

// SimpleEstimator approximates ~4 characters per token. It is used when the
// tiktoken encoding files cannot be loaded.
type SimpleEstimator struct{}

// Ensure SimpleEstimator implements ports.TokenEstimator.
var _ ports.TokenEstimator = (*SimpleEstimator)(nil)

// NewSimpleEstimator creates a new simple token estimator.
func NewSimpleEstimator() *SimpleEstimator {
	return &SimpleEstimator{}
}

// CountTokens returns an estimated token count.
func (e *SimpleEstimator) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// NewBestEffort returns a tiktoken estimator for the encoding, or a
// SimpleEstimator together with the load error.
func NewBestEffort(encoding string) (ports.TokenEstimator, error) {
	est, err := NewEstimator(encoding)
	if err != nil {
		return NewSimpleEstimator(), err
	}
	return est, nil
}
