// Package metrics provides domain types for per-request delivery metrics.
// Records carry counts and scores only, never question or answer text.
package metrics

import (
	"time"
)

// Stream statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// StreamRecord summarizes one streamed answer.
type StreamRecord struct {
	ID              string        // Unique request ID
	Model           string        // Model name from the provider table
	Provider        string        // bedrock, openai
	Status          string        // completed, failed
	TokenEvents     int           // Fragments received from the provider
	Envelopes       int           // Envelopes published, terminal one included
	OutputTokens    int           // Estimated model tokens in the final answer
	RelevanceMethod string        // NONE, WORD_RELEVANCE, TOKEN_INTERSECTION
	RelevanceScore  float64       // Score in [0,1]; 1.0 when unscored
	Duration        time.Duration // Wall time from first call to terminal envelope
	StartedAt       time.Time
	CompletedAt     time.Time
	ErrorMessage    string
}

// Succeeded reports whether the stream ended normally.
func (r StreamRecord) Succeeded() bool {
	return r.Status == StatusCompleted
}

// TimePeriod represents a time period for metrics aggregation.
type TimePeriod struct {
	Start time.Time
	End   time.Time
}

// Duration returns the duration of the time period.
func (p TimePeriod) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

// ModelSummary aggregates stream records of one model.
type ModelSummary struct {
	Model        string
	Streams      int64
	FailedCount  int64
	AvgRelevance float64
	AvgDuration  time.Duration
}

// Summary aggregates stream records over a period.
type Summary struct {
	Period         TimePeriod
	TotalStreams   int64
	SuccessCount   int64
	FailedCount    int64
	SuccessRate    float64 // 0.0 to 1.0
	TotalEnvelopes int64
	OutputTokens   int64
	AvgRelevance   float64
	AvgLatency     time.Duration
	Models         []ModelSummary
}

// Filter defines criteria for querying stream records.
type Filter struct {
	Model     string    // empty for all
	Provider  string    // empty for all
	Status    string    // empty for all
	StartDate time.Time // zero for no lower bound
	EndDate   time.Time // zero for no upper bound
	Limit     int       // 0 for no limit
	Offset    int
}

// DefaultFilter returns a Filter over the last 24 hours, capped at 100 rows.
func DefaultFilter() Filter {
	now := time.Now()
	return Filter{
		StartDate: now.Add(-24 * time.Hour),
		EndDate:   now,
		Limit:     100,
	}
}

// WithPeriod sets the time period for the filter.
func (f Filter) WithPeriod(start, end time.Time) Filter {
	f.StartDate = start
	f.EndDate = end
	return f
}

// WithModel sets the model filter.
func (f Filter) WithModel(model string) Filter {
	f.Model = model
	return f
}

// LastDays returns a filter covering the given number of days up to now.
func LastDays(days int) Filter {
	now := time.Now()
	return Filter{
		StartDate: now.Add(-time.Duration(days) * 24 * time.Hour),
		EndDate:   now,
	}
}
