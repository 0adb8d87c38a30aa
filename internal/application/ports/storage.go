package ports

import (
	"context"

	"github.com/jbctechsolutions/answerstream/internal/domain/metrics"
)

// MetricsStoragePort defines the interface for storing and retrieving stream metrics.
// Implementations might use SQLite, PostgreSQL, or other storage backends.
type MetricsStoragePort interface {
	// SaveStream persists a stream record to the metrics store.
	SaveStream(ctx context.Context, rec *metrics.StreamRecord) error

	// ListStreams retrieves stream records matching the filter.
	// Results are ordered by start time (most recent first).
	ListStreams(ctx context.Context, filter metrics.Filter) ([]metrics.StreamRecord, error)

	// Summarize aggregates the records matching the filter.
	Summarize(ctx context.Context, filter metrics.Filter) (*metrics.Summary, error)
}
