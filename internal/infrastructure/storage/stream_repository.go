package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jbctechsolutions/answerstream/internal/application/ports"
	"github.com/jbctechsolutions/answerstream/internal/domain/metrics"
)

// timeLayout is fixed width so stored timestamps sort lexically in
// chronological order. The columns are TEXT so the driver hands the stored
// string back unparsed.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// StreamRepository implements ports.MetricsStoragePort using SQLite.
type StreamRepository struct {
	db *sql.DB
}

// Ensure StreamRepository implements ports.MetricsStoragePort.
var _ ports.MetricsStoragePort = (*StreamRepository)(nil)

// NewStreamRepository creates a new StreamRepository.
func NewStreamRepository(db *sql.DB) *StreamRepository {
	return &StreamRepository{db: db}
}

// SaveStream persists a stream record.
func (r *StreamRepository) SaveStream(ctx context.Context, rec *metrics.StreamRecord) error {
	if rec == nil {
		return errors.New("stream record is nil")
	}

	query := `
		INSERT INTO stream_records (
			id, model, provider, status, token_events, envelopes, output_tokens,
			relevance_method, relevance_score, duration_ns, started_at,
			completed_at, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.Model,
		rec.Provider,
		rec.Status,
		rec.TokenEvents,
		rec.Envelopes,
		rec.OutputTokens,
		rec.RelevanceMethod,
		rec.RelevanceScore,
		rec.Duration.Nanoseconds(),
		formatTime(rec.StartedAt),
		formatTime(rec.CompletedAt),
		rec.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to save stream record: %w", err)
	}

	return nil
}

// ListStreams retrieves stream records matching the filter, newest first.
func (r *StreamRepository) ListStreams(ctx context.Context, filter metrics.Filter) ([]metrics.StreamRecord, error) {
	where, args := whereClause(filter)
	query := `
		SELECT id, model, provider, status, token_events, envelopes,
			output_tokens, relevance_method, relevance_score, duration_ns,
			started_at, completed_at, COALESCE(error_message, '')
		FROM stream_records
	` + where + " ORDER BY started_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stream records: %w", err)
	}
	defer rows.Close()

	var records []metrics.StreamRecord
	for rows.Next() {
		var rec metrics.StreamRecord
		var durationNs int64
		var startedAt, completedAt string

		err := rows.Scan(
			&rec.ID,
			&rec.Model,
			&rec.Provider,
			&rec.Status,
			&rec.TokenEvents,
			&rec.Envelopes,
			&rec.OutputTokens,
			&rec.RelevanceMethod,
			&rec.RelevanceScore,
			&durationNs,
			&startedAt,
			&completedAt,
			&rec.ErrorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stream record: %w", err)
		}

		rec.Duration = time.Duration(durationNs)
		if rec.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("failed to parse started_at of %s: %w", rec.ID, err)
		}
		if rec.CompletedAt, err = time.Parse(timeLayout, completedAt); err != nil {
			return nil, fmt.Errorf("failed to parse completed_at of %s: %w", rec.ID, err)
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stream records: %w", err)
	}

	return records, nil
}

// Summarize aggregates the records matching filter. An unbounded period
// defaults to the 24 hours before now.
func (r *StreamRepository) Summarize(ctx context.Context, filter metrics.Filter) (*metrics.Summary, error) {
	period := metrics.TimePeriod{Start: filter.StartDate, End: filter.EndDate}
	if period.End.IsZero() {
		period.End = time.Now()
	}
	if period.Start.IsZero() {
		period.Start = period.End.Add(-24 * time.Hour)
	}
	filter.StartDate, filter.EndDate = period.Start, period.End

	result := &metrics.Summary{Period: period}
	where, args := whereClause(filter)

	totals := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(envelopes), 0),
			COALESCE(SUM(output_tokens), 0),
			COALESCE(AVG(relevance_score), 0),
			COALESCE(AVG(duration_ns), 0)
		FROM stream_records
	` + where

	var avgDurationNs float64
	err := r.db.QueryRowContext(ctx, totals, args...).Scan(
		&result.TotalStreams,
		&result.SuccessCount,
		&result.FailedCount,
		&result.TotalEnvelopes,
		&result.OutputTokens,
		&result.AvgRelevance,
		&avgDurationNs,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query stream summary: %w", err)
	}

	result.AvgLatency = time.Duration(avgDurationNs)
	if result.TotalStreams > 0 {
		result.SuccessRate = float64(result.SuccessCount) / float64(result.TotalStreams)
	}

	models, err := r.modelSummaries(ctx, where, args)
	if err != nil {
		return nil, err
	}
	result.Models = models

	return result, nil
}

func (r *StreamRepository) modelSummaries(ctx context.Context, where string, args []any) ([]metrics.ModelSummary, error) {
	query := `
		SELECT
			model,
			COUNT(*) AS streams,
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END),
			COALESCE(AVG(relevance_score), 0),
			COALESCE(AVG(duration_ns), 0)
		FROM stream_records
	` + where + " GROUP BY model ORDER BY streams DESC, model ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query model summaries: %w", err)
	}
	defer rows.Close()

	var summaries []metrics.ModelSummary
	for rows.Next() {
		var s metrics.ModelSummary
		var avgDurationNs float64
		if err := rows.Scan(&s.Model, &s.Streams, &s.FailedCount, &s.AvgRelevance, &avgDurationNs); err != nil {
			return nil, fmt.Errorf("failed to scan model summary: %w", err)
		}
		s.AvgDuration = time.Duration(avgDurationNs)
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating model summaries: %w", err)
	}

	return summaries, nil
}

func whereClause(filter metrics.Filter) (string, []any) {
	where := " WHERE 1=1"
	args := make([]any, 0, 5)

	if filter.Model != "" {
		where += " AND model = ?"
		args = append(args, filter.Model)
	}
	if filter.Provider != "" {
		where += " AND provider = ?"
		args = append(args, filter.Provider)
	}
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, filter.Status)
	}
	if !filter.StartDate.IsZero() {
		where += " AND started_at >= ?"
		args = append(args, formatTime(filter.StartDate))
	}
	if !filter.EndDate.IsZero() {
		where += " AND started_at <= ?"
		args = append(args, formatTime(filter.EndDate))
	}

	return where, args
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
