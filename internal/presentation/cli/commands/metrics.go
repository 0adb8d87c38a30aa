package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/answerstream/internal/domain/metrics"
	"github.com/jbctechsolutions/answerstream/internal/presentation/cli/output"
)

// ModelMetrics is the per-model breakdown in JSON output.
type ModelMetrics struct {
	Model        string  `json:"model"`
	Streams      int64   `json:"streams"`
	FailedCount  int64   `json:"failed_count"`
	AvgRelevance float64 `json:"avg_relevance"`
	AvgDuration  string  `json:"avg_duration"`
}

// StreamMetrics is one recent stream in JSON output.
type StreamMetrics struct {
	ID             string  `json:"id"`
	Model          string  `json:"model"`
	Provider       string  `json:"provider"`
	Status         string  `json:"status"`
	Envelopes      int     `json:"envelopes"`
	OutputTokens   int     `json:"output_tokens"`
	RelevanceScore float64 `json:"relevance_score"`
	Duration       string  `json:"duration"`
	StartedAt      string  `json:"started_at"`
	Error          string  `json:"error,omitempty"`
}

// UsageMetrics is the complete metrics report.
type UsageMetrics struct {
	Period         string          `json:"period"`
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date"`
	TotalStreams   int64           `json:"total_streams"`
	SuccessCount   int64           `json:"success_count"`
	FailedCount    int64           `json:"failed_count"`
	SuccessRate    float64         `json:"success_rate"`
	TotalEnvelopes int64           `json:"total_envelopes"`
	OutputTokens   int64           `json:"output_tokens"`
	AvgRelevance   float64         `json:"avg_relevance"`
	AvgLatency     string          `json:"avg_latency"`
	Models         []ModelMetrics  `json:"models"`
	Recent         []StreamMetrics `json:"recent"`
}

// NewMetricsCmd creates the metrics command.
func NewMetricsCmd() *cobra.Command {
	var (
		since string
		model string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Display stream delivery metrics",
		Long: `Display statistics for recently streamed answers.

This includes:
  • Total streams and success/failure rates
  • Envelopes delivered and estimated output tokens
  • Average relevance score and latency per model
  • The most recent streams

Use --since to filter by time range (e.g., "24h", "7d", "30d").`,
		Example: `  # Show metrics for the last 24 hours
  answerstream metrics --since 24h

  # One model over the last week
  answerstream metrics --since 7d --model GPT_4O

  # Get metrics as JSON for scripting
  answerstream metrics --since 30d -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMetrics(since, model, limit)
		},
	}

	cmd.Flags().StringVar(&since, "since", "24h", "time range for metrics (e.g., 24h, 7d, 30d)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "only include streams of this model")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of recent streams to list")

	return cmd
}

func runMetrics(since, model string, limit int) error {
	formatter := GetFormatter()

	duration, err := parseDuration(since)
	if err != nil {
		return fmt.Errorf("invalid time range: %w", err)
	}

	container, err := requireContainer()
	if err != nil {
		return err
	}
	repo := container.MetricsRepository()
	if repo == nil {
		return fmt.Errorf("metrics are disabled (observability.metrics.enabled)")
	}

	ctx := appContext()
	end := time.Now()
	filter := metrics.Filter{}.WithPeriod(end.Add(-duration), end).WithModel(model)

	summary, err := repo.Summarize(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to summarize streams: %w", err)
	}

	filter.Limit = limit
	recent, err := repo.ListStreams(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list streams: %w", err)
	}

	usage := convertToUsageMetrics(summary, recent, since)
	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(usage)
	}
	return printMetricsText(formatter, usage)
}

func convertToUsageMetrics(s *metrics.Summary, recent []metrics.StreamRecord, period string) UsageMetrics {
	models := make([]ModelMetrics, 0, len(s.Models))
	for _, m := range s.Models {
		models = append(models, ModelMetrics{
			Model:        m.Model,
			Streams:      m.Streams,
			FailedCount:  m.FailedCount,
			AvgRelevance: m.AvgRelevance,
			AvgDuration:  formatMetricsDuration(m.AvgDuration),
		})
	}

	streams := make([]StreamMetrics, 0, len(recent))
	for _, r := range recent {
		streams = append(streams, StreamMetrics{
			ID:             r.ID,
			Model:          r.Model,
			Provider:       r.Provider,
			Status:         r.Status,
			Envelopes:      r.Envelopes,
			OutputTokens:   r.OutputTokens,
			RelevanceScore: r.RelevanceScore,
			Duration:       formatMetricsDuration(r.Duration),
			StartedAt:      r.StartedAt.Format(time.RFC3339),
			Error:          r.ErrorMessage,
		})
	}

	return UsageMetrics{
		Period:         period,
		StartDate:      s.Period.Start.Format(time.RFC3339),
		EndDate:        s.Period.End.Format(time.RFC3339),
		TotalStreams:   s.TotalStreams,
		SuccessCount:   s.SuccessCount,
		FailedCount:    s.FailedCount,
		SuccessRate:    s.SuccessRate * 100,
		TotalEnvelopes: s.TotalEnvelopes,
		OutputTokens:   s.OutputTokens,
		AvgRelevance:   s.AvgRelevance,
		AvgLatency:     formatMetricsDuration(s.AvgLatency),
		Models:         models,
		Recent:         streams,
	}
}

// formatMetricsDuration formats a duration for human display in metrics output.
func formatMetricsDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}

// parseDuration parses a duration string like "24h", "7d", "30d".
func parseDuration(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}

	return time.ParseDuration(s)
}

func printMetricsText(formatter *output.Formatter, m UsageMetrics) error {
	formatter.Header("Answerstream Metrics")
	formatter.Println("")

	formatter.Println("  %s  %s to %s",
		formatter.Dim("Period:"),
		formatDateTime(m.StartDate),
		formatDateTime(m.EndDate))
	formatter.Println("")

	formatter.SubHeader("Summary")
	formatter.Println("")

	successRateColor := output.ColorGreen
	if m.SuccessRate < 90 {
		successRateColor = output.ColorYellow
	}
	if m.SuccessRate < 75 {
		successRateColor = output.ColorRed
	}

	formatter.Println("  %s  %d", formatter.Dim("Total Streams:"), m.TotalStreams)
	formatter.Println("  %s  %s (%d completed, %d failed)",
		formatter.Dim("Success Rate:"),
		formatter.Colorize(fmt.Sprintf("%.1f%%", m.SuccessRate), successRateColor),
		m.SuccessCount,
		m.FailedCount)
	formatter.Println("  %s  %s envelopes, %s output tokens",
		formatter.Dim("Delivered:"),
		formatNumber(m.TotalEnvelopes),
		formatNumber(m.OutputTokens))
	formatter.Println("  %s  %.2f", formatter.Dim("Avg Relevance:"), m.AvgRelevance)
	formatter.Println("  %s  %s", formatter.Dim("Avg Latency:"), m.AvgLatency)
	formatter.Println("")

	if len(m.Models) > 0 {
		formatter.SubHeader("Models")
		formatter.Println("")

		table := output.TableData{
			Columns: []output.TableColumn{
				{Header: "Model", Width: 16, Align: output.AlignLeft},
				{Header: "Streams", Width: 8, Align: output.AlignRight},
				{Header: "Failed", Width: 8, Align: output.AlignRight},
				{Header: "Relevance", Width: 10, Align: output.AlignRight},
				{Header: "Avg Duration", Width: 12, Align: output.AlignRight},
			},
			Rows: make([][]string, 0, len(m.Models)),
		}
		for _, mm := range m.Models {
			table.Rows = append(table.Rows, []string{
				mm.Model,
				fmt.Sprintf("%d", mm.Streams),
				fmt.Sprintf("%d", mm.FailedCount),
				fmt.Sprintf("%.2f", mm.AvgRelevance),
				mm.AvgDuration,
			})
		}
		if err := formatter.Table(table); err != nil {
			return err
		}
		formatter.Println("")
	}

	if len(m.Recent) > 0 {
		formatter.SubHeader("Recent Streams")
		formatter.Println("")

		table := output.TableData{
			Columns: []output.TableColumn{
				{Header: "Started", Width: 18, Align: output.AlignLeft},
				{Header: "Model", Width: 16, Align: output.AlignLeft},
				{Header: "Status", Width: 10, Align: output.AlignLeft},
				{Header: "Envelopes", Width: 10, Align: output.AlignRight},
				{Header: "Relevance", Width: 10, Align: output.AlignRight},
				{Header: "Duration", Width: 10, Align: output.AlignRight},
			},
			Rows: make([][]string, 0, len(m.Recent)),
		}
		for _, r := range m.Recent {
			status := r.Status
			if r.Status == metrics.StatusFailed {
				status = formatter.Colorize(status, output.ColorRed)
			}
			table.Rows = append(table.Rows, []string{
				formatDateTime(r.StartedAt),
				r.Model,
				status,
				fmt.Sprintf("%d", r.Envelopes),
				fmt.Sprintf("%.2f", r.RelevanceScore),
				r.Duration,
			})
		}
		if err := formatter.Table(table); err != nil {
			return err
		}
		formatter.Println("")
	}

	return nil
}

// formatDateTime formats an RFC3339 date string for display.
func formatDateTime(rfc3339 string) string {
	t, err := time.Parse(time.RFC3339, rfc3339)
	if err != nil {
		return rfc3339
	}
	return t.Format("Jan 02, 2006 15:04")
}

// formatNumber formats a large number with K/M suffixes.
func formatNumber(n int64) string {
	if n >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	}
	if n >= 1_000 {
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}
