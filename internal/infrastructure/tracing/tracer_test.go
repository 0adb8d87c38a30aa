package tracing

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jbctechsolutions/answerstream/internal/domain/relevance"
)

func newStdoutTracer(t *testing.T, buf *bytes.Buffer) *Tracer {
	t.Helper()

	tracer, err := New(context.Background(), Config{
		Enabled:      true,
		ExporterType: ExporterStdout,
		ServiceName:  "test-service",
		Environment:  "test",
		SampleRate:   1.0,
		Output:       buf,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tracer
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Enabled {
		t.Error("expected tracing to be disabled by default")
	}
	if cfg.ExporterType != ExporterNone {
		t.Errorf("expected exporter type 'none', got %s", cfg.ExporterType)
	}
	if cfg.ServiceName != "answerstream" {
		t.Errorf("expected service name 'answerstream', got %s", cfg.ServiceName)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected sample rate 1.0, got %f", cfg.SampleRate)
	}
}

func TestNew_Disabled(t *testing.T) {
	ctx := context.Background()

	tracer, err := New(ctx, Config{Enabled: true, ExporterType: ExporterNone})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tracer.Enabled() {
		t.Error("exporter none should produce a no-op tracer")
	}

	// Spans still work when disabled.
	ctx, ss := tracer.StartStreamSpan(ctx, "req-1", "openai", "GPT_4O", "gpt-4o")
	ss.SetCounts(3, 4, 5)
	RecordRelevance(ctx, relevance.Unscored())
	ss.End(nil)

	if err := tracer.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNew_UnsupportedExporter(t *testing.T) {
	_, err := New(context.Background(), Config{Enabled: true, ExporterType: "jaeger"})
	if err == nil {
		t.Fatal("expected error for unsupported exporter")
	}
}

func TestStreamSpan(t *testing.T) {
	buf := &bytes.Buffer{}
	tracer := newStdoutTracer(t, buf)
	ctx := context.Background()

	ctx, ss := tracer.StartStreamSpan(ctx, "req-1", "bedrock", "CLAUDE_3_HAIKU", "anthropic.claude-3-haiku-20240307-v1:0")
	RecordRelevance(ctx, relevance.Coverage(0.5, 0.75))

	pubCtx, pub := tracer.StartPublishSpan(ctx, "stream", 42)
	AddEvent(pubCtx, "sent")
	EndSpanWithError(pub, nil)

	ss.SetCounts(10, 11, 12)
	ss.End(nil)

	if err := tracer.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"answer.stream", "envelope.publish", "relevance.question_coverage", "stream.token_events"} {
		if !strings.Contains(out, want) {
			t.Errorf("trace output missing %q", want)
		}
	}
}

func TestStreamSpan_Error(t *testing.T) {
	buf := &bytes.Buffer{}
	tracer := newStdoutTracer(t, buf)
	ctx := context.Background()

	ctx, ss := tracer.StartStreamSpan(ctx, "req-2", "openai", "GPT_4O", "gpt-4o")
	RecordError(ctx, errors.New("first"))
	ss.End(errors.New("upstream closed"))

	if err := tracer.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !strings.Contains(buf.String(), "upstream closed") {
		t.Error("expected error description in trace output")
	}
}

func TestDefault(t *testing.T) {
	global = nil

	tracer := Default()
	if tracer == nil {
		t.Fatal("expected non-nil default tracer")
	}
	if tracer.Enabled() {
		t.Error("default tracer should be a no-op")
	}

	_, span := tracer.Start(context.Background(), "test")
	span.End()
}

func TestSpanFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	tracer := newStdoutTracer(t, buf)
	defer tracer.Shutdown(context.Background())

	ctx, _ := tracer.Start(context.Background(), "test-span")
	if !SpanFromContext(ctx).SpanContext().IsValid() {
		t.Error("expected a valid span in context")
	}
}

func TestSamplers(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
	}{
		{"always sample", 1.0},
		{"never sample", 0.0},
		{"ratio sample", 0.5},
		{"above max", 1.5},
		{"below min", -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			tracer, err := New(ctx, Config{
				Enabled:      true,
				ExporterType: ExporterStdout,
				ServiceName:  "test-service",
				SampleRate:   tt.sampleRate,
				Output:       &bytes.Buffer{},
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tracer.Shutdown(ctx)
		})
	}
}
