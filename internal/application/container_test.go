package application

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/jbctechsolutions/answerstream/internal/adapters/publisher/writer"
	domainProvider "github.com/jbctechsolutions/answerstream/internal/domain/provider"
	"github.com/jbctechsolutions/answerstream/internal/infrastructure/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Observability.Metrics.DatabasePath = filepath.Join(t.TempDir(), "metrics.db")
	return cfg
}

func TestNewContainer(t *testing.T) {
	container, err := NewContainer(testConfig(t), false)
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}
	defer container.Close()

	if container.Config() == nil {
		t.Error("Config should not be nil")
	}
	if container.Logger() == nil {
		t.Error("Logger should not be nil")
	}
	if container.Tracer() == nil {
		t.Error("Tracer should not be nil")
	}
	if container.Pipeline() == nil {
		t.Error("Pipeline should not be nil")
	}
	if container.Scorer() == nil {
		t.Error("Scorer should not be nil")
	}
	if container.Estimator() == nil {
		t.Error("Estimator should not be nil")
	}
	if container.MetricsRepository() == nil {
		t.Error("MetricsRepository should not be nil when metrics are enabled")
	}

	for _, kind := range []domainProvider.Kind{domainProvider.KindBedrock, domainProvider.KindOpenAI} {
		if !container.Selector().HasFactory(kind) {
			t.Errorf("expected a factory for %s", kind)
		}
	}
}

func TestNewContainer_MetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Observability.Metrics.Enabled = false

	container, err := NewContainer(cfg, true)
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}
	defer container.Close()

	if container.MetricsRepository() != nil {
		t.Error("MetricsRepository should be nil when metrics are disabled")
	}
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Relevance.Method = "WORLD_RELEVANCE"

	if _, err := NewContainer(cfg, false); err == nil {
		t.Fatal("expected invalid configuration error")
	}
}

func TestContainer_NewPublisher(t *testing.T) {
	container, err := NewContainer(testConfig(t), false)
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}
	defer container.Close()

	var buf bytes.Buffer
	pub, err := container.NewPublisher(context.Background(), &buf)
	if err != nil {
		t.Fatalf("NewPublisher failed: %v", err)
	}
	if _, ok := pub.(*writer.Publisher); !ok {
		t.Errorf("expected writer publisher, got %T", pub)
	}
}

func TestContainer_Close(t *testing.T) {
	container, err := NewContainer(testConfig(t), false)
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}

	if err := container.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
