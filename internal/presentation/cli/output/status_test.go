package output

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for the status goroutine and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestStatusLine(w *syncBuffer) *StatusLine {
	s := NewStatusLine(w, false)
	s.interval = 5 * time.Millisecond
	return s
}

func TestStatusLine_Lifecycle(t *testing.T) {
	var buf syncBuffer
	s := newTestStatusLine(&buf)

	s.Start("Waiting for GPT_4O")
	s.Start("Waiting for GPT_4O")
	s.Set("GPT_4O (2) Paris is")
	time.Sleep(30 * time.Millisecond)
	s.Clear()

	out := buf.String()
	if !strings.Contains(out, "Waiting for GPT_4O") {
		t.Errorf("expected initial text, got %q", out)
	}
	if !strings.Contains(out, "GPT_4O (2) Paris is") {
		t.Errorf("expected updated text, got %q", out)
	}
	if !strings.HasSuffix(out, "\r") {
		t.Errorf("expected the line to be cleared, got %q", out)
	}

	// A cleared line can be cleared again and restarted.
	s.Clear()
	s.Start("again")
	s.Clear()
	if !strings.Contains(buf.String(), "again") {
		t.Errorf("expected restarted text, got %q", buf.String())
	}
}

func TestStatusLine_ClearWithoutStart(t *testing.T) {
	var buf syncBuffer
	newTestStatusLine(&buf).Clear()
	if buf.String() != "" {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestStatusLine_Fail(t *testing.T) {
	var buf syncBuffer
	s := newTestStatusLine(&buf)

	s.Start("Waiting")
	s.Fail("throttled")

	if !strings.HasSuffix(buf.String(), "✗ throttled\n") {
		t.Errorf("got %q", buf.String())
	}
}
