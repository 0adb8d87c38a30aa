package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// statusInterval is the redraw period of a StatusLine.
const statusInterval = 80 * time.Millisecond

var statusFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// StatusLine is a single animated terminal line showing what a stream is
// doing. It redraws itself in place until it is cleared.
type StatusLine struct {
	mu       sync.Mutex
	w        io.Writer
	color    bool
	interval time.Duration
	text     string
	drawn    int // runes on screen, for clearing
	frame    int
	stop     chan struct{}
	stopped  chan struct{}
}

// NewStatusLine creates a StatusLine drawing to w, usually stderr.
func NewStatusLine(w io.Writer, color bool) *StatusLine {
	return &StatusLine{w: w, color: color, interval: statusInterval}
}

// Start shows text and begins animating. Calling Start on a running line
// only replaces the text.
func (s *StatusLine) Start(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.text = text
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.stopped = make(chan struct{})
	go s.run(s.stop, s.stopped)
}

// Set replaces the text shown on the next redraw.
func (s *StatusLine) Set(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
}

// Clear stops the animation and erases the line. It is a no-op when the
// line is not running.
func (s *StatusLine) Clear() {
	s.mu.Lock()
	stop, stopped := s.stop, s.stopped
	s.stop, s.stopped = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-stopped

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drawn > 0 {
		_, _ = fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.drawn))
		s.drawn = 0
	}
}

// Fail clears the line and leaves msg in its place.
func (s *StatusLine) Fail(msg string) {
	s.Clear()
	_, _ = fmt.Fprintln(s.w, paint("✗ "+msg, ColorRed, s.color))
}

func (s *StatusLine) run(stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.draw()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.draw()
		}
	}
}

func (s *StatusLine) draw() {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame := statusFrames[s.frame%len(statusFrames)]
	s.frame++

	line := frame + " " + s.text
	// Pad over the remains of a longer previous line.
	if n := utf8.RuneCountInString(line); n < s.drawn {
		line += strings.Repeat(" ", s.drawn-n)
	} else {
		s.drawn = n
	}
	_, _ = fmt.Fprint(s.w, "\r"+paint(frame, ColorCyan, s.color)+strings.TrimPrefix(line, frame))
}
