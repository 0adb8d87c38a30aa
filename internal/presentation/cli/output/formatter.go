// Package output renders command results and streamed answers for the terminal.
// Formatter writes text, tables and JSON; Renderer turns delivered envelopes
// into a live view of an answer.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Format is the value of the --output flag.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat converts the --output flag value into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "text", "":
		return FormatText, nil
	default:
		return FormatText, fmt.Errorf("unknown output format: %s", s)
	}
}

// Color is an ANSI escape sequence.
type Color string

const (
	ColorReset  Color = "\033[0m"
	ColorRed    Color = "\033[31m"
	ColorGreen  Color = "\033[32m"
	ColorYellow Color = "\033[33m"
	ColorBlue   Color = "\033[34m"
	ColorCyan   Color = "\033[36m"
	ColorBold   Color = "\033[1m"
	ColorDim    Color = "\033[2m"
)

// jsonIndent is the indentation of JSON command output.
const jsonIndent = "  "

// Formatter writes command output. All writes are serialized, so one
// Formatter can be shared by the renderer and the command that owns it.
type Formatter struct {
	mu     sync.Mutex
	w      io.Writer
	format Format
	color  bool
}

// Option configures a Formatter.
type Option func(*Formatter)

// NewFormatter creates a text Formatter writing colored output to stdout
// unless options say otherwise.
func NewFormatter(opts ...Option) *Formatter {
	f := &Formatter{w: os.Stdout, format: FormatText, color: true}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// WithWriter sets the destination.
func WithWriter(w io.Writer) Option {
	return func(f *Formatter) { f.w = w }
}

// WithFormat sets the output format.
func WithFormat(format Format) Option {
	return func(f *Formatter) { f.format = format }
}

// WithColor enables or disables ANSI colors.
func WithColor(enabled bool) Option {
	return func(f *Formatter) { f.color = enabled }
}

// Format returns the output format.
func (f *Formatter) Format() Format {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.format
}

// Println writes one formatted line.
func (f *Formatter) Println(format string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := fmt.Fprintf(f.w, format+"\n", args...)
	return err
}

// Colorize wraps text in color when colors are enabled.
func (f *Formatter) Colorize(text string, color Color) string {
	f.mu.Lock()
	enabled := f.color
	f.mu.Unlock()
	return paint(text, color, enabled)
}

// Dim renders text in the muted style used for secondary details.
func (f *Formatter) Dim(text string) string {
	return f.Colorize(text, ColorDim)
}

// Success prints a green line marked with a check.
func (f *Formatter) Success(format string, args ...any) error {
	return f.mark("✓", ColorGreen, format, args)
}

// Error prints a red line marked with a cross.
func (f *Formatter) Error(format string, args ...any) error {
	return f.mark("✗", ColorRed, format, args)
}

// Warning prints a yellow line marked with a warning sign.
func (f *Formatter) Warning(format string, args ...any) error {
	return f.mark("⚠", ColorYellow, format, args)
}

// Info prints a blue line marked with an info sign.
func (f *Formatter) Info(format string, args ...any) error {
	return f.mark("ℹ", ColorBlue, format, args)
}

func (f *Formatter) mark(symbol string, color Color, format string, args []any) error {
	line := symbol + " " + fmt.Sprintf(format, args...)
	return f.Println("%s", f.Colorize(line, color))
}

// Header prints a bold title underlined to its width.
func (f *Formatter) Header(title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := fmt.Fprintf(f.w, "%s\n%s\n", paint(title, ColorBold, f.color), strings.Repeat("─", len(title)))
	return err
}

// SubHeader prints a section title.
func (f *Formatter) SubHeader(title string) error {
	return f.Println("%s", f.Colorize(title, ColorCyan))
}

// Item prints an indented "key: value" line.
func (f *Formatter) Item(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := fmt.Fprintf(f.w, "  %s: %s\n", paint(key, ColorDim, f.color), value)
	return err
}

// JSON writes v as indented JSON.
func (f *Formatter) JSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	enc := json.NewEncoder(f.w)
	enc.SetIndent("", jsonIndent)
	return enc.Encode(v)
}

func paint(text string, color Color, enabled bool) string {
	if !enabled {
		return text
	}
	return string(color) + text + string(ColorReset)
}
