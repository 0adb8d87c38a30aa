package tokenizer

import (
	"regexp"
	"strings"

	"github.com/jbctechsolutions/answerstream/internal/application/ports"
)

type rewrite struct {
	re   *regexp.Regexp
	repl string
}

// Rules of the mteval-v13a tokenizer, applied in order.
var rules13a = []rewrite{
	// ASCII punctuation except apostrophe, period, comma, hyphen.
	{regexp.MustCompile("([{-~\\[-` -&(-+:-@/])"), " $1 "},
	// Period and comma unless preceded by a digit.
	{regexp.MustCompile(`([^0-9])([.,])`), "$1 $2 "},
	// Period and comma unless followed by a digit.
	{regexp.MustCompile(`([.,])([^0-9])`), " $1 $2"},
	// Dash when preceded by a digit.
	{regexp.MustCompile(`([0-9])(-)`), "$1 $2 "},
}

var entities = strings.NewReplacer(
	"&quot;", `"`,
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
)

// Tokenizer13a is the standard BLEU word tokenizer.
type Tokenizer13a struct{}

// Ensure Tokenizer13a implements ports.TokenizerPort.
var _ ports.TokenizerPort = Tokenizer13a{}

// NewTokenizer13a creates a 13a tokenizer.
func NewTokenizer13a() Tokenizer13a {
	return Tokenizer13a{}
}

// Tokenize splits a line into 13a tokens.
func (Tokenizer13a) Tokenize(text string) []string {
	return strings.Fields(Normalize13a(text))
}

// Normalize13a returns the line with 13a token boundaries marked by spaces.
func Normalize13a(line string) string {
	line = strings.ReplaceAll(line, "<skipped>", "")
	line = strings.ReplaceAll(line, "-\n", "")
	line = strings.ReplaceAll(line, "\n", " ")
	if strings.Contains(line, "&") {
		line = entities.Replace(line)
	}

	line = " " + line + " "
	for _, r := range rules13a {
		line = r.re.ReplaceAllString(line, r.repl)
	}
	return strings.Join(strings.Fields(line), " ")
}
