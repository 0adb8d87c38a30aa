package postprocess

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	leadingSequence  = ".."
	trailingSequence = "..."
)

var (
	excludedChars      = regexp.MustCompile(`[™®©]`)
	excludedLeading    = regexp.MustCompile(`^[#*]+`)
	nonWordLeading     = regexp.MustCompile(`^[^\p{L}\p{N}_]+`)
	consecutiveSpaces  = regexp.MustCompile(`(\s)\s+`)
	pageNumbers        = regexp.MustCompile(`\[page \d+\]`)
	sentenceTerminator = regexp.MustCompile(`[.!?]\s*`)
)

// SnippetOptions controls CleanTextSnippet.
type SnippetOptions struct {
	// AddDotsOnStart replaces the start of the snippet with "..".
	AddDotsOnStart bool
	// AddDotsOnEnd appends "...".
	AddDotsOnEnd bool
	// CollapseWhitespace keeps only the first character of every whitespace run.
	CollapseWhitespace bool
	// OnlyExcludedLeading limits leading-character removal to '#' and '*';
	// when false every leading non-word character is removed.
	OnlyExcludedLeading bool
	// MaxLength truncates the snippet to that many characters when positive.
	MaxLength int
}

// DefaultSnippetOptions returns the options used for retrieved document
// snippets.
func DefaultSnippetOptions() SnippetOptions {
	return SnippetOptions{
		AddDotsOnEnd:        true,
		CollapseWhitespace:  true,
		OnlyExcludedLeading: true,
	}
}

// CleanTextSnippet tidies a snippet of retrieved text for display.
func CleanTextSnippet(text string, opts SnippetOptions) string {
	text = excludedChars.ReplaceAllString(text, "")
	if opts.OnlyExcludedLeading {
		text = excludedLeading.ReplaceAllString(text, "")
	} else {
		text = nonWordLeading.ReplaceAllString(text, "")
	}
	text = strings.TrimRightFunc(text, unicode.IsSpace)
	if opts.CollapseWhitespace {
		text = consecutiveSpaces.ReplaceAllString(text, "$1")
	}
	if opts.MaxLength > 0 && utf8.RuneCountInString(text) > opts.MaxLength {
		text = string([]rune(text)[:opts.MaxLength])
	}
	if opts.AddDotsOnStart {
		text = leadingSequence + dropRunes(text, len(leadingSequence))
	}
	if opts.AddDotsOnEnd {
		text += trailingSequence
	}
	return text
}

// SplitIntoSentences splits text on sentence terminators and returns the
// cleaned sentences that are longer than one character.
func SplitIntoSentences(text string) []string {
	opts := SnippetOptions{}
	var sentences []string
	for _, s := range sentenceTerminator.Split(text, -1) {
		s = strings.TrimSpace(CleanTextSnippet(s, opts))
		if utf8.RuneCountInString(s) > 1 {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// RemovePageNumbers removes "[page N]" markers from document text.
func RemovePageNumbers(text string) string {
	return pageNumbers.ReplaceAllString(text, "")
}
