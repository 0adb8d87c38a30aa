// Package postprocess cleans raw model output and user questions before they
// are shown to a recipient.
package postprocess

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NoAnswer replaces answers that are empty after cleaning.
const NoAnswer = "[NO ANSWER]"

const (
	lineBreakMarker = "<n>"
	answerPrefix    = "Answer:"
	contextSuffix   = "Context:"
	humanTurn       = "Human:"
	keywordsMarker  = "Keywords:"
	questionPunct   = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~ "
)

// Options controls CleanAnswer.
type Options struct {
	RemoveFirstBulletpoint bool
	RemoveLastKeywords     bool
}

// DefaultOptions returns the options CleanAnswer uses when none are given.
func DefaultOptions() Options {
	return Options{RemoveFirstBulletpoint: true}
}

// Option mutates Options.
type Option func(*Options)

// WithRemoveFirstBulletpoint sets whether a leading "-" bullet is dropped.
func WithRemoveFirstBulletpoint(remove bool) Option {
	return func(o *Options) { o.RemoveFirstBulletpoint = remove }
}

// WithRemoveLastKeywords sets whether a trailing "Keywords:" marker is trimmed.
func WithRemoveLastKeywords(remove bool) Option {
	return func(o *Options) { o.RemoveLastKeywords = remove }
}

// WithOptions replaces all options at once.
func WithOptions(opts Options) Option {
	return func(o *Options) { *o = opts }
}

// CleanQuestion strips leading punctuation and spaces, trailing spaces, and
// capitalizes the first character. Input that is empty after stripping
// yields "".
func CleanQuestion(question string) string {
	question = strings.TrimLeft(question, questionPunct)
	question = strings.TrimRight(question, " ")
	return capitalizeFirst(question)
}

// CleanAnswer normalizes a raw (possibly partial) model answer. It never
// fails: answers that end up empty become NoAnswer.
func CleanAnswer(answer string, opts ...Option) string {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	hasBullet := !o.RemoveFirstBulletpoint && strings.HasPrefix(answer, "-")

	answer = strings.ReplaceAll(answer, lineBreakMarker, "")
	if utf8.RuneCountInString(answer) <= 1 {
		return NoAnswer
	}
	// Streamed fragments usually start with a space.
	answer = strings.TrimLeftFunc(answer, unicode.IsSpace)

	if hasBullet {
		answer = "- " + strings.TrimLeft(strings.TrimPrefix(answer, "-"), " ")
	}

	answer = strings.TrimRight(answer, " \n")

	if strings.HasPrefix(answer, answerPrefix) {
		answer = dropRunes(answer[len(answerPrefix):], 1)
	}
	answer = strings.TrimSuffix(answer, contextSuffix)

	if i := strings.Index(answer, humanTurn); i >= 0 {
		answer = strings.TrimRightFunc(answer[:i], unicode.IsSpace)
	}

	if o.RemoveLastKeywords {
		if fields := strings.Fields(answer); len(fields) > 0 && fields[len(fields)-1] == keywordsMarker {
			answer = dropLastRunes(answer, len(keywordsMarker)+1)
		}
	}

	answer = strings.TrimLeftFunc(answer, unicode.IsSpace)
	if answer == "" {
		return NoAnswer
	}

	answer = capitalizeFirst(answer)
	if !endsWithTerminal(answer) {
		answer += "."
	}

	return RemoveRepetitions(answer)
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToTitle(r)) + s[size:]
}

func endsWithTerminal(s string) bool {
	switch {
	case strings.HasSuffix(s, "."), strings.HasSuffix(s, "!"), strings.HasSuffix(s, "?"):
		return true
	}
	return false
}

// dropRunes removes the first n runes of s.
func dropRunes(s string, n int) string {
	for i := 0; i < n && s != ""; i++ {
		_, size := utf8.DecodeRuneInString(s)
		s = s[size:]
	}
	return s
}

// dropLastRunes removes the last n runes of s.
func dropLastRunes(s string, n int) string {
	for i := 0; i < n && s != ""; i++ {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return s
}
