package postprocess

import (
	"strings"
	"unicode"
)

// RemoveRepetitions collapses repeated word sequences, including nested
// repeats of growing size, as produced by a model stuck in a loop.
//
// The text is split into tokens (runs of non-space characters, each newline
// its own token). Windows of L tokens are compared with the window L
// positions to the right; on a match the L windows in between are dropped and
// the scan restarts. The window only grows after a pass finds nothing. Once a
// single window is left it is the result.
func RemoveRepetitions(text string) string {
	tokens := splitTokens(text)
	if len(tokens) < 2 {
		return text
	}

	windows := make([][]string, len(tokens))
	for i, tok := range tokens {
		windows[i] = []string{tok}
	}

	length := 1
	for len(windows) >= 2 {
		windows = expandWindows(windows)
		length++

		for {
			i := findRepeat(windows, length)
			if i < 0 {
				break
			}
			windows = append(windows[:i+1], windows[i+length+1:]...)
		}
	}

	return strings.ReplaceAll(strings.Join(windows[0], " "), "\n ", "\n")
}

// splitTokens returns the maximal runs of non-space runes plus a "\n" token
// for every newline, in order.
func splitTokens(text string) []string {
	var tokens []string
	start := -1
	for i, r := range text {
		if !unicode.IsSpace(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, text[start:i])
			start = -1
		}
		if r == '\n' {
			tokens = append(tokens, "\n")
		}
	}
	if start >= 0 {
		tokens = append(tokens, text[start:])
	}
	return tokens
}

// expandWindows grows every window by the last token of its right neighbour.
// The result has one window fewer.
func expandWindows(windows [][]string) [][]string {
	out := make([][]string, len(windows)-1)
	for i := range out {
		next := windows[i+1]
		w := make([]string, len(windows[i]), len(windows[i])+1)
		copy(w, windows[i])
		out[i] = append(w, next[len(next)-1])
	}
	return out
}

// findRepeat returns the first index i with windows[i] equal to
// windows[i+distance], or -1.
func findRepeat(windows [][]string, distance int) int {
	for i := 0; i+distance < len(windows); i++ {
		if equalWindows(windows[i], windows[i+distance]) {
			return i
		}
	}
	return -1
}

func equalWindows(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
