package rules

import "strings"

// splitLines splits file content without dropping a trailing unterminated
// line; the result is indexed 0-based for 1-based source lines.
func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// snippetRange returns source lines from..to inclusive (1-based, clamped).
func snippetRange(content string, from, to int) string {
	lines := splitLines(content)
	if from < 1 {
		from = 1
	}
	if to > len(lines) {
		to = len(lines)
	}
	if from > to {
		return ""
	}
	return strings.Join(lines[from-1:to], "\n")
}

// snippetAround returns a context window of window lines on each side of
// line.
func snippetAround(content string, line, window int) string {
	return snippetRange(content, line-window, line+window)
}
