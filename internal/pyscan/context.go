package pyscan

import (
	"fmt"
	"strings"
)

const commentLookback = 5

// splitLines splits source text the way the scanner counts lines: one entry
// per physical line, without a phantom entry for a trailing newline.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// contextWindow renders a numbered snippet of up to n lines either side of
// lineno for human review.
func contextWindow(lines []string, lineno, n int) string {
	lo := lineno - n
	if lo < 1 {
		lo = 1
	}
	hi := lineno + n
	if hi > len(lines) {
		hi = len(lines)
	}
	if lo > hi {
		return ""
	}
	var b strings.Builder
	for i := lo; i <= hi; i++ {
		if i > lo {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%5d: %s", i, lines[i-1])
	}
	return b.String()
}

// nearbyComment collects the contiguous #-comment block immediately preceding
// lineno, tolerating blank lines between comments. Returns "" when none.
func nearbyComment(lines []string, lineno int) string {
	start := lineno - 2 - commentLookback
	if start < 0 {
		start = 0
	}
	end := lineno - 1
	if end < 0 {
		end = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	window := lines[start:end]

	var collected []string
	for i := len(window) - 1; i >= 0; i-- {
		s := strings.TrimSpace(window[i])
		if strings.HasPrefix(s, "#") || s == "" {
			collected = append(collected, s)
			continue
		}
		break
	}
	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}
	return strings.TrimSpace(strings.Join(collected, "\n"))
}
