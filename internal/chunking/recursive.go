package chunking

import (
	"strings"
	"unicode/utf8"
)

// SplitRecursive cuts text into windows of at most size runes, preferring
// the earliest separator that occurs in the text and falling back to finer
// ones for pieces that are still too long. Consecutive windows share up to
// overlap runes.
func SplitRecursive(text string, size, overlap int, separators []string) []string {
	if len(separators) == 0 {
		separators = DefaultSeparators
	}
	return splitRecursive(text, size, overlap, separators)
}

func splitRecursive(text string, size, overlap int, separators []string) []string {
	sep := separators[len(separators)-1]
	var finer []string
	for i, candidate := range separators {
		if candidate == "" {
			sep = ""
			break
		}
		if strings.Contains(text, candidate) {
			sep = candidate
			finer = separators[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
	} else {
		for _, p := range strings.Split(text, sep) {
			if p != "" {
				pieces = append(pieces, p)
			}
		}
	}

	var out, fitting []string
	for _, piece := range pieces {
		if utf8.RuneCountInString(piece) <= size {
			fitting = append(fitting, piece)
			continue
		}
		if len(fitting) > 0 {
			out = append(out, merge(fitting, sep, size, overlap)...)
			fitting = nil
		}
		if len(finer) == 0 {
			out = append(out, merge(runesOf(piece), "", size, overlap)...)
		} else {
			out = append(out, splitRecursive(piece, size, overlap, finer)...)
		}
	}
	if len(fitting) > 0 {
		out = append(out, merge(fitting, sep, size, overlap)...)
	}
	return out
}

// merge packs pieces (each no longer than size) into windows joined by sep.
// When a window is emitted, pieces are dropped from its front until at most
// overlap runes remain to seed the next window.
func merge(pieces []string, sep string, size, overlap int) []string {
	sepLen := utf8.RuneCountInString(sep)
	var (
		windows []string
		current []string
		total   int
	)
	joinedLen := func(n int) int {
		if len(current) > 0 {
			return total + n + sepLen
		}
		return total + n
	}

	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if joinedLen(n) > size && len(current) > 0 {
			if window := strings.TrimSpace(strings.Join(current, sep)); window != "" {
				windows = append(windows, window)
			}
			for len(current) > 0 && (total > overlap || joinedLen(n) > size) {
				total -= utf8.RuneCountInString(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}
		total = joinedLen(n)
		current = append(current, piece)
	}
	if window := strings.TrimSpace(strings.Join(current, sep)); window != "" {
		windows = append(windows, window)
	}
	return windows
}

func runesOf(s string) []string {
	out := make([]string, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
