// Package chunk splits text into parts that fit platform size limits.
package chunk

import "unicode"

// Segment splits text into parts of at most limit code points each. It
// prefers breaking at the last line break within the limit, then at the
// last other whitespace, and hard-cuts only when a part contains no
// whitespace at all. Leading whitespace of continuation parts is dropped,
// so the whitespace consumed at a break point is not carried over.
func Segment(text string, limit int) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return []string{text}
	}

	var parts []string
	for len(runes) > 0 {
		if len(parts) > 0 {
			runes = trimLeadingSpace(runes)
			if len(runes) == 0 {
				break
			}
		}
		if len(runes) <= limit {
			parts = append(parts, string(runes))
			break
		}

		cut := breakIndex(runes[:limit+1])
		if cut <= 0 {
			cut = limit
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	return parts
}

// breakIndex returns the index of the preferred break point within window,
// which holds one code point more than the part limit so that a separator
// sitting exactly on the boundary is found. Line breaks win over other
// whitespace; returns -1 when the window has no whitespace.
func breakIndex(window []rune) int {
	lastSpace := -1
	for i := len(window) - 1; i > 0; i-- {
		if window[i] == '\n' {
			return i
		}
		if lastSpace < 0 && unicode.IsSpace(window[i]) {
			lastSpace = i
		}
	}
	return lastSpace
}

func trimLeadingSpace(runes []rune) []rune {
	i := 0
	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}
	return runes[i:]
}
