package app

import (
	"strings"
	"unicode"
)

// SanitizeText drops control characters, flattens line breaks, collapses
// whitespace runs and caps the result at maxLen bytes without splitting a rune.
func SanitizeText(s string, maxLen int) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	if maxLen > 0 && len(s) > maxLen {
		cut := maxLen
		for cut > 0 && !isRuneStart(s[cut]) {
			cut--
		}
		s = strings.TrimSpace(s[:cut])
	}
	return s
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

// ContainsDenied is a case-insensitive substring match against denylist.
func ContainsDenied(s string, denylist []string) bool {
	low := strings.ToLower(s)
	for _, w := range denylist {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" && strings.Contains(low, w) {
			return true
		}
	}
	return false
}
