// Package textutil cleans feed markup and provides rune-aware helpers for
// mixed Chinese/Latin text.
package textutil

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Ellipsis marks text cut by Truncate.
const Ellipsis = "..."

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Clean decodes HTML entities, strips tags literally and collapses whitespace.
func Clean(raw string) string {
	text := html.UnescapeString(raw)
	text = tagPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// IsCJK reports whether r is in the CJK Unified Ideographs block.
func IsCJK(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

// ContainsCJK reports whether any rune of s is a CJK ideograph.
func ContainsCJK(s string) bool {
	for _, r := range s {
		if IsCJK(r) {
			return true
		}
	}
	return false
}

// CountCJK returns the number of CJK ideographs in s.
func CountCJK(s string) int {
	n := 0
	for _, r := range s {
		if IsCJK(r) {
			n++
		}
	}
	return n
}

// NonASCIIRatio returns the share of runes above U+007F. Empty input yields 0.
func NonASCIIRatio(s string) float64 {
	total, high := 0, 0
	for _, r := range s {
		total++
		if r > 127 {
			high++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(high) / float64(total)
}

// RuneLen is the length used for every length cap in the bot.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// Truncate cuts s to max runes, replacing the tail with an ellipsis when cut.
func Truncate(s string, max int) string {
	if max <= 0 || RuneLen(s) <= max {
		return s
	}
	runes := []rune(s)
	keep := max - len(Ellipsis)
	if keep < 0 {
		keep = 0
	}
	return string(runes[:keep]) + Ellipsis
}

// Head returns the first n runes of s followed by an ellipsis when s is longer.
// Unlike Truncate the ellipsis is appended past the n-rune budget.
func Head(s string, n int) string {
	if RuneLen(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + Ellipsis
}
