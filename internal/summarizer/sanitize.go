package summarizer

import (
	"regexp"
	"strings"
)

var (
	// (Note: ...) or [Note: ...] anywhere in the text
	inlineDisclaimer = regexp.MustCompile(`(?i)[\(\[]\s*(note|disclaimer)\s*:[^\)\]]*[\)\]]`)
	// whole lines starting with Note:/Disclaimer:
	lineDisclaimer = regexp.MustCompile(`(?im)^\s*(note|disclaimer)\s*:.*$`)
	// leading "Summary:" / "摘要：" labels
	leadingLabel = regexp.MustCompile(`(?i)^\s*(summary|摘要)\s*[:：]\s*`)
	blankRuns    = regexp.MustCompile(`[ \t]*\n[\s]*`)
)

// SanitizeModelText removes wrapper noise models tend to add around an answer:
// code fences, "Summary:" labels and machine-translation disclaimers.
func SanitizeModelText(s string) string {
	s = StripCodeFence(s)
	s = inlineDisclaimer.ReplaceAllString(s, "")
	s = lineDisclaimer.ReplaceAllString(s, "")
	s = leadingLabel.ReplaceAllString(s, "")
	s = blankRuns.ReplaceAllString(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(s)
}

// StripCodeFence drops a leading ```json (or bare ```) and a trailing ```.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "```json"):
		s = s[len("```json"):]
	case strings.HasPrefix(s, "```"):
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
