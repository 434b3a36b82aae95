package summarizer

import (
	"strings"
	"testing"
)

func TestSanitizeModelText_RemovesInlineParenthesizedDisclaimer(t *testing.T) {
	in := "台積電宣布擴大投資。\n(Note: This translation is a machine translation and may contain errors.) 新廠預計明年量產。"
	out := SanitizeModelText(in)
	if strings.Contains(strings.ToLower(out), "note:") {
		t.Errorf("output still contains disclaimer: %q", out)
	}
	if !strings.Contains(out, "新廠預計明年量產") {
		t.Errorf("expected content preserved after disclaimer removal, got: %q", out)
	}
}

func TestSanitizeModelText_RemovesFullLineNote(t *testing.T) {
	in := "Note: This summary was generated automatically.\nApple reported record revenue."
	out := SanitizeModelText(in)
	if strings.Contains(strings.ToLower(out), "note:") {
		t.Errorf("disclaimer line was not removed: %q", out)
	}
	if out != "Apple reported record revenue." {
		t.Errorf("got %q", out)
	}
}

func TestSanitizeModelText_RemovesBracketedDisclaimerAndLabel(t *testing.T) {
	in := "摘要：[Note: machine generated] 這是測試內容。"
	out := SanitizeModelText(in)
	if strings.Contains(strings.ToLower(out), "note") || strings.HasPrefix(out, "摘要") {
		t.Errorf("wrapper noise not removed: %q", out)
	}
	if !strings.Contains(out, "這是測試內容") {
		t.Errorf("expected text preserved, got %q", out)
	}
}

func TestStripCodeFence(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}```":       `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
	}
	for in, want := range cases {
		if got := StripCodeFence(in); got != want {
			t.Errorf("StripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}
