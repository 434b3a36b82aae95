package summarizer

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/deusflow/newsbot/internal/news"
	"github.com/deusflow/newsbot/internal/textutil"
)

func englishSentences(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("The company shipped product %d to many eager customers in the market.", i)
	}
	return out
}

func TestSplitSentences(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"One. Two! Three?", []string{"One.", "Two!", "Three?"}},
		{"第一句。第二句！第三句", []string{"第一句。", "第二句！", "第三句"}},
		{"Wait... what", []string{"Wait.", ".", ".", "what"}},
		{"", nil},
	}
	for _, tc := range cases {
		if got := splitSentences(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("splitSentences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTokenize(t *testing.T) {
	if got := tokenize("Apple ships  chips"); !reflect.DeepEqual(got, []string{"Apple", "ships", "chips"}) {
		t.Errorf("latin tokens = %q", got)
	}
	if got := tokenize("台積電"); !reflect.DeepEqual(got, []string{"台", "積", "電"}) {
		t.Errorf("cjk tokens = %q", got)
	}
}

func TestExtractiveShortTextUnchanged(t *testing.T) {
	e := NewExtractiveSummary(DefaultThresholds())

	text := "台積電宣布新投資計畫"
	if got, _ := e.Summarize(context.Background(), text, news.LanguageChinese, 300); got != text {
		t.Fatalf("got %q, want unchanged", got)
	}

	three := "One sentence here. Another sentence here. A third sentence here."
	if got, _ := e.Summarize(context.Background(), three, news.LanguageEnglish, 20); got != textutil.Truncate(three, 20) {
		t.Fatalf("three sentences should only be truncated, got %q", got)
	}
}

func TestExtractivePicksLeadSentencesInOrder(t *testing.T) {
	e := NewExtractiveSummary(DefaultThresholds())
	sentences := englishSentences(10)
	text := strings.Join(sentences, " ")
	if textutil.RuneLen(text) <= 400 {
		t.Fatalf("fixture too short: %d", textutil.RuneLen(text))
	}

	got, err := e.Summarize(context.Background(), text, news.LanguageEnglish, 400)
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join(sentences[:4], " ")
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
	if textutil.RuneLen(got) > 400 {
		t.Fatalf("summary too long: %d", textutil.RuneLen(got))
	}
}

var frequentTermSentences = []string{
	"Intro words go here now.",
	"Filler text here.",
	"More filler appears again.",
	"Chip chip chip chip chip chip.",
	"Random words nobody repeats ever.",
	"Chip chip chip chip sales chip.",
	"Short one.",
}

func TestExtractivePrefersFrequentTerms(t *testing.T) {
	e := NewExtractiveSummary(DefaultThresholds())
	text := strings.Join(frequentTermSentences, " ")

	got, _ := e.Summarize(context.Background(), text, news.LanguageEnglish, 60)
	if !strings.HasPrefix(got, "Intro words go here now.") {
		t.Fatalf("selection must keep original order, got %q", got)
	}
	if textutil.RuneLen(got) > 60 {
		t.Fatalf("too long: %d", textutil.RuneLen(got))
	}
}

func TestExtractiveSelectsTopScoringSentences(t *testing.T) {
	e := NewExtractiveSummary(DefaultThresholds())
	s := frequentTermSentences
	text := strings.Join(s, " ")
	if textutil.RuneLen(text) <= 150 {
		t.Fatalf("fixture too short: %d", textutil.RuneLen(text))
	}

	// Both chip sentences win on frequency despite the tail weight, the
	// intro outranks the other lead filler, and "Short one." is too short.
	got, _ := e.Summarize(context.Background(), text, news.LanguageEnglish, 150)
	want := strings.Join([]string{s[0], s[2], s[3], s[5]}, " ")
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestShortTextCutoffIndependentOfLeadSentences(t *testing.T) {
	th := DefaultThresholds()
	th.ShortTextSentences = len(frequentTermSentences)
	e := NewExtractiveSummary(th)
	text := strings.Join(frequentTermSentences, " ")

	got, _ := e.Summarize(context.Background(), text, news.LanguageEnglish, 150)
	if want := textutil.Truncate(text, 150); got != want {
		t.Fatalf("text at the cutoff should only be truncated, got %q", got)
	}

	th.ShortTextSentences = 1
	th.MinSentenceTokens = 4
	e = NewExtractiveSummary(th)
	three := "One sentence here. Another sentence here. A third sentence here."
	got, _ = e.Summarize(context.Background(), three, news.LanguageEnglish, 50)
	if got != "A third sentence here." {
		t.Fatalf("three sentences above the cutoff should be extracted, got %q", got)
	}
}

func TestGenerativeSummaryTruncates(t *testing.T) {
	model := &fakeModel{reply: strings.Repeat("a", 50)}
	g := NewGenerativeSummary("gemini", model)

	got, err := g.Summarize(context.Background(), "text", news.LanguageEnglish, 20)
	if err != nil {
		t.Fatal(err)
	}
	if got != strings.Repeat("a", 17)+"..." {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(model.prompts[0], "News content:") {
		t.Fatalf("expected English prompt, got %q", model.prompts[0])
	}
}

func TestGenerativeSummaryChinesePrompt(t *testing.T) {
	model := &fakeModel{reply: "摘要"}
	g := NewGenerativeSummary("gemini", model)
	if _, err := g.Summarize(context.Background(), "內容", news.Language("zh-Hant"), 300); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(model.prompts[0], "繁體中文") {
		t.Fatalf("expected Chinese prompt, got %q", model.prompts[0])
	}
}

func TestGeneratorFallsBackOnError(t *testing.T) {
	g := NewSummaryGenerator(DefaultThresholds(), NewGenerativeSummary("gemini", &fakeModel{err: errBackend}))
	text := "Short English text."
	if got := g.Summarize(context.Background(), text, news.LanguageEnglish, 400); got != text {
		t.Fatalf("got %q", got)
	}
}

func TestGeneratorFallsBackOnBlankOutput(t *testing.T) {
	g := NewSummaryGenerator(DefaultThresholds(), NewGenerativeSummary("gemini", &fakeModel{reply: "  \n "}))
	text := "Short English text."
	if got := g.Summarize(context.Background(), text, news.LanguageEnglish, 400); got != text {
		t.Fatalf("got %q", got)
	}
}

func TestGeneratorUsesGenerativeResult(t *testing.T) {
	g := NewSummaryGenerator(DefaultThresholds(), NewGenerativeSummary("gemini", &fakeModel{reply: "Model summary."}))
	if got := g.Summarize(context.Background(), "Source text.", news.LanguageEnglish, 400); got != "Model summary." {
		t.Fatalf("got %q", got)
	}
}

func TestGeneratorChineseRecheck(t *testing.T) {
	model := &fakeModel{reply: "This summary came back in English instead."}
	g := NewSummaryGenerator(DefaultThresholds(), NewGenerativeSummary("gemini", model))

	text := "台積電今日宣布在高雄興建新廠，預計投資金額超過新台幣三千億元。"
	got := g.Summarize(context.Background(), text, news.LanguageChinese, 300)
	if got != text {
		t.Fatalf("expected extractive output, got %q", got)
	}
	if float64(textutil.CountCJK(got)) < 0.3*float64(textutil.RuneLen(got)) {
		t.Fatalf("summary fails CJK ratio: %q", got)
	}
}

func TestGeneratorChineseAcceptsConformingSummary(t *testing.T) {
	model := &fakeModel{reply: "台積電在高雄設新廠，投資 3000 億元。"}
	g := NewSummaryGenerator(DefaultThresholds(), NewGenerativeSummary("gemini", model))

	got := g.Summarize(context.Background(), "原始內容。", news.LanguageChinese, 300)
	if got != model.reply {
		t.Fatalf("got %q", got)
	}
}

func TestGeneratorLengthBound(t *testing.T) {
	g := NewSummaryGenerator(DefaultThresholds())
	text := strings.Repeat("這是一個很長的句子，用來測試長度限制。", 40)
	got := g.Summarize(context.Background(), text, news.LanguageChinese, 300)
	if n := textutil.RuneLen(got); n > 300 {
		t.Fatalf("length %d exceeds cap", n)
	}
}
