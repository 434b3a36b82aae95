package summarizer

import (
	"context"
	"strings"
	"testing"

	"github.com/deusflow/newsbot/internal/langdetect"
	"github.com/deusflow/newsbot/internal/news"
	"github.com/deusflow/newsbot/internal/textutil"
)

func fallbackPipeline(detector LanguageDetector, analyzer EntityAnalyzer) *Pipeline {
	th := DefaultThresholds()
	var classical EntityStrategy
	if analyzer != nil {
		classical = NewClassicalEntities(analyzer, th)
	}
	return NewPipeline(detector, NewSummaryGenerator(th), NewEntityExtractor(classical), th)
}

func TestPipelineMissingTitle(t *testing.T) {
	p := fallbackPipeline(fixedDetector{lang: news.LanguageEnglish}, nil)
	if _, ok := p.Summarize(context.Background(), news.Article{Summary: "body", Link: "https://x"}); ok {
		t.Fatal("expected no result for missing title")
	}
	if _, ok := p.Summarize(context.Background(), news.Article{Title: "   "}); ok {
		t.Fatal("expected no result for blank title")
	}
}

func TestPipelineChineseTitleOnly(t *testing.T) {
	p := fallbackPipeline(langdetect.New(nil, 0), nil)

	got, ok := p.Summarize(context.Background(), news.Article{Title: "台積電宣布新投資計畫", Link: "https://example.com/a"})
	if !ok {
		t.Fatal("expected a result")
	}
	if got.Language != news.LanguageChinese {
		t.Fatalf("language = %q", got.Language)
	}
	if got.Summary != "台積電宣布新投資計畫" {
		t.Fatalf("summary = %q", got.Summary)
	}
	if got.Entities == nil || len(got.Entities) != 0 {
		t.Fatalf("entities = %v", got.Entities)
	}
	if got.Link != "https://example.com/a" {
		t.Fatalf("link = %q", got.Link)
	}
}

func TestPipelineIdeographsOnlyInMarkup(t *testing.T) {
	p := fallbackPipeline(langdetect.New(nil, 0), nil)

	got, ok := p.Summarize(context.Background(), news.Article{Title: "Photo", Summary: `<img alt="圖片">English caption only`})
	if !ok {
		t.Fatal("expected a result")
	}
	if got.Language != news.LanguageChinese {
		t.Fatalf("language = %q, want zh", got.Language)
	}
}

func TestPipelineCleansMarkupAndCapsLength(t *testing.T) {
	analyzer := &fakeAnalyzer{entities: []news.ScoredEntity{{Name: "Acme", Type: "ORGANIZATION", Salience: 0.3}}}
	p := fallbackPipeline(fixedDetector{lang: news.LanguageEnglish}, analyzer)

	body := "<p>" + strings.Join(englishSentences(10), " ") + "</p> &amp; more"
	got, ok := p.Summarize(context.Background(), news.Article{Title: "Acme ships", Summary: body})
	if !ok {
		t.Fatal("expected result")
	}
	if strings.Contains(got.Summary, "<p>") {
		t.Fatalf("markup leaked: %q", got.Summary)
	}
	if textutil.RuneLen(got.Summary) > 400 {
		t.Fatalf("summary too long: %d", textutil.RuneLen(got.Summary))
	}
	if got.Link != "#" {
		t.Fatalf("link default = %q", got.Link)
	}
	if len(got.Entities[news.CategoryOrganization]) != 1 {
		t.Fatalf("entities = %v", got.Entities)
	}
}

func TestPipelineMarkupOnlySummaryUsesTitle(t *testing.T) {
	p := fallbackPipeline(fixedDetector{lang: news.LanguageEnglish}, nil)
	got, _ := p.Summarize(context.Background(), news.Article{Title: "Headline", Summary: "<img src=x>"})
	if got.Summary != "Headline" {
		t.Fatalf("summary = %q", got.Summary)
	}
	if got.Degraded {
		t.Fatal("healthy result marked degraded")
	}
}

func TestPipelineDegradesOnCancelledContext(t *testing.T) {
	p := fallbackPipeline(fixedDetector{lang: news.LanguageEnglish}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	body := strings.Repeat("word ", 100)
	got, ok := p.Summarize(ctx, news.Article{Title: "T", Summary: body})
	if !ok {
		t.Fatal("degraded result must still be returned")
	}
	want := textutil.Head(textutil.Clean(body), 200)
	if got.Summary != want {
		t.Fatalf("summary = %q, want %q", got.Summary, want)
	}
	if got.Language != news.LanguageEnglish {
		t.Fatalf("language = %q", got.Language)
	}
	if got.Entities == nil || len(got.Entities) != 0 {
		t.Fatalf("entities = %v", got.Entities)
	}
	if !got.Degraded {
		t.Fatal("result should be marked degraded")
	}
}

func TestPipelineRecoversFromPanic(t *testing.T) {
	p := fallbackPipeline(fixedDetector{panic: true}, nil)

	got, ok := p.Summarize(context.Background(), news.Article{Title: "Boom", Summary: "short body"})
	if !ok {
		t.Fatal("expected degraded result")
	}
	if got.Language != news.LanguageChinese {
		t.Fatalf("language default = %q", got.Language)
	}
	if got.Summary != "short body" || got.Title != "Boom" || got.Link != "#" || !got.Degraded {
		t.Fatalf("unexpected degraded result %+v", got)
	}
}

func TestPipelineGenerativeLanguageConsistency(t *testing.T) {
	th := DefaultThresholds()
	model := &fakeModel{reply: "生成的摘要內容。"}
	p := NewPipeline(
		fixedDetector{lang: news.Language("zh-Hant")},
		NewSummaryGenerator(th, NewGenerativeSummary("gemini", model)),
		NewEntityExtractor(NewGenerativeEntities("gemini", model, th)),
		th,
	)

	got, _ := p.Summarize(context.Background(), news.Article{Title: "新聞", Summary: "內容"})
	if got.Language != "zh-Hant" {
		t.Fatalf("language = %q", got.Language)
	}
	for _, prompt := range model.prompts {
		if !strings.Contains(prompt, "新聞內容") {
			t.Fatalf("prompt not in Chinese: %q", prompt)
		}
	}
	if got.Summary != "生成的摘要內容。" {
		t.Fatalf("summary = %q", got.Summary)
	}
}
