package summarizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deusflow/newsbot/internal/logger"
	"github.com/deusflow/newsbot/internal/metrics"
	"github.com/deusflow/newsbot/internal/news"
	"github.com/deusflow/newsbot/internal/textutil"
)

const (
	defaultTitle = "無標題"
	defaultLink  = "#"
)

// LanguageDetector classifies an article from its title and raw summary.
type LanguageDetector interface {
	Detect(ctx context.Context, title, raw string) news.Language
}

// Pipeline sequences cleaning, language detection, summary and entities.
type Pipeline struct {
	detector  LanguageDetector
	summaries *SummaryGenerator
	entities  *EntityExtractor
	th        Thresholds
}

func NewPipeline(detector LanguageDetector, summaries *SummaryGenerator, entities *EntityExtractor, th Thresholds) *Pipeline {
	return &Pipeline{detector: detector, summaries: summaries, entities: entities, th: th}
}

// Summarize returns false only when the article has no title. Any other
// failure yields a degraded result built from the cleaned text.
func (p *Pipeline) Summarize(ctx context.Context, article news.Article) (result news.SummaryResult, ok bool) {
	title := strings.TrimSpace(article.Title)
	if title == "" {
		logger.Warn("skipping article without title", "link", article.Link)
		return news.SummaryResult{}, false
	}

	start := time.Now()
	metrics.Global.IncrementArticlesProcessed()
	defer func() { metrics.Global.RecordProcessingTime(time.Since(start)) }()

	text := textutil.Clean(article.Summary)
	if text == "" {
		text = title
	}

	var lang news.Language
	defer func() {
		if r := recover(); r != nil {
			logger.Error("summarizer panic, returning degraded result", "panic", r, "title", title)
			result, ok = p.degraded(article, text, lang), true
		}
	}()

	result, err := p.run(ctx, article, text, &lang)
	if err != nil {
		logger.Error("summarizer failed, returning degraded result", "error", err, "title", title)
		return p.degraded(article, text, lang), true
	}
	return result, true
}

func (p *Pipeline) run(ctx context.Context, article news.Article, text string, lang *news.Language) (news.SummaryResult, error) {
	*lang = p.detector.Detect(ctx, article.Title, article.Summary)
	if err := ctx.Err(); err != nil {
		return news.SummaryResult{}, fmt.Errorf("detect language: %w", err)
	}
	maxLen := p.th.MaxLength(*lang)

	summary := p.summaries.Summarize(ctx, text, *lang, maxLen)
	if err := ctx.Err(); err != nil {
		return news.SummaryResult{}, fmt.Errorf("summarize: %w", err)
	}

	entities := p.entities.Extract(ctx, text, *lang)
	if err := ctx.Err(); err != nil {
		return news.SummaryResult{}, fmt.Errorf("extract entities: %w", err)
	}
	if entities == nil {
		entities = news.EntityMap{}
	}

	logger.Debug("summary ready", "language", *lang, "summary_len", textutil.RuneLen(summary), "categories", len(entities))

	return news.SummaryResult{
		Title:    orDefault(strings.TrimSpace(article.Title), defaultTitle),
		Summary:  summary,
		Entities: entities,
		Language: *lang,
		Link:     orDefault(strings.TrimSpace(article.Link), defaultLink),
	}, nil
}

func (p *Pipeline) degraded(article news.Article, text string, lang news.Language) news.SummaryResult {
	metrics.Global.IncrementDegradedResults()
	if lang == "" {
		lang = news.LanguageChinese
	}
	return news.SummaryResult{
		Title:    orDefault(strings.TrimSpace(article.Title), defaultTitle),
		Summary:  textutil.Head(text, p.th.DegradedLength),
		Entities: news.EntityMap{},
		Language: lang,
		Link:     orDefault(strings.TrimSpace(article.Link), defaultLink),
		Degraded: true,
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
