package summarizer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/deusflow/newsbot/internal/logger"
	"github.com/deusflow/newsbot/internal/metrics"
	"github.com/deusflow/newsbot/internal/news"
	"github.com/deusflow/newsbot/internal/textutil"
)

// GenerativeSummary asks a TextModel for a summary.
type GenerativeSummary struct {
	model    TextModel
	provider string
}

func NewGenerativeSummary(provider string, model TextModel) *GenerativeSummary {
	return &GenerativeSummary{model: model, provider: provider}
}

func (g *GenerativeSummary) Name() string { return g.provider }

func (g *GenerativeSummary) Summarize(ctx context.Context, text string, lang news.Language, maxLen int) (string, error) {
	out, err := g.model.Generate(ctx, summaryPrompt(text, lang, maxLen))
	if err != nil {
		return "", fmt.Errorf("%s summary: %w", g.provider, err)
	}

	out = SanitizeModelText(out)
	if out == "" {
		return "", fmt.Errorf("%s summary: %w", g.provider, ErrNoResult)
	}
	return textutil.Truncate(out, maxLen), nil
}

// ExtractiveSummary picks the highest scoring sentences by token frequency.
// It never fails.
type ExtractiveSummary struct {
	th Thresholds
}

func NewExtractiveSummary(th Thresholds) *ExtractiveSummary {
	return &ExtractiveSummary{th: th}
}

func (e *ExtractiveSummary) Name() string { return "extractive" }

func (e *ExtractiveSummary) Summarize(_ context.Context, text string, _ news.Language, maxLen int) (string, error) {
	return e.summarize(text, maxLen), nil
}

type scoredSentence struct {
	index int
	score float64
}

func (e *ExtractiveSummary) summarize(text string, maxLen int) string {
	sentences := splitSentences(text)
	if len(sentences) <= e.th.ShortTextSentences || textutil.RuneLen(text) <= maxLen {
		return textutil.Truncate(text, maxLen)
	}

	tokenized := make([][]string, len(sentences))
	freq := make(map[string]int)
	maxFreq := 0
	for i, s := range sentences {
		tokenized[i] = tokenize(s)
		for _, tok := range tokenized[i] {
			key := strings.ToLower(tok)
			freq[key]++
			if freq[key] > maxFreq {
				maxFreq = freq[key]
			}
		}
	}
	if maxFreq == 0 {
		maxFreq = 1
	}

	scored := make([]scoredSentence, 0, len(sentences))
	for i, tokens := range tokenized {
		if len(tokens) < e.th.MinSentenceTokens {
			continue
		}
		score := 0.0
		for _, tok := range tokens {
			score += float64(freq[strings.ToLower(tok)]) / float64(maxFreq)
		}
		weight := e.th.TailWeight
		if i < e.th.LeadSentences {
			weight = e.th.LeadWeight
		}
		scored = append(scored, scoredSentence{index: i, score: score * weight})
	}

	if len(scored) == 0 {
		return textutil.Truncate(text, maxLen)
	}

	sort.SliceStable(scored, func(a, b int) bool { return scored[a].score > scored[b].score })
	if len(scored) > e.th.SummarySentences {
		scored = scored[:e.th.SummarySentences]
	}
	sort.Slice(scored, func(a, b int) bool { return scored[a].index < scored[b].index })

	picked := make([]string, len(scored))
	for i, s := range scored {
		picked[i] = sentences[s.index]
	}
	return textutil.Truncate(strings.Join(picked, " "), maxLen)
}

func isTerminal(r rune) bool {
	switch r {
	case '。', '.', '!', '?', '！', '？':
		return true
	}
	return false
}

// splitSentences cuts after every terminal mark and swallows the whitespace
// that follows it. Empty fragments are dropped.
func splitSentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		out = append(out, string(runes[start:i+1]))
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	if start < len(runes) {
		if rest := string(runes[start:]); strings.TrimSpace(rest) != "" {
			out = append(out, rest)
		}
	}
	return out
}

// tokenize splits on whitespace when the sentence has spaces, otherwise
// into single runes.
func tokenize(sentence string) []string {
	if strings.Contains(sentence, " ") {
		return strings.Fields(sentence)
	}
	tokens := make([]string, 0, len(sentence))
	for _, r := range sentence {
		tokens = append(tokens, string(r))
	}
	return tokens
}

// SummaryGenerator runs summary strategies in order and falls back to the
// extractive summary, which also serves the Chinese language check.
type SummaryGenerator struct {
	strategies []SummaryStrategy
	extractive *ExtractiveSummary
	th         Thresholds
}

func NewSummaryGenerator(th Thresholds, primary ...SummaryStrategy) *SummaryGenerator {
	extractive := NewExtractiveSummary(th)
	strategies := make([]SummaryStrategy, 0, len(primary)+1)
	for _, s := range primary {
		if s != nil {
			strategies = append(strategies, s)
		}
	}
	strategies = append(strategies, extractive)
	return &SummaryGenerator{strategies: strategies, extractive: extractive, th: th}
}

// Summarize never fails; the result is at most maxLen runes.
func (g *SummaryGenerator) Summarize(ctx context.Context, text string, lang news.Language, maxLen int) string {
	summary, used := "", ""
	for _, s := range g.strategies {
		out, err := s.Summarize(ctx, text, lang, maxLen)
		if err != nil {
			logger.Warn("summary strategy failed", "strategy", s.Name(), "error", err)
			continue
		}
		summary, used = out, s.Name()
		break
	}

	if lang.IsChinese() && !g.conforms(summary) {
		logger.Info("summary not Chinese enough, re-running extractive", "strategy", used)
		metrics.Global.IncrementLanguageRechecks()
		summary = g.extractive.summarize(text, maxLen)
		used = g.extractive.Name()
	}

	if used == g.extractive.Name() {
		metrics.Global.IncrementExtractiveSummaries()
	} else {
		metrics.Global.IncrementGenerativeSummaries()
	}

	return textutil.Truncate(summary, maxLen)
}

func (g *SummaryGenerator) conforms(summary string) bool {
	return float64(textutil.CountCJK(summary)) >= float64(textutil.RuneLen(summary))*g.th.MinCJKRatio
}
