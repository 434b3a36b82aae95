// Package summarizer turns a feed article into a bounded summary plus a
// categorised entity map. Every stage has an ordered list of strategies: a
// generative model first, a classical heuristic last. The pipeline always
// returns a well-formed result for an article with a title.
package summarizer

import (
	"context"
	"errors"

	"github.com/deusflow/newsbot/internal/news"
)

// ErrNoResult is returned by a strategy that ran but produced nothing usable.
var ErrNoResult = errors.New("strategy produced no result")

// TextModel is a generative text backend.
type TextModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// EntityAnalyzer is a classical entity service reporting salience scores.
type EntityAnalyzer interface {
	AnalyzeEntities(ctx context.Context, text, lang string) ([]news.ScoredEntity, error)
}

// SummaryStrategy produces a summary no longer than maxLen runes.
type SummaryStrategy interface {
	Name() string
	Summarize(ctx context.Context, text string, lang news.Language, maxLen int) (string, error)
}

// EntityStrategy produces a categorised entity map.
type EntityStrategy interface {
	Name() string
	Extract(ctx context.Context, text string, lang news.Language) (news.EntityMap, error)
}

// Thresholds holds the heuristic constants used across the pipeline.
type Thresholds struct {
	ChineseMaxLength int
	DefaultMaxLength int
	DegradedLength   int

	// Summary language check: minimum share of ideographs in a Chinese summary.
	MinCJKRatio float64

	// Texts with at most ShortTextSentences sentences are only truncated.
	ShortTextSentences int
	SummarySentences   int
	MinSentenceTokens  int
	LeadSentences      int
	LeadWeight         float64
	TailWeight         float64

	MinSalience         float64
	MaxPerCategory      int
	MaxChinesePersonLen int
	MaxPersonLen        int
	MaxDottedNameLen    int

	NonASCIIRatio float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		ChineseMaxLength: 300,
		DefaultMaxLength: 400,
		DegradedLength:   200,

		MinCJKRatio: 0.3,

		ShortTextSentences: 3,
		SummarySentences:   4,
		MinSentenceTokens:  3,
		LeadSentences:      3,
		LeadWeight:         1.0,
		TailWeight:         0.8,

		MinSalience:         0.05,
		MaxPerCategory:      3,
		MaxChinesePersonLen: 8,
		MaxPersonLen:        20,
		MaxDottedNameLen:    15,

		NonASCIIRatio: 0.1,
	}
}

// MaxLength returns the summary cap for lang.
func (t Thresholds) MaxLength(lang news.Language) int {
	if lang.IsChinese() {
		return t.ChineseMaxLength
	}
	return t.DefaultMaxLength
}
