package ratelimit

import (
	"context"

	"github.com/deusflow/newsbot/internal/news"
)

type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type entityAnalyzer interface {
	AnalyzeEntities(ctx context.Context, text, lang string) ([]news.ScoredEntity, error)
}

type languageDetector interface {
	DetectLanguage(ctx context.Context, text string) (string, error)
}

// Model charges every Generate call against a provider budget.
type Model struct {
	next     generator
	limiter  *AIRateLimiter
	provider string
}

func (rl *AIRateLimiter) WrapModel(provider string, m generator) *Model {
	return &Model{next: m, limiter: rl, provider: provider}
}

func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	if err := m.limiter.Wait(ctx, m.provider); err != nil {
		return "", err
	}
	return m.next.Generate(ctx, prompt)
}

// NLService is the classical NL client with both calls charged to one budget.
type NLService interface {
	entityAnalyzer
	languageDetector
}

type Analyzer struct {
	next     NLService
	limiter  *AIRateLimiter
	provider string
}

func (rl *AIRateLimiter) WrapAnalyzer(provider string, a NLService) *Analyzer {
	return &Analyzer{next: a, limiter: rl, provider: provider}
}

func (a *Analyzer) AnalyzeEntities(ctx context.Context, text, lang string) ([]news.ScoredEntity, error) {
	if err := a.limiter.Wait(ctx, a.provider); err != nil {
		return nil, err
	}
	return a.next.AnalyzeEntities(ctx, text, lang)
}

func (a *Analyzer) DetectLanguage(ctx context.Context, text string) (string, error) {
	if err := a.limiter.Wait(ctx, a.provider); err != nil {
		return "", err
	}
	return a.next.DetectLanguage(ctx, text)
}
