package summarizer

import (
	"context"
	"errors"

	"github.com/deusflow/newsbot/internal/news"
)

type fakeModel struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeModel) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

type fakeAnalyzer struct {
	entities []news.ScoredEntity
	err      error
	calls    int
	lang     string
}

func (f *fakeAnalyzer) AnalyzeEntities(_ context.Context, _ string, lang string) ([]news.ScoredEntity, error) {
	f.calls++
	f.lang = lang
	return f.entities, f.err
}

type fixedDetector struct {
	lang  news.Language
	panic bool
}

func (d fixedDetector) Detect(context.Context, string, string) news.Language {
	if d.panic {
		panic("detector exploded")
	}
	return d.lang
}

var errBackend = errors.New("backend unavailable")
