// Package langdetect decides whether an article is Chinese or not.
package langdetect

import (
	"context"
	"strings"

	"golang.org/x/text/language"

	"github.com/deusflow/newsbot/internal/logger"
	"github.com/deusflow/newsbot/internal/news"
	"github.com/deusflow/newsbot/internal/textutil"
)

// DefaultNonASCIIRatio is the share of non-ASCII runes above which text
// without ideographs is still treated as Chinese.
const DefaultNonASCIIRatio = 0.1

// Service is an external language identification backend.
type Service interface {
	DetectLanguage(ctx context.Context, text string) (string, error)
}

type Detector struct {
	service       Service
	nonASCIIRatio float64
}

// New returns a detector. service may be nil, in which case only the local
// heuristics run.
func New(service Service, nonASCIIRatio float64) *Detector {
	if nonASCIIRatio <= 0 {
		nonASCIIRatio = DefaultNonASCIIRatio
	}
	return &Detector{service: service, nonASCIIRatio: nonASCIIRatio}
}

// Detect classifies an article from its title and raw summary. Ideographs
// anywhere in either, markup included, decide immediately; otherwise the
// cleaned summary (or the title when it is empty) goes to the service and
// the heuristic.
func (d *Detector) Detect(ctx context.Context, title, raw string) news.Language {
	if textutil.ContainsCJK(title) || textutil.ContainsCJK(raw) {
		return news.LanguageChinese
	}

	text := textutil.Clean(raw)
	if text == "" {
		text = strings.TrimSpace(title)
	}

	if d.service != nil {
		code, err := d.service.DetectLanguage(ctx, text)
		if err == nil && strings.TrimSpace(code) != "" {
			return Normalize(code)
		}
		logger.Warn("language service failed, using heuristic", "error", err)
	}

	if textutil.NonASCIIRatio(text) > d.nonASCIIRatio {
		return news.LanguageChinese
	}
	return news.LanguageEnglish
}

// Normalize canonicalises a BCP 47 code. Unparseable codes are kept lowercased.
func Normalize(code string) news.Language {
	code = strings.TrimSpace(code)
	tag, err := language.Parse(code)
	if err != nil {
		return news.Language(strings.ToLower(code))
	}
	return news.Language(tag.String())
}
