// Package nlapi wraps the Cloud Natural Language REST API for language
// detection and salience-scored entity analysis.
package nlapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/language/v1"
	"google.golang.org/api/option"

	"github.com/deusflow/newsbot/internal/news"
)

type Client struct {
	svc *language.Service
}

func NewClient(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	svc, err := language.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create language service: %w", err)
	}
	return &Client{svc: svc}, nil
}

func (c *Client) Name() string { return "nlapi" }

func document(text, lang string) *language.Document {
	doc := &language.Document{
		Content: text,
		Type:    "PLAIN_TEXT",
	}
	if lang != "" {
		doc.Language = lang
	}
	return doc
}

// DetectLanguage returns the language code the service infers for text.
// The sentiment endpoint is the cheapest call that reports it.
func (c *Client) DetectLanguage(ctx context.Context, text string) (string, error) {
	resp, err := c.svc.Documents.AnalyzeSentiment(&language.AnalyzeSentimentRequest{
		Document:     document(text, ""),
		EncodingType: "UTF8",
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("analyze sentiment: %w", err)
	}
	code := strings.TrimSpace(resp.Language)
	if code == "" {
		return "", errors.New("language not reported")
	}
	return code, nil
}

// AnalyzeEntities returns every entity reported for text, in service order.
func (c *Client) AnalyzeEntities(ctx context.Context, text, lang string) ([]news.ScoredEntity, error) {
	resp, err := c.svc.Documents.AnalyzeEntities(&language.AnalyzeEntitiesRequest{
		Document:     document(text, lang),
		EncodingType: "UTF8",
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("analyze entities: %w", err)
	}

	out := make([]news.ScoredEntity, 0, len(resp.Entities))
	for _, e := range resp.Entities {
		if e == nil {
			continue
		}
		out = append(out, news.ScoredEntity{Name: e.Name, Type: e.Type, Salience: e.Salience})
	}
	return out, nil
}
