package rss

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"github.com/deusflow/newsbot/internal/logger"
	"github.com/deusflow/newsbot/internal/news"
	"github.com/deusflow/newsbot/internal/retry"
)

// ErrUnknownCategory is returned for a category missing from the feeds config.
var ErrUnknownCategory = errors.New("unknown news category")

// Source is a primary feed with a backup.
type Source struct {
	Label   string `yaml:"label"`
	Primary string `yaml:"primary"`
	Backup  string `yaml:"backup"`
}

// FeedsConfig is YAML config structure
//
//	categories:
//	  tech:
//	    label: 科技新聞
//	    primary: https://...
//	    backup: https://...
type FeedsConfig struct {
	Categories map[string]Source `yaml:"categories"`
}

// DefaultFeeds mirrors configs/feeds.yaml.
func DefaultFeeds() FeedsConfig {
	return FeedsConfig{Categories: map[string]Source{
		"tech": {
			Label:   "科技新聞",
			Primary: "https://techcrunch.com/feed/",
			Backup:  "https://www.bnext.com.tw/rss",
		},
		"business": {
			Label:   "商業新聞",
			Primary: "https://money.udn.com/rssfeed/news/1001/5591/5612?ch=money",
			Backup:  "https://fortune.com/feed/",
		},
	}}
}

// LoadFeeds reads the feed sources from a YAML file
func LoadFeeds(path string) (FeedsConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return FeedsConfig{}, err
	}
	defer f.Close()

	var cfg FeedsConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return FeedsConfig{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(cfg.Categories) == 0 {
		return FeedsConfig{}, fmt.Errorf("%s: no categories defined", path)
	}
	for name, src := range cfg.Categories {
		if src.Primary == "" {
			return FeedsConfig{}, fmt.Errorf("%s: category %q has no primary feed", path, name)
		}
	}
	return cfg, nil
}

// Label returns the display label for category, or the name itself.
func (c FeedsConfig) Label(category string) string {
	if src, ok := c.Categories[category]; ok && src.Label != "" {
		return src.Label
	}
	return category
}

// Enricher supplies body text for entries that have none.
type Enricher interface {
	LeadParagraphs(ctx context.Context, url string) (string, error)
}

type Fetcher struct {
	feeds    FeedsConfig
	parser   *gofeed.Parser
	retry    retry.RetryConfig
	enricher Enricher
	location *time.Location
	now      func() time.Time
}

type Option func(*Fetcher)

func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.parser.Client = c }
}

func WithRetry(cfg retry.RetryConfig) Option {
	return func(f *Fetcher) { f.retry = cfg }
}

// WithEnricher fills empty summaries from the article page.
func WithEnricher(e Enricher) Option {
	return func(f *Fetcher) { f.enricher = e }
}

// WithLocation sets the zone used to decide which calendar day "today" is.
func WithLocation(loc *time.Location) Option {
	return func(f *Fetcher) {
		if loc != nil {
			f.location = loc
		}
	}
}

func NewFetcher(feeds FeedsConfig, opts ...Option) *Fetcher {
	f := &Fetcher{
		feeds:    feeds,
		parser:   gofeed.NewParser(),
		retry:    retry.RetryConfig{MaxAttempts: 2, Delay: 2 * time.Second, Backoff: true},
		location: time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the recent entries of category, newest first. The backup
// feed is read only when the primary fails or is empty. An empty slice with
// a nil error means both feeds worked but nothing was recent enough.
func (f *Fetcher) Fetch(ctx context.Context, category string) ([]news.Article, error) {
	src, ok := f.feeds.Categories[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	var errs []error
	for _, candidate := range []struct{ kind, url string }{
		{"primary", src.Primary},
		{"backup", src.Backup},
	} {
		if candidate.url == "" {
			continue
		}
		feed, err := f.parse(ctx, candidate.url)
		if err != nil {
			logger.Warn("feed fetch failed", "category", category, "source", candidate.kind, "url", candidate.url, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", candidate.kind, err))
			continue
		}
		if len(feed.Items) == 0 {
			logger.Warn("feed has no entries", "category", category, "source", candidate.kind)
			continue
		}

		logger.Info("fetched feed", "category", category, "source", candidate.kind, "items", len(feed.Items))
		return f.recent(feed.Items, candidate.kind), nil
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return nil, nil
}

func (f *Fetcher) parse(ctx context.Context, url string) (*gofeed.Feed, error) {
	var feed *gofeed.Feed
	err := retry.WithRetry(ctx, f.retry, func() error {
		parsed, err := f.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			return err
		}
		feed = parsed
		return nil
	})
	return feed, err
}

// recent keeps entries dated today or yesterday. Undated entries count as today.
func (f *Fetcher) recent(items []*gofeed.Item, source string) []news.Article {
	now := f.now().In(f.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, f.location)

	var out []news.Article
	for _, item := range items {
		if item == nil || strings.TrimSpace(item.Title) == "" {
			continue
		}

		published := now
		switch {
		case item.PublishedParsed != nil:
			published = item.PublishedParsed.In(f.location)
		case item.UpdatedParsed != nil:
			published = item.UpdatedParsed.In(f.location)
		}
		day := time.Date(published.Year(), published.Month(), published.Day(), 0, 0, 0, 0, f.location)
		if day.AddDate(0, 0, 1).Before(today) {
			continue
		}

		summary := item.Description
		if strings.TrimSpace(summary) == "" {
			summary = item.Content
		}

		out = append(out, news.Article{
			Title:     strings.TrimSpace(item.Title),
			Summary:   summary,
			Link:      strings.TrimSpace(item.Link),
			Published: published,
			Source:    source,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Published.After(out[j].Published) })
	return out
}

// Complete fills an empty summary from the article page when an enricher is
// configured. Scrape failures leave the article unchanged.
func (f *Fetcher) Complete(ctx context.Context, article news.Article) news.Article {
	if f.enricher == nil || strings.TrimSpace(article.Summary) != "" || article.Link == "" {
		return article
	}
	text, err := f.enricher.LeadParagraphs(ctx, article.Link)
	if err != nil {
		logger.Debug("could not scrape article", "link", article.Link, "error", err)
		return article
	}
	article.Summary = text
	return article
}
