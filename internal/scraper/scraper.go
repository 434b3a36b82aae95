package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/deusflow/newsbot/internal/textutil"
)

// Scraper fills in article text for feed entries that ship without a summary.
type Scraper struct {
	client    *http.Client
	userAgent string
	maxChars  int
}

func New(timeout time.Duration) *Scraper {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Scraper{
		client:    &http.Client{Timeout: timeout},
		userAgent: "newsbot/1.0 (+https://github.com/deusflow/newsbot)",
		maxChars:  1600,
	}
}

// LeadParagraphs downloads url and returns its opening paragraphs joined by
// blank lines, capped at roughly maxChars runes on a paragraph boundary.
func (s *Scraper) LeadParagraphs(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error parsing HTML: %w", err)
	}

	paragraphs := extractParagraphs(doc, selectorsFor(url))
	if len(paragraphs) == 0 {
		return "", fmt.Errorf("no article text found at %s", url)
	}
	return s.limit(paragraphs), nil
}

// selectorsFor picks content selectors for the configured news sites.
func selectorsFor(url string) []string {
	switch {
	case strings.Contains(url, "techcrunch.com"):
		return []string{".wp-block-post-content p", ".article-content p", "article p"}
	case strings.Contains(url, "bnext.com.tw"):
		return []string{".htmlview p", ".article-content p", "article p"}
	case strings.Contains(url, "money.udn.com"):
		return []string{"#article_body p", ".article-body__editor p", "article p"}
	case strings.Contains(url, "fortune.com"):
		return []string{"#article-content p", ".article-content p", "article p"}
	default:
		return []string{
			"article p",
			".article p",
			".content p",
			".post-content p",
			".entry-content p",
			"main p",
			"p",
		}
	}
}

func extractParagraphs(doc *goquery.Document, selectors []string) []string {
	var paragraphs []string
	for _, selector := range selectors {
		doc.Find(selector).Each(func(i int, sel *goquery.Selection) {
			text := textutil.Clean(sel.Text())
			if textutil.RuneLen(text) > 20 && !isJunk(text) {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) > 0 {
			break
		}
	}
	return paragraphs
}

var junkIndicators = []string{
	"cookie", "subscribe", "newsletter", "sign up", "advertisement",
	"訂閱", "廣告", "延伸閱讀", "看更多",
}

func isJunk(text string) bool {
	lower := strings.ToLower(text)
	for _, indicator := range junkIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// limit keeps whole paragraphs while the total stays under maxChars.
func (s *Scraper) limit(paragraphs []string) string {
	var selected []string
	total := 0
	for _, p := range paragraphs {
		n := textutil.RuneLen(p)
		if total+n > s.maxChars && len(selected) > 0 {
			break
		}
		selected = append(selected, p)
		total += n + 2
	}
	return strings.Join(selected, "\n\n")
}
