// Package app ties feeds, the summarizer, storage and the messenger together.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/deusflow/newsbot/internal/cache"
	"github.com/deusflow/newsbot/internal/logger"
	"github.com/deusflow/newsbot/internal/metrics"
	"github.com/deusflow/newsbot/internal/news"
	"github.com/deusflow/newsbot/internal/rss"
	"github.com/deusflow/newsbot/internal/storage"
)

// Fetcher supplies candidate articles for a category.
type Fetcher interface {
	Fetch(ctx context.Context, category string) ([]news.Article, error)
	Complete(ctx context.Context, article news.Article) news.Article
}

// Summarizer turns an article into a digest entry. false means skip it.
type Summarizer interface {
	Summarize(ctx context.Context, article news.Article) (news.SummaryResult, bool)
}

// Messenger delivers one text to a list of recipients.
type Messenger interface {
	Name() string
	Push(ctx context.Context, to []string, text string) error
}

// Replier answers a webhook event. Only LINE supports it.
type Replier interface {
	Reply(ctx context.Context, replyToken, text string) error
}

// Labeler maps a category to its display label.
type Labeler interface {
	Label(category string) string
}

// SendOutcome is the result of one SendNews call.
type SendOutcome int

const (
	OutcomeSent SendOutcome = iota
	OutcomeNoNews
	OutcomeNoSubscribers
	OutcomeFailed
)

func (o SendOutcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeNoNews:
		return "no news"
	case OutcomeNoSubscribers:
		return "no subscribers"
	default:
		return "failed"
	}
}

// HTTPStatus is the status code the trigger endpoints answer with.
func (o SendOutcome) HTTPStatus() int {
	switch o {
	case OutcomeSent:
		return http.StatusOK
	case OutcomeNoNews:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type Options struct {
	MaxSubscribers  int
	RecordTTL       time.Duration
	SkipDuplicates  bool
	SummaryCacheTTL time.Duration
	// PushTimes are shown to users in the welcome, help and status replies.
	PushTimes []string
}

func DefaultOptions() Options {
	return Options{
		MaxSubscribers:  5,
		RecordTTL:       24 * time.Hour,
		SkipDuplicates:  true,
		SummaryCacheTTL: 6 * time.Hour,
		PushTimes:       []string{"8:30", "13:00"},
	}
}

type Service struct {
	fetcher   Fetcher
	pipeline  Summarizer
	store     storage.Store
	messenger Messenger
	replier   Replier
	labels    Labeler
	summaries *cache.Cache[news.SummaryResult]
	opts      Options
	now       func() time.Time
}

// New builds the service. The messenger doubles as the webhook replier when
// it implements Replier.
func New(fetcher Fetcher, pipeline Summarizer, store storage.Store, messenger Messenger, labels Labeler, opts Options) *Service {
	def := DefaultOptions()
	if opts.MaxSubscribers <= 0 {
		opts.MaxSubscribers = def.MaxSubscribers
	}
	if opts.RecordTTL <= 0 {
		opts.RecordTTL = def.RecordTTL
	}
	if len(opts.PushTimes) == 0 {
		opts.PushTimes = def.PushTimes
	}

	s := &Service{
		fetcher:   fetcher,
		pipeline:  pipeline,
		store:     store,
		messenger: messenger,
		labels:    labels,
		opts:      opts,
		now:       time.Now,
	}
	if r, ok := messenger.(Replier); ok {
		s.replier = r
	}
	if opts.SummaryCacheTTL > 0 {
		s.summaries = cache.New[news.SummaryResult](opts.SummaryCacheTTL)
	}
	return s
}

// Close stops the summary cache sweeper. The store is owned by the caller.
func (s *Service) Close() {
	if s.summaries != nil {
		s.summaries.Stop()
	}
}

// SendNews delivers the newest unsent article of category to the active
// subscribers and records it.
func (s *Service) SendNews(ctx context.Context, category string) (SendOutcome, error) {
	log := logger.With("category", category)

	articles, err := s.fetcher.Fetch(ctx, category)
	if err != nil {
		if errors.Is(err, rss.ErrUnknownCategory) {
			return OutcomeFailed, err
		}
		log.Warn("no feed could be read", "error", err)
		metrics.Global.SetError(err.Error())
		return OutcomeNoNews, nil
	}

	result, found := s.pick(ctx, articles)
	if !found {
		log.Warn("no news found")
		return OutcomeNoNews, nil
	}

	subscribers, err := s.store.ActiveSubscribers(ctx, s.opts.MaxSubscribers)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("load subscribers: %w", err)
	}
	if len(subscribers) == 0 {
		log.Warn("no subscribers found")
		return OutcomeNoSubscribers, nil
	}
	to := make([]string, len(subscribers))
	for i, sub := range subscribers {
		to[i] = sub.UserID
	}

	text := FormatMessage(s.labels.Label(category), result)
	log.Info("sending news", "messenger", s.messenger.Name(), "recipients", len(to), "title", result.Title)
	if err := s.messenger.Push(ctx, to, text); err != nil {
		metrics.Global.IncrementDeliveryFailures()
		metrics.Global.SetError(err.Error())
		return OutcomeFailed, fmt.Errorf("deliver via %s: %w", s.messenger.Name(), err)
	}
	metrics.Global.AddMessagesDelivered(len(to))
	metrics.Global.SetLastRun()

	rec := storage.NewRecord(result.Title, result.Link, category, s.now(), s.opts.RecordTTL)
	if err := s.store.SaveNewsRecord(ctx, rec); err != nil {
		log.Error("error saving news record", "error", err)
	} else {
		log.Info("news record saved", "id", rec.ID, "title", result.Title)
	}
	return OutcomeSent, nil
}

// pick summarizes the first candidate that was not already sent and has a title.
func (s *Service) pick(ctx context.Context, articles []news.Article) (news.SummaryResult, bool) {
	for _, article := range articles {
		if s.opts.SkipDuplicates && article.Link != "" {
			sent, err := s.store.IsLinkSent(ctx, article.Link, s.now())
			if err != nil {
				logger.Warn("duplicate check failed", "link", article.Link, "error", err)
			} else if sent {
				metrics.Global.IncrementDuplicatesFiltered()
				logger.Debug("skipping already sent article", "link", article.Link)
				continue
			}
		}

		if result, ok := s.cached(article.Link); ok {
			return result, true
		}

		article = s.fetcher.Complete(ctx, article)
		result, ok := s.pipeline.Summarize(ctx, article)
		if !ok {
			continue
		}
		if !result.Degraded && ctx.Err() == nil {
			s.remember(article.Link, result)
		}
		return result, true
	}
	return news.SummaryResult{}, false
}

func (s *Service) cached(link string) (news.SummaryResult, bool) {
	if s.summaries == nil || strings.TrimSpace(link) == "" {
		return news.SummaryResult{}, false
	}
	return s.summaries.Get(cache.Key(link))
}

func (s *Service) remember(link string, result news.SummaryResult) {
	if s.summaries == nil || strings.TrimSpace(link) == "" {
		return
	}
	s.summaries.Set(cache.Key(link), result, s.opts.SummaryCacheTTL)
}

// Cleanup deletes expired news records.
func (s *Service) Cleanup(ctx context.Context) (int, error) {
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		metrics.Global.SetError(err.Error())
		return 0, fmt.Errorf("cleanup: %w", err)
	}
	metrics.Global.AddExpiredRecordsPurged(n)
	logger.Info("cleaned up expired news records", "count", n)
	return n, nil
}
