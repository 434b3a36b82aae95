package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"google.golang.org/api/option"

	"github.com/deusflow/newsbot/internal/api"
	"github.com/deusflow/newsbot/internal/app"
	"github.com/deusflow/newsbot/internal/config"
	"github.com/deusflow/newsbot/internal/gemini"
	"github.com/deusflow/newsbot/internal/langdetect"
	"github.com/deusflow/newsbot/internal/line"
	"github.com/deusflow/newsbot/internal/logger"
	"github.com/deusflow/newsbot/internal/nlapi"
	"github.com/deusflow/newsbot/internal/openai"
	"github.com/deusflow/newsbot/internal/ratelimit"
	"github.com/deusflow/newsbot/internal/retry"
	"github.com/deusflow/newsbot/internal/rss"
	"github.com/deusflow/newsbot/internal/scheduler"
	"github.com/deusflow/newsbot/internal/scraper"
	"github.com/deusflow/newsbot/internal/storage"
	"github.com/deusflow/newsbot/internal/summarizer"
	"github.com/deusflow/newsbot/internal/telegram"
)

const nlProvider = "nlapi"

// bot holds the wired components for one process.
type bot struct {
	cfg      *config.Config
	service  *app.Service
	events   api.EventParser
	limiter  *ratelimit.AIRateLimiter
	store    storage.Store
	times    []scheduler.Clock
	location *time.Location
	closers  []func()
}

func (b *bot) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func build(ctx context.Context, cfg *config.Config) (*bot, error) {
	b := &bot{cfg: cfg}
	if err := b.wire(ctx); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *bot) wire(ctx context.Context) error {
	cfg := b.cfg
	var err error

	if b.location, err = cfg.Location(); err != nil {
		return err
	}
	if b.times, err = scheduler.ParseTimes(cfg.ScheduleTimes); err != nil {
		return err
	}

	feeds, err := rss.LoadFeeds(cfg.FeedsConfigPath)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("feeds file not found, using built-in sources", "path", cfg.FeedsConfigPath)
		feeds, err = rss.DefaultFeeds(), nil
	}
	if err != nil {
		return fmt.Errorf("failed to load feeds: %w", err)
	}

	retryCfg := retry.RetryConfig{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay, Backoff: true}
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	fetcherOpts := []rss.Option{
		rss.WithHTTPClient(httpClient),
		rss.WithRetry(retryCfg),
		rss.WithLocation(b.location),
	}
	if cfg.ScrapeEmptySummary {
		fetcherOpts = append(fetcherOpts, rss.WithEnricher(scraper.New(cfg.RequestTimeout)))
	}
	fetcher := rss.NewFetcher(feeds, fetcherOpts...)

	pipeline, err := b.buildPipeline(ctx)
	if err != nil {
		return err
	}

	if b.store, err = openStore(ctx, cfg); err != nil {
		return err
	}
	b.closers = append(b.closers, func() { _ = b.store.Close() })

	var messenger app.Messenger
	switch cfg.Messenger {
	case "telegram":
		messenger = telegram.NewClient(cfg.TelegramToken, "")
		if err := seedChats(ctx, b.store, cfg.TelegramChatIDs); err != nil {
			return err
		}
	default:
		lc := line.NewClient(cfg.LineChannelAccessToken, cfg.LineChannelSecret,
			line.WithHTTPClient(httpClient), line.WithRetry(retryCfg))
		messenger = lc
		b.events = lc
	}

	opts := app.Options{
		MaxSubscribers:  cfg.MaxSubscribers,
		RecordTTL:       cfg.RecordTTL,
		SkipDuplicates:  cfg.SkipDuplicates,
		SummaryCacheTTL: cfg.SummaryCacheTTL,
		PushTimes:       scheduler.Labels(b.times),
	}
	b.service = app.New(fetcher, pipeline, b.store, messenger, feeds, opts)
	b.closers = append(b.closers, b.service.Close)

	logger.Info("bot ready",
		"messenger", messenger.Name(),
		"generative_provider", cfg.GenerativeProvider,
		"nl_api", cfg.NLAPIEnabled,
		"storage", cfg.StorageDriver,
	)
	return nil
}

func (b *bot) buildPipeline(ctx context.Context) (*summarizer.Pipeline, error) {
	cfg := b.cfg
	th := summarizer.DefaultThresholds()
	th.MinCJKRatio = cfg.SummaryMinCJKRatio
	th.MinSalience = cfg.EntityMinSalience

	b.limiter = ratelimit.NewAIRateLimiter(map[string]int{
		cfg.GenerativeProvider: cfg.MaxGenerativeRequests,
		nlProvider:             cfg.MaxNLRequests,
	}, 0)
	b.limiter.SetInterval(cfg.GenerativeProvider, cfg.AIMinInterval)

	var model summarizer.TextModel
	switch cfg.GenerativeProvider {
	case "gemini":
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, client.Close)
		model = b.limiter.WrapModel(client.Name(), client)
	case "openai":
		client := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
		model = b.limiter.WrapModel(client.Name(), client)
	}

	var (
		langService langdetect.Service
		analyzer    summarizer.EntityAnalyzer
	)
	if cfg.NLAPIEnabled {
		var opts []option.ClientOption
		if cfg.NLAPIKey != "" {
			opts = append(opts, option.WithAPIKey(cfg.NLAPIKey))
		}
		client, err := nlapi.NewClient(ctx, opts...)
		if err != nil {
			logger.Warn("Natural Language API unavailable, using local fallbacks", "error", err)
		} else {
			wrapped := b.limiter.WrapAnalyzer(nlProvider, client)
			langService, analyzer = wrapped, wrapped
		}
	}

	var (
		summaries []summarizer.SummaryStrategy
		entities  []summarizer.EntityStrategy
	)
	if model != nil {
		summaries = append(summaries, summarizer.NewGenerativeSummary(cfg.GenerativeProvider, model))
		entities = append(entities, summarizer.NewGenerativeEntities(cfg.GenerativeProvider, model, th))
	}
	if analyzer != nil {
		entities = append(entities, summarizer.NewClassicalEntities(analyzer, th))
	}

	return summarizer.NewPipeline(
		langdetect.New(langService, th.NonASCIIRatio),
		summarizer.NewSummaryGenerator(th, summaries...),
		summarizer.NewEntityExtractor(entities...),
		th,
	), nil
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.StorageDriver == "postgres" {
		store, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := storage.NewFileStore(cfg.StoreFilePath)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// seedChats registers the configured Telegram chats as subscribers.
func seedChats(ctx context.Context, store storage.Store, chatIDs []string) error {
	for _, id := range chatIDs {
		_, err := store.GetSubscriber(ctx, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if err := store.AddSubscriber(ctx, id, time.Now()); err != nil {
			return fmt.Errorf("failed to add chat %s: %w", id, err)
		}
	}
	return nil
}

// runScheduled sends every scheduled category and then purges old records.
func (b *bot) runScheduled(ctx context.Context, at time.Time) {
	logger.Info("scheduled run", "at", at.Format("15:04"))
	for _, category := range b.cfg.ScheduleCategories {
		outcome, err := b.service.SendNews(ctx, category)
		if err != nil {
			logger.Error("scheduled send failed", "category", category, "error", err)
			continue
		}
		logger.Info("scheduled send finished", "category", category, "outcome", outcome.String())
	}
	if _, err := b.service.Cleanup(ctx); err != nil {
		logger.Error("scheduled cleanup failed", "error", err)
	}
}
