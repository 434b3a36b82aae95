package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/jessevdk/go-flags"

	"github.com/deusflow/newsbot/internal/api"
	"github.com/deusflow/newsbot/internal/app"
	"github.com/deusflow/newsbot/internal/config"
	"github.com/deusflow/newsbot/internal/logger"
	"github.com/deusflow/newsbot/internal/scheduler"
)

type options struct {
	EnvFile string `long:"env-file" default:".env" description:"Optional dotenv file loaded before the environment"`
}

type serveCommand struct {
	NoSchedule bool `long:"no-schedule" description:"Do not run the in-process daily scheduler"`
	opts       *options
}

type sendCommand struct {
	Args struct {
		Category string `positional-arg-name:"category" description:"tech or business"`
	} `positional-args:"yes" required:"yes"`
	opts *options
}

type cleanupCommand struct {
	opts *options
}

type storeCommand struct {
	opts *options
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.AddCommand("serve", "Run the HTTP server", "Serve the LINE webhook, trigger endpoints and the daily schedule.", &serveCommand{opts: &opts})
	parser.AddCommand("send", "Send one digest now", "Fetch, summarize and deliver the newest article of a category.", &sendCommand{opts: &opts})
	parser.AddCommand("store", "Check storage", "Connect to the configured store and print subscriber and history counts.", &storeCommand{opts: &opts})
	parser.AddCommand("cleanup", "Delete expired news records", "Remove send-history records past their expiry.", &cleanupCommand{opts: &opts})

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}
}

func setup(ctx context.Context, opts *options) (*bot, error) {
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	logger.Init()
	return build(ctx, cfg)
}

func (c *serveCommand) Execute([]string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := setup(ctx, c.opts)
	if err != nil {
		return err
	}
	defer b.Close()

	if !c.NoSchedule {
		sched := scheduler.New(b.times, b.location, func(ctx context.Context, at time.Time) {
			b.runScheduled(ctx, at)
		})
		sched.Start(ctx)
		defer sched.Stop()
	}

	engine := api.NewServer(api.NewHandler(b.service, b.events, b.limiter), b.cfg.TriggerToken)
	srv := &http.Server{
		Addr:              ":" + b.cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "port", b.cfg.Port, "messenger", b.cfg.Messenger)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (c *sendCommand) Execute([]string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := setup(ctx, c.opts)
	if err != nil {
		return err
	}
	defer b.Close()

	category := strings.ToLower(strings.TrimSpace(c.Args.Category))
	outcome, err := b.service.SendNews(ctx, category)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", category, outcome)
	if outcome != app.OutcomeSent {
		return fmt.Errorf("%s news not sent: %s", category, outcome)
	}
	return nil
}

func (c *cleanupCommand) Execute([]string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := setup(ctx, c.opts)
	if err != nil {
		return err
	}
	defer b.Close()

	n, err := b.service.Cleanup(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Cleaned up %d expired news records\n", n)
	return nil
}

func (c *storeCommand) Execute([]string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := setup(ctx, c.opts)
	if err != nil {
		return err
	}
	defer b.Close()

	total, err := b.store.CountSubscribers(ctx)
	if err != nil {
		return fmt.Errorf("failed to count subscribers: %w", err)
	}
	active, err := b.store.ActiveSubscribers(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to list subscribers: %w", err)
	}

	fmt.Printf("Storage: %s\n", b.cfg.StorageDriver)
	fmt.Printf("Subscribers: %d (%d active, %d receive pushes)\n", total, len(active), min(len(active), b.cfg.MaxSubscribers))
	for _, s := range active {
		fmt.Printf("  %s joined %s\n", s.UserID, s.JoinedAt.In(b.location).Format("2006-01-02 15:04"))
	}
	return nil
}
