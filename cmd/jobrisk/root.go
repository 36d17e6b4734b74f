package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/jobrisk/jobrisk/internal/config"
	"github.com/jobrisk/jobrisk/internal/enrich"
	"github.com/jobrisk/jobrisk/internal/fetch"
	"github.com/jobrisk/jobrisk/internal/lock"
	"github.com/jobrisk/jobrisk/internal/model"
	"github.com/jobrisk/jobrisk/internal/normalize"
	"github.com/jobrisk/jobrisk/internal/notifier"
	"github.com/jobrisk/jobrisk/internal/persist"
	"github.com/jobrisk/jobrisk/internal/pipeline"
	"github.com/jobrisk/jobrisk/internal/ratelimit"
	"github.com/jobrisk/jobrisk/internal/scheduler"
	"github.com/jobrisk/jobrisk/internal/source"
	"github.com/jobrisk/jobrisk/internal/store"
)

const lockPrefix = "jobrisk:lock:"

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobrisk",
	Short: "Job listing ingestion and automation-risk scoring",
	Long:  "jobrisk reads Malagasy job boards, scores each listing's exposure to automation and answers questions over what it stored.",
	// Default to `start` so that `jobrisk` with no args runs the daemon.
	RunE:         runStart,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBRISK_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// resolveConfigPath applies the priority: explicit path > JOBRISK_CONFIG > "./config.yaml".
func resolveConfigPath(path string) string {
	if path != "" {
		return path
	}
	if env := os.Getenv("JOBRISK_CONFIG"); env != "" {
		return env
	}
	return "config.yaml"
}

func loadConfig(path string) (*config.Config, error) {
	return config.Load(resolveConfigPath(path))
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// silentLogger is for commands that own the terminal (TUI, progress bar).
func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mustLoad loads the config or exits.
func mustLoad(logger *slog.Logger) *config.Config {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	return cfg
}

func openStore(ctx context.Context, cfg *config.Config) (model.ListingStore, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	return st, nil
}

// newRedisClient returns nil when redis is not configured.
func newRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.Redis.URL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis.url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func setupReporter(cfg *config.Config, httpClient *http.Client, rdb *redis.Client, logger *slog.Logger) model.Reporter {
	var reporters notifier.Multi
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack reporter")
		reporters = append(reporters, notifier.NewSlackReporter(cfg.Notification.WebhookURL, httpClient, logger))
	default:
		reporters = append(reporters, notifier.NewLogReporter(logger))
	}
	if rdb != nil {
		logger.Info("publishing run events", "channel", cfg.Redis.Channel)
		reporters = append(reporters, notifier.NewRedisPublisher(rdb, cfg.Redis.Channel, logger))
	}
	if len(reporters) == 1 {
		return reporters[0]
	}
	return reporters
}

func setupLocker(rdb *redis.Client, logger *slog.Logger) pipeline.Locker {
	if rdb != nil {
		logger.Info("using redis run lock")
		return lock.NewRedisLocker(rdb, lockPrefix, 0, logger)
	}
	return lock.NewLocalLocker()
}

// newFetcher builds the shared page fetcher: bounded retry behind a per-host
// courtesy limiter.
func newFetcher(cfg *config.Config, logger *slog.Logger) model.Fetcher {
	httpFetcher := fetch.NewHTTPFetcher(nil, fetch.Options{
		Attempts:   cfg.Fetch.Attempts,
		RetryDelay: cfg.Fetch.RetryDelay,
		Timeout:    cfg.Fetch.Timeout,
		UserAgent:  cfg.Fetch.UserAgent,
	}, logger)
	limiter := ratelimit.NewCourtesyLimiter(cfg.Courtesy.PageDelay)
	return ratelimit.NewRateLimitedFetcher(httpFetcher, limiter)
}

// runtimeDeps is everything a command that ingests needs, with its cleanup.
type runtimeDeps struct {
	pipeline *pipeline.Pipeline
	store    model.ListingStore
	rdb      *redis.Client
}

func (d *runtimeDeps) Close() {
	if d.store != nil {
		d.store.Close()
	}
	if d.rdb != nil {
		d.rdb.Close()
	}
}

// buildPipeline wires the ingestion pipeline. dryRun swaps the store for a
// NopStore so nothing is written.
func buildPipeline(ctx context.Context, cfg *config.Config, dryRun bool, onPage func(pipeline.PageStats), logger *slog.Logger) (*runtimeDeps, error) {
	deps := &runtimeDeps{}

	if dryRun {
		logger.Info("dry-run mode enabled, nothing will be stored")
		deps.store = store.NewNopStore()
	} else {
		st, err := openStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		deps.store = st
	}

	rdb, err := newRedisClient(ctx, cfg)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.rdb = rdb

	httpClient := &http.Client{Timeout: 30 * time.Second}
	fetcher := newFetcher(cfg, logger)

	opts := pipeline.Options{
		PageDelay: cfg.Courtesy.PageDelay,
		OnPage:    onPage,
	}
	if cfg.Enrich.Enabled {
		logger.Info("detail enrichment enabled", "max_chars", cfg.Enrich.MaxChars)
		opts.Enricher = enrich.NewDetailEnricher(fetcher, cfg.Enrich.MaxChars, logger)
	}

	deps.pipeline = pipeline.NewPipeline(
		fetcher,
		normalize.NewNormalizer(cfg.Defaults, nil),
		persist.NewPersister(deps.store, cfg.Duplicates.Refresh, logger),
		setupLocker(rdb, logger),
		setupReporter(cfg, httpClient, rdb, logger),
		opts,
		logger,
	)
	return deps, nil
}

// newSource builds the named source with its configured base URL and
// identity rule, or the source's defaults when it is not configured.
func newSource(cfg *config.Config, name string) (model.Source, error) {
	sc, _ := cfg.Source(name)
	src, err := source.New(name, sc.BaseURL)
	if err != nil {
		return nil, err
	}
	return source.WithIdentity(src, sc.Identity), nil
}

// buildJobs turns the enabled sources into scheduler jobs, in file order.
func buildJobs(cfg *config.Config, logger *slog.Logger) ([]scheduler.Job, error) {
	var jobs []scheduler.Job
	for _, sc := range cfg.EnabledSources() {
		src, err := newSource(cfg, sc.Name)
		if err != nil {
			return nil, err
		}
		job := scheduler.Job{Source: src}
		for _, c := range sc.Categories {
			job.Categories = append(job.Categories, scheduler.Category{Name: c.Name, Pages: c.Pages})
		}
		jobs = append(jobs, job)
		logger.Info("registered source",
			"name", sc.Name,
			"identity", src.Identity(),
			"categories", len(job.Categories),
		)
	}
	return jobs, nil
}
