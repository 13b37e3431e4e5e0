package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/amishk599/jobfeed/internal/ai"
	"github.com/amishk599/jobfeed/internal/config"
	"github.com/amishk599/jobfeed/internal/feed"
	"github.com/amishk599/jobfeed/internal/matching"
	"github.com/amishk599/jobfeed/internal/metering"
	"github.com/amishk599/jobfeed/internal/model"
	"github.com/amishk599/jobfeed/internal/notifier"
	"github.com/amishk599/jobfeed/internal/ratelimit"
	"github.com/amishk599/jobfeed/internal/remote"
	"github.com/amishk599/jobfeed/internal/retry"
	"github.com/amishk599/jobfeed/internal/store"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:          "jobfeed",
	Short:        "Personal job feed",
	Long:         "jobfeed keeps a per-user feed of scraped job postings, hides the ones your advanced matching policy rules out, and lets you triage the rest.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBFEED_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBFEED_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBFEED_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// app holds what every subcommand shares: config, logger, store and the
// session the CLI acts for.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *store.SQLiteStore
	retrier    *retry.Retrier
	httpClient *http.Client
	sess       model.Session
}

func openApp(logger *slog.Logger) (*app, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	logger.Debug("config loaded",
		"user_id", cfg.UserID,
		"database", cfg.Database.Path,
		"ai_enabled", cfg.AI.Enabled,
		"metering", cfg.Metering.Backend,
		"scan", cfg.Scan.BaseURL != "",
	)
	return &app{
		cfg:        cfg,
		logger:     logger,
		store:      st,
		retrier:    retry.New(retry.Policy{Attempts: cfg.Retry.Attempts, BaseDelay: cfg.Retry.BaseDelay}, logger),
		httpClient: &http.Client{Timeout: cfg.AI.Timeout},
		sess:       model.Session{UserID: cfg.UserID},
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("closing store", "error", err)
	}
}

// mustOpenApp is openApp for RunE bodies: a failure is logged and exits.
func mustOpenApp(logger *slog.Logger) *app {
	a, err := openApp(logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	return a
}

// scanner returns the scan collaborator, or nil when scan.base_url is unset.
func (a *app) scanner() model.Scanner {
	if a.cfg.Scan.BaseURL == "" {
		return nil
	}
	client := remote.NewClient(a.cfg.Scan.BaseURL, a.cfg.Scan.APIKey, &http.Client{Timeout: a.cfg.AI.Timeout})
	var s model.Scanner = remote.NewJobScanner(client, a.retrier)
	if a.cfg.Scan.MinDelay > 0 {
		s = ratelimit.NewRateLimitedScanner(s, ratelimit.NewGapLimiter(a.cfg.Scan.MinDelay), remote.ScanFunction)
	}
	return s
}

func (a *app) feedService() *feed.Service {
	return feed.NewService(a.store, a.scanner(), a.retrier, a.logger)
}

// classifier builds the semantic stage: provider, circuit breaker, optional
// gap limiter, then the prompt-driven classifier.
func (a *app) classifier() ai.SemanticClassifier {
	if !a.cfg.AI.Enabled {
		return ai.NewNopClassifier()
	}
	var p ai.LLMProvider = ai.NewOpenAIProvider(a.cfg.AI.BaseURL, a.cfg.AI.APIKey, a.cfg.AI.Model, a.httpClient)
	p = ai.NewBreakerProvider(p, a.cfg.AI.BreakerFailures, a.logger)
	if a.cfg.AI.MinDelay > 0 {
		p = ratelimit.NewRateLimitedProvider(p, ratelimit.NewGapLimiter(a.cfg.AI.MinDelay), a.cfg.AI.Model)
	}
	rates := ai.Rates{
		InputPerMillion:  a.cfg.AI.InputCostPerMillion,
		OutputPerMillion: a.cfg.AI.OutputCostPerMillion,
	}
	a.logger.Info("semantic stage enabled", "model", a.cfg.AI.Model, "breaker_failures", a.cfg.AI.BreakerFailures)
	return ai.NewLLMClassifier(p, a.retrier, ai.ExclusionTemplate, rates, a.logger)
}

// meter returns the configured usage store. The returned close func must be
// called once the meter is no longer used.
func (a *app) meter(ctx context.Context) (metering.Meter, func(), error) {
	if a.cfg.Metering.Backend != "redis" {
		return a.store, func() {}, nil
	}
	m, err := metering.NewRedisMeter(ctx, metering.RedisOptions{
		Addr:     a.cfg.Metering.RedisAddr,
		Password: a.cfg.Metering.RedisPassword,
		DB:       a.cfg.Metering.RedisDB,
	})
	if err != nil {
		return nil, nil, err
	}
	return m, func() {
		if err := m.Close(); err != nil {
			a.logger.Error("closing redis meter", "error", err)
		}
	}, nil
}

// matcher wires the Advanced Matching Filter with a background usage
// recorder. Callers must Wait on the recorder before exiting.
func (a *app) matcher(m metering.Meter) (*matching.Matcher, *metering.Recorder) {
	rec := metering.NewRecorder(m, a.cfg.Metering.Timeout, a.logger)
	f := matching.NewFilter(a.classifier(), rec, a.logger)
	return matching.NewMatcher(a.store, f, a.retrier), rec
}

// userError prints err the way the TUI shows it: short title, then the cause.
func userError(title string, err error) {
	fmt.Fprintln(os.Stderr, (&model.UserError{Title: title, Err: err}).Error())
}
