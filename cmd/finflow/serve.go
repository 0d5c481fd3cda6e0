package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finflow/tax-advisor/internal/advisor"
	"github.com/finflow/tax-advisor/internal/calculation"
	"github.com/finflow/tax-advisor/internal/config"
	"github.com/finflow/tax-advisor/internal/domain"
	apihttp "github.com/finflow/tax-advisor/internal/http"
	"github.com/finflow/tax-advisor/internal/logging"
	"github.com/finflow/tax-advisor/internal/repository"
	"github.com/finflow/tax-advisor/internal/service"
	"github.com/spf13/cobra"
)

const redisPingTimeout = 3 * time.Second

func newServeCmd(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := opts.loadSettings()
			if err != nil {
				return err
			}
			if addr != "" {
				settings.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts, settings)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides settings)")
	return cmd
}

func runServe(ctx context.Context, opts *globalOptions, settings config.Settings) error {
	logger := opts.logger(settings.Log.Level)

	rulesPath := opts.rulesPath(settings)
	rules, err := config.LoadRulesOrDefault(rulesPath)
	if err != nil {
		return err
	}
	ruleSet, err := selectRuleSet(rules, opts.year)
	if err != nil {
		return err
	}
	engine := calculation.NewTaxEngineWithRules(ruleSet)
	engine.SetLogger(logger)

	store, err := openStore(settings.Storage, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	cache, closeCache := openCache(ctx, settings.Storage, logger)
	defer closeCache()

	if settings.Advisor.APIKey == "" {
		logger.Warnf("no advisor API key set (GEMINI_API_KEY); tax analyses will use credit totals and savings analyses will fail")
	}
	client := advisor.NewClient(settings.Advisor.APIKey,
		advisor.WithBaseURL(settings.Advisor.BaseURL),
		advisor.WithModel(settings.Advisor.Model),
		advisor.WithTimeout(settings.Advisor.Timeout.Duration),
	)
	retrier := advisor.NewRetrier(client, settings.Advisor.MaxAttempts, settings.Advisor.BackoffStep.Duration)
	retrier.Logger = logger

	svcOpts := service.Options{
		Freshness:         settings.Analysis.Freshness.Duration,
		TaxFetchLimit:     settings.Analysis.TaxFetchLimit,
		SavingsFetchLimit: settings.Analysis.SavingsFetchLimit,
	}
	taxSvc := service.NewTaxService(engine, store, store, cache, retrier, svcOpts)
	taxSvc.SetLogger(logger)
	savingsSvc := service.NewSavingsService(store, store, retrier, svcOpts)
	savingsSvc.SetLogger(logger)
	txnSvc := service.NewTransactionService(store)
	txnSvc.SetLogger(logger)
	creditSvc := service.NewCreditService(store)

	if settings.Rules.Watch && rulesPath != "" {
		err := config.WatchRules(ctx, rulesPath, logger, func(rc *domain.RulesConfig) {
			rs, err := selectRuleSet(rc, opts.year)
			if err != nil {
				logger.Warnf("ignoring reloaded rules: %v", err)
				return
			}
			engine.SetRules(rs)
		})
		if err != nil {
			return err
		}
	}

	limiter := apihttp.NewRateLimiter(settings.RateLimit.Capacity, settings.RateLimit.Window.Duration)
	defer limiter.Stop()

	handler := apihttp.NewHandler(taxSvc, savingsSvc, txnSvc, creditSvc, logger)
	server := apihttp.NewServer(apihttp.NewRouter(handler, limiter, logger), apihttp.ServerOptions{
		Addr:         settings.Server.Addr,
		ReadTimeout:  settings.Server.ReadTimeout.Duration,
		WriteTimeout: settings.Server.WriteTimeout.Duration,
		IdleTimeout:  settings.Server.IdleTimeout.Duration,
	}, logger)

	logger.Infof("using rules for %s", ruleSet.FinancialYear)
	return server.Run(ctx)
}

// openStore opens SQLite at the configured path, or memory when the path is empty
func openStore(cfg config.StorageSettings, logger logging.Logger) (repository.Store, error) {
	if cfg.DBPath == "" {
		logger.Warnf("no database path configured; data will not survive a restart")
		return repository.NewMemoryStore(), nil
	}
	store, err := repository.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	logger.Infof("database at %s", cfg.DBPath)
	return store, nil
}

// openCache connects to Redis when configured and reachable, otherwise uses memory
func openCache(ctx context.Context, cfg config.StorageSettings, logger logging.Logger) (repository.CacheRepository, func()) {
	if cfg.RedisAddr == "" {
		return repository.NewMemoryCache(), func() {}
	}

	redisCache := repository.NewRedisCache(cfg.RedisAddr, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := redisCache.Ping(pingCtx); err != nil {
		logger.Warnf("redis at %s unavailable, using in-process cache: %v", cfg.RedisAddr, err)
		closeQuietly(redisCache)
		return repository.NewMemoryCache(), func() {}
	}

	logger.Infof("cache at redis %s", cfg.RedisAddr)
	return redisCache, func() { closeQuietly(redisCache) }
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}
