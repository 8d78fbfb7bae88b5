package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"CryptoTracker/internal/collector"
	"CryptoTracker/internal/config"
	"CryptoTracker/internal/logger"
	"CryptoTracker/internal/model"
	"CryptoTracker/internal/notifier"
	"CryptoTracker/internal/recorder"
	"CryptoTracker/internal/scheduler"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "tracker",
		Short:         "Crypto price tracker with bounded history",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default $CONFIG_PATH or configs/config.yaml)")

	root.AddCommand(newServeCmd(&cfgPath), newFetchCmd(&cfgPath))
	return root
}

// app holds the components shared by every command.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	coins     *model.CoinTable
	store     recorder.Recorder
	collector *collector.Collector
	hooks     []scheduler.CycleHook
}

func bootstrap(ctx context.Context, cfgPath string) (*app, error) {
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	coins, err := model.NewCoinTable(cfg.Coins)
	if err != nil {
		return nil, err
	}

	store, err := recorder.Open(ctx, recorder.Config{
		Driver:         cfg.Database.Driver,
		DSN:            cfg.DatabaseDSN(),
		MaxPoints:      cfg.Retention.MaxPoints,
		CreateDatabase: cfg.Database.CreateDatabase,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("open recorder: %w", err)
	}

	var source collector.PriceSource
	if cfg.Provider.Mock {
		source = &collector.MockSource{}
	} else {
		source, err = collector.NewCoinGeckoSource(
			collector.WithBaseURL(cfg.Provider.BaseURL),
			collector.WithAPIKey(cfg.Provider.APIKey),
			collector.WithCurrency(cfg.Provider.Currency),
			collector.WithProxy(cfg.Proxy),
			collector.WithTimeout(cfg.Provider.Timeout),
		)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("init price source: %w", err)
		}
	}
	log.Info("price source ready", zap.String("source", source.Name()), zap.Int("coins", coins.Len()))

	col := collector.NewCollector(source, coins, store, log)
	col.Timeout = cfg.Provider.Timeout

	a := &app{cfg: cfg, log: log, coins: coins, store: store, collector: col}
	if cfg.Telegram.BotToken != "" {
		tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		alerter := notifier.NewFailureAlerter(tn, cfg.Telegram.FailureThreshold, log)
		a.hooks = append(a.hooks, alerter.Observe)
		log.Info("telegram failure alerts enabled", zap.Int("threshold", cfg.Telegram.FailureThreshold))
	}
	return a, nil
}

func (a *app) newScheduler(ctx context.Context, runOnStart bool) (*scheduler.Scheduler, error) {
	return scheduler.NewScheduler(ctx, a.collector, scheduler.Config{
		Interval:   a.cfg.Schedule.Interval,
		Cron:       a.cfg.Schedule.Cron,
		RunOnStart: runOnStart,
	}, a.log, a.hooks...)
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Error("close recorder", zap.Error(err))
	}
	_ = a.log.Sync()
}
