package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/betbot/hypiq/internal/cache"
	"github.com/betbot/hypiq/internal/metrics"
	"github.com/betbot/hypiq/internal/pricestream"
	"github.com/betbot/hypiq/internal/scheduler"
	"github.com/betbot/hypiq/internal/server"
	"github.com/betbot/hypiq/internal/waitlist"
	"github.com/betbot/hypiq/internal/wallet"
	"github.com/betbot/hypiq/pkg/config"
	"github.com/betbot/hypiq/pkg/logger"
	"github.com/betbot/hypiq/pkg/persistence"
	"github.com/betbot/hypiq/pkg/shutdown"
)

func main() {
	// Load .env (best-effort). If missing, fall back to real env vars.
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("HYPIQ_CONFIG"), "config file (yaml/json), optional")
	flag.Parse()

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		OutputFile: cfg.Log.File,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
		JSON:       cfg.Log.JSON,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sm := shutdown.NewManager()
	// 存储在所有使用方停止之后再关闭
	var closers []func() error
	defer func() {
		cancel()
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logrus.Warnf("close failed: %v", err)
			}
		}
	}()

	// 价格缓存
	priceCache, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("init price cache: %w", err)
	}
	closers = append(closers, priceCache.Close)

	// 候补名单
	store, err := waitlist.Open(ctx, cfg.Waitlist)
	if err != nil {
		return fmt.Errorf("open waitlist store: %w", err)
	}
	closers = append(closers, store.Close)
	wl := waitlist.NewService(store, waitlist.NewMailer(cfg.Mailer))

	// 钱包
	persist, closePersist, err := persistence.Open(cfg.Wallet.Backend, cfg.Wallet.DataDir)
	if err != nil {
		return fmt.Errorf("open wallet persistence: %w", err)
	}
	balance, err := decimal.NewFromString(cfg.Wallet.StartingBalance)
	if err != nil {
		balance = wallet.DefaultStartingBalance
	}
	w := wallet.New(persist.NewStore("wallet", "default", "state"), balance)
	if err := w.Load(); err != nil {
		logrus.Warnf("加载钱包失败，使用初始状态: %v", err)
	}
	closers = append(closers, closePersist, w.Flush)

	// 价格管线与行情源
	hub := pricestream.NewHub(cfg.Feed.Coins, pricestream.OptionsFromConfig(cfg.Feed, priceCache))
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		_ = hub.Run(ctx)
	}()

	feed := pricestream.NewFeed(cfg.Feed, hub)
	if err := feed.Start(ctx); err != nil {
		return fmt.Errorf("start feed: %w", err)
	}
	sm.OnShutdown("feed", func(context.Context) error {
		feed.Stop()
		return nil
	})

	// 定时任务
	sched := scheduler.New(ctx, wl, w)
	if err := sched.RegisterAll(cfg.Scheduler); err != nil {
		return err
	}
	sched.Start()
	sm.OnShutdown("scheduler", sched.Stop)

	if cfg.Metrics.Listen != "" {
		if _, err := metrics.StartAsync(ctx, cfg.Metrics.Listen); err != nil {
			return fmt.Errorf("start metrics: %w", err)
		}
		logrus.Infof("metrics listening on %s", cfg.Metrics.Listen)
	}

	srv := server.New(server.Options{
		Waitlist:           wl,
		Prices:             hub,
		Quotes:             priceCache,
		Wallet:             w,
		MaxBetPct:          cfg.Wallet.MaxBetPct,
		GinMode:            cfg.Server.GinMode,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
	})
	httpSrv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	sm.OnShutdown("http", httpSrv.Shutdown)

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("hypiq listening on %s (coins=%v)", cfg.Server.Listen, hub.Coins())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	select {
	case sig := <-stopCh:
		logrus.Infof("收到信号 %s，开始关闭", sig)
	case err = <-errCh:
		logrus.Errorf("http server error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	sm.Shutdown(shutdownCtx)
	cancel()
	<-hubDone

	logrus.Info("server stopped")
	return err
}
