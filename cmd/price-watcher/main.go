package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/betbot/hypiq/internal/pricestream"
	"github.com/betbot/hypiq/pkg/config"
	"github.com/betbot/hypiq/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("HYPIQ_CONFIG"), "config file (yaml/json), optional")
	coins := flag.String("coins", "", "comma separated coins, overrides config (e.g. BTC,ETH)")
	interval := flag.Duration("interval", time.Second, "print interval")
	flag.Parse()

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	if *coins != "" {
		cfg.Feed.Coins = strings.Split(*coins, ",")
	}
	if err := logger.Init(logger.Config{Level: cfg.Log.Level, OutputFile: cfg.Log.File, MaxSize: 50, MaxBackups: 2, MaxAge: 3}); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	hub := pricestream.NewHub(cfg.Feed.Coins, pricestream.OptionsFromConfig(cfg.Feed, nil))
	go func() { _ = hub.Run(ctx) }()

	feed := pricestream.NewFeed(cfg.Feed, hub)
	if err := feed.Start(ctx); err != nil {
		logrus.Fatalf("启动行情失败: %v", err)
	}
	defer feed.Stop()

	fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("🐋 Hyperliquid 价格监控\n")
	fmt.Printf("币种: %s\n", strings.Join(hub.Coins(), ", "))
	fmt.Printf("行情源: %s\n", cfg.Feed.URL)
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Printf("\n正在关闭...\n")
			return
		case <-ticker.C:
			for _, coin := range hub.Coins() {
				snap, _ := hub.Snapshot(coin)
				fmt.Println(formatSnapshot(snap))
			}
		}
	}
}

func formatSnapshot(s pricestream.Snapshot) string {
	ts := time.Now().Format("15:04:05")
	if !s.Ready {
		return fmt.Sprintf("[%s] %-5s 等待价格... (%s)", ts, s.Coin, s.Connection)
	}
	return fmt.Sprintf("[%s] %-5s 显示=%.4f 目标=%.4f 速度=%+.4f 帧=%d (%s)",
		ts, s.Coin, s.Price, s.Target, s.Velocity, s.Frames, s.Connection)
}
