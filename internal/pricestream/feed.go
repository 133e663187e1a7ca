package pricestream

import (
	"time"

	"github.com/betbot/hypiq/internal/cache"
	"github.com/betbot/hypiq/internal/frame"
	"github.com/betbot/hypiq/pkg/config"
	"github.com/betbot/hypiq/pkg/sdk/hyperliquid"
)

// OptionsFromConfig 按行情配置生成事件循环参数
func OptionsFromConfig(cfg config.FeedConfig, c cache.PriceCache) Options {
	interval := frame.DefaultInterval
	if cfg.FrameIntervalMs > 0 {
		interval = time.Duration(cfg.FrameIntervalMs) * time.Millisecond
	}
	return Options{
		Scheduler: frame.NewTickerScheduler(interval),
		Cache:     c,
	}
}

// NewFeed 创建订阅 hub 全部币种的行情客户端，价格与连接状态都转发给 hub
func NewFeed(cfg config.FeedConfig, hub *Hub) *hyperliquid.Client {
	hcfg := hyperliquid.DefaultConfig()
	if cfg.URL != "" {
		hcfg.URL = cfg.URL
	}
	if cfg.ReconnectSeconds > 0 {
		hcfg.ReconnectDelay = time.Duration(cfg.ReconnectSeconds) * time.Second
	}
	client := hyperliquid.NewClient(hcfg, hub.Coins(), hub.HandleTick)
	client.OnStateChange(hub.HandleState)
	return client
}
