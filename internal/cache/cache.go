// Package cache 保存每个币种最新的平滑价格，供 HTTP 层和其他进程读取
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/betbot/hypiq/pkg/config"
)

// Quote 平滑后的最新价格
type Quote struct {
	Coin      string  `json:"coin"`
	Price     float64 `json:"price"`
	Target    float64 `json:"target"`
	UpdatedAt int64   `json:"updatedAt"` // 毫秒
}

// PriceCache 价格缓存
type PriceCache interface {
	SetQuote(ctx context.Context, q Quote) error
	GetQuote(ctx context.Context, coin string) (Quote, bool, error)
	Close() error
}

// New 按配置创建缓存（memory | redis）
func New(ctx context.Context, cfg config.CacheConfig) (PriceCache, error) {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(ttl), nil
	case "redis":
		return NewRedis(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      ttl,
		})
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

func normalizeCoin(coin string) string {
	return strings.ToUpper(strings.TrimSpace(coin))
}

type memoryItem struct {
	quote     Quote
	expiresAt time.Time
}

// Memory 进程内缓存，ttl<=0 表示不过期
type Memory struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	ttl   time.Duration
	now   func() time.Time
}

// NewMemory 创建内存缓存
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		items: make(map[string]memoryItem),
		ttl:   ttl,
		now:   time.Now,
	}
}

// SetQuote 写入价格
func (m *Memory) SetQuote(_ context.Context, q Quote) error {
	q.Coin = normalizeCoin(q.Coin)
	item := memoryItem{quote: q}
	if m.ttl > 0 {
		item.expiresAt = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.items[q.Coin] = item
	m.mu.Unlock()
	return nil
}

// GetQuote 读取价格，过期视为不存在
func (m *Memory) GetQuote(_ context.Context, coin string) (Quote, bool, error) {
	coin = normalizeCoin(coin)
	m.mu.RLock()
	item, ok := m.items[coin]
	m.mu.RUnlock()
	if !ok {
		return Quote{}, false, nil
	}
	if !item.expiresAt.IsZero() && m.now().After(item.expiresAt) {
		m.mu.Lock()
		delete(m.items, coin)
		m.mu.Unlock()
		return Quote{}, false, nil
	}
	return item.quote, true, nil
}

// Close 清空缓存
func (m *Memory) Close() error {
	m.mu.Lock()
	m.items = make(map[string]memoryItem)
	m.mu.Unlock()
	return nil
}
