package pricestream

import (
	"context"
	"sync"

	"github.com/betbot/hypiq/internal/metrics"
	"github.com/betbot/hypiq/pkg/chart"
	"github.com/betbot/hypiq/pkg/sdk/hyperliquid"
	"github.com/betbot/hypiq/pkg/syncgroup"
)

// Hub 管理多个币种的 Stream，并把行情客户端的回调路由过去
type Hub struct {
	coins   []string
	streams map[string]*Stream

	stateMu sync.Mutex
	state   hyperliquid.ConnState
}

// NewHub 创建 Hub；coins 支持别名，重复项只保留一个
func NewHub(coins []string, opts Options) *Hub {
	h := &Hub{streams: make(map[string]*Stream)}
	for _, c := range coins {
		sym := hyperliquid.CoinSymbol(c)
		if sym == "" {
			continue
		}
		if _, ok := h.streams[sym]; ok {
			continue
		}
		h.coins = append(h.coins, sym)
		h.streams[sym] = NewStream(sym, opts)
	}
	return h
}

// Coins 交易符号列表（按配置顺序）
func (h *Hub) Coins() []string {
	out := make([]string, len(h.coins))
	copy(out, h.coins)
	return out
}

// Stream 按币种（支持别名）查找
func (h *Hub) Stream(coin string) (*Stream, bool) {
	s, ok := h.streams[hyperliquid.CoinSymbol(coin)]
	return s, ok
}

// Snapshot 按币种读取视图
func (h *Hub) Snapshot(coin string) (Snapshot, bool) {
	s, ok := h.Stream(coin)
	if !ok {
		return Snapshot{}, false
	}
	return s.Snapshot(), true
}

// HandleTick 作为 hyperliquid.TickHandler 使用
func (h *Hub) HandleTick(t hyperliquid.Tick) {
	s, ok := h.streams[t.Coin]
	if !ok {
		return
	}
	metrics.FeedTicks.Add(1)
	s.Push(chart.PriceTick{Coin: t.Coin, Price: t.Price, Timestamp: t.Timestamp})
}

// HandleState 作为 hyperliquid.StateHandler 使用
func (h *Hub) HandleState(state hyperliquid.ConnState) {
	h.stateMu.Lock()
	prev := h.state
	h.state = state
	h.stateMu.Unlock()

	if state == hyperliquid.StateConnected {
		metrics.FeedConnected.Set(1)
		if prev != hyperliquid.StateConnected {
			metrics.FeedReconnects.Add(1)
		}
	} else {
		metrics.FeedConnected.Set(0)
	}
	for _, s := range h.streams {
		s.SetConnState(state)
	}
}

// Run 启动所有事件循环，阻塞到 ctx 取消
func (h *Hub) Run(ctx context.Context) error {
	sg := syncgroup.NewSyncGroup()
	for _, coin := range h.coins {
		s := h.streams[coin]
		sg.Add("pricestream-"+coin, func() { _ = s.Run(ctx) })
	}
	sg.Run()
	sg.Wait()
	return nil
}
