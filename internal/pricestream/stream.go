package pricestream

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/betbot/hypiq/internal/cache"
	"github.com/betbot/hypiq/internal/frame"
	"github.com/betbot/hypiq/internal/metrics"
	"github.com/betbot/hypiq/pkg/chart"
	"github.com/betbot/hypiq/pkg/sdk/hyperliquid"
	"github.com/betbot/hypiq/pkg/spring"
)

const (
	// DefaultSynthesisInterval 图表重新合成的间隔
	DefaultSynthesisInterval = time.Duration(chart.StepMs) * time.Millisecond
	// DefaultCacheInterval 写缓存的最小间隔
	DefaultCacheInterval = 250 * time.Millisecond
)

// Options Stream/Hub 参数
type Options struct {
	Scheduler         frame.Scheduler
	Cache             cache.PriceCache // 可选
	SynthesisInterval time.Duration
	CacheInterval     time.Duration
	Spring            spring.Params
	Now               func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Scheduler == nil {
		o.Scheduler = frame.NewTickerScheduler(frame.DefaultInterval)
	}
	if o.SynthesisInterval <= 0 {
		o.SynthesisInterval = DefaultSynthesisInterval
	}
	if o.CacheInterval <= 0 {
		o.CacheInterval = DefaultCacheInterval
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Stream 单个币种的事件循环：行情、帧回调、图表合成都在同一个 goroutine 中串行处理
type Stream struct {
	coin string
	opts Options
	log  *logrus.Entry

	pipeline *Pipeline

	// 行情信箱：只保留最新一条，循环忙时新值覆盖旧值
	mu           sync.Mutex
	pendingTick  *chart.PriceTick
	pendingState *hyperliquid.ConnState
	notify       chan struct{}

	frames   chan float64
	snapshot atomic.Pointer[Snapshot]
	running  atomic.Bool
}

// NewStream 创建 Stream
func NewStream(coin string, opts Options) *Stream {
	opts = opts.withDefaults()
	s := &Stream{
		coin:     coin,
		opts:     opts,
		log:      logrus.WithFields(logrus.Fields{"component": "pricestream", "coin": coin}),
		pipeline: NewPipeline(coin, opts.Spring),
		notify:   make(chan struct{}, 1),
		frames:   make(chan float64),
	}
	snap := s.pipeline.Snapshot()
	s.snapshot.Store(&snap)
	return s
}

// Coin 交易符号
func (s *Stream) Coin() string { return s.coin }

// Push 投递一条行情（不阻塞）
func (s *Stream) Push(tick chart.PriceTick) {
	s.mu.Lock()
	s.pendingTick = &tick
	s.mu.Unlock()
	s.wake()
}

// SetConnState 投递连接状态（不阻塞）
func (s *Stream) SetConnState(state hyperliquid.ConnState) {
	s.mu.Lock()
	s.pendingState = &state
	s.mu.Unlock()
	s.wake()
}

func (s *Stream) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Snapshot 最新的只读视图
func (s *Stream) Snapshot() Snapshot {
	return *s.snapshot.Load()
}

func (s *Stream) publish() {
	snap := s.pipeline.Snapshot()
	s.snapshot.Store(&snap)
}

// Run 运行事件循环直到 ctx 取消
func (s *Stream) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	defer s.running.Store(false)

	loopDone := make(chan struct{})
	defer close(loopDone)

	handle := s.opts.Scheduler.Every(func(dt float64) {
		select {
		case s.frames <- dt:
		case <-loopDone:
		case <-ctx.Done():
		}
	})
	defer handle.Cancel()

	synth := time.NewTicker(s.opts.SynthesisInterval)
	defer synth.Stop()

	if s.opts.Cache != nil {
		go s.cacheLoop(ctx, loopDone)
	}

	s.log.Debug("事件循环已启动")
	for {
		select {
		case <-ctx.Done():
			s.log.Debug("事件循环已退出")
			return nil
		case <-s.notify:
			s.drainMailbox()
			s.publish()
		case dt := <-s.frames:
			s.pipeline.Advance(dt)
			metrics.FramesProcessed.Add(1)
			s.publish()
		case <-synth.C:
			if s.pipeline.Synthesize(s.opts.Now().UnixMilli()) != nil {
				metrics.ChartSyntheses.Add(1)
			}
			s.publish()
		}
	}
}

func (s *Stream) drainMailbox() {
	s.mu.Lock()
	tick, state := s.pendingTick, s.pendingState
	s.pendingTick, s.pendingState = nil, nil
	s.mu.Unlock()

	if state != nil {
		s.pipeline.SetConnState(*state)
	}
	if tick != nil {
		s.pipeline.Observe(*tick)
	}
}

// cacheLoop 定期把平滑价格写入缓存，网络 IO 不占用事件循环
func (s *Stream) cacheLoop(ctx context.Context, loopDone <-chan struct{}) {
	ticker := time.NewTicker(s.opts.CacheInterval)
	defer ticker.Stop()

	var lastPrice float64
	for {
		select {
		case <-ctx.Done():
			return
		case <-loopDone:
			return
		case <-ticker.C:
			snap := s.Snapshot()
			if !snap.Ready || snap.Price == lastPrice {
				continue
			}
			err := s.opts.Cache.SetQuote(ctx, cache.Quote{
				Coin:      snap.Coin,
				Price:     snap.Price,
				Target:    snap.Target,
				UpdatedAt: s.opts.Now().UnixMilli(),
			})
			if err != nil {
				metrics.CacheErrors.Add(1)
				s.log.Warnf("写入价格缓存失败: %v", err)
				continue
			}
			metrics.CacheWrites.Add(1)
			lastPrice = snap.Price
		}
	}
}
