// Package frame 提供动画帧调度：注册一个重复回调，拿到取消句柄，每次回调带上距上次回调的秒数。
package frame

import (
	"sync"
	"time"
)

// DefaultInterval 约等于 60Hz 显示刷新
const DefaultInterval = 16 * time.Millisecond

// Callback 帧回调，dt 为距上次回调的秒数
type Callback func(dt float64)

// Handle 取消句柄
type Handle interface {
	Cancel()
}

// Scheduler 帧调度器
type Scheduler interface {
	Every(fn Callback) Handle
}

// TickerScheduler 基于 time.Ticker 的调度器，每个回调独立一个 goroutine
type TickerScheduler struct {
	interval time.Duration
	now      func() time.Time
}

// NewTickerScheduler 创建调度器；interval<=0 使用 DefaultInterval
func NewTickerScheduler(interval time.Duration) *TickerScheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &TickerScheduler{interval: interval, now: time.Now}
}

// Every 注册回调
func (s *TickerScheduler) Every(fn Callback) Handle {
	h := &tickerHandle{stop: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		last := s.now()
		for {
			select {
			case <-h.stop:
				return
			case <-ticker.C:
				now := s.now()
				dt := now.Sub(last).Seconds()
				last = now
				fn(dt)
			}
		}
	}()
	return h
}

type tickerHandle struct {
	once sync.Once
	stop chan struct{}
}

func (h *tickerHandle) Cancel() {
	h.once.Do(func() { close(h.stop) })
}

// ManualScheduler 测试用调度器：由调用方显式推进时间
type ManualScheduler struct {
	mu        sync.Mutex
	nextID    int
	callbacks map[int]Callback
}

// NewManualScheduler 创建手动调度器
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{callbacks: make(map[int]Callback)}
}

// Every 注册回调
func (s *ManualScheduler) Every(fn Callback) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.callbacks[id] = fn
	return &manualHandle{s: s, id: id}
}

// Advance 以 dt 秒触发一次所有已注册回调（在调用方 goroutine 中同步执行）
func (s *ManualScheduler) Advance(dt float64) {
	s.mu.Lock()
	fns := make([]Callback, 0, len(s.callbacks))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.callbacks[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(dt)
	}
}

// Run 连续推进 n 帧
func (s *ManualScheduler) Run(n int, dt float64) {
	for i := 0; i < n; i++ {
		s.Advance(dt)
	}
}

// Len 已注册的回调数量
func (s *ManualScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.callbacks)
}

type manualHandle struct {
	s  *ManualScheduler
	id int
}

func (h *manualHandle) Cancel() {
	h.s.mu.Lock()
	delete(h.s.callbacks, h.id)
	h.s.mu.Unlock()
}
