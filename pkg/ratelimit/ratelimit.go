package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindow 滑动窗口速率限制器
type SlidingWindow struct {
	limit      int           // 限制数量
	windowSize time.Duration // 窗口大小
	requests   []time.Time   // 请求时间戳（升序）
	mu         sync.Mutex
}

// NewSlidingWindow 创建新的滑动窗口速率限制器
func NewSlidingWindow(limit int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		limit:      limit,
		windowSize: windowSize,
	}
}

// evict 移除窗口外的请求
func (sw *SlidingWindow) evict(now time.Time) {
	cutoff := now.Add(-sw.windowSize)
	i := 0
	for i < len(sw.requests) && !sw.requests[i].After(cutoff) {
		i++
	}
	sw.requests = sw.requests[i:]
}

// AllowAt 在给定时刻检查并记录一次请求
func (sw *SlidingWindow) AllowAt(now time.Time) bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.evict(now)
	if len(sw.requests) >= sw.limit {
		return false
	}
	sw.requests = append(sw.requests, now)
	return true
}

// Allow 检查是否允许请求
func (sw *SlidingWindow) Allow() bool {
	return sw.AllowAt(time.Now())
}

// RemainingAt 给定时刻窗口内剩余的请求数
func (sw *SlidingWindow) RemainingAt(now time.Time) int {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.evict(now)
	return max(0, sw.limit-len(sw.requests))
}

// ResetAt 最早一条请求滑出窗口的时间
func (sw *SlidingWindow) ResetAt(now time.Time) time.Time {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.evict(now)
	if len(sw.requests) == 0 {
		return now
	}
	return sw.requests[0].Add(sw.windowSize)
}

func (sw *SlidingWindow) idle(now time.Time) bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.evict(now)
	return len(sw.requests) == 0
}

// KeyedLimiter 按 key（如客户端 IP）分别限流
type KeyedLimiter struct {
	limit      int
	windowSize time.Duration
	now        func() time.Time

	mu        sync.Mutex
	windows   map[string]*SlidingWindow
	lastPrune time.Time
}

// NewKeyed 每个 key 在 windowSize 内最多 limit 次；limit<=0 表示不限流
func NewKeyed(limit int, windowSize time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		limit:      limit,
		windowSize: windowSize,
		now:        time.Now,
		windows:    make(map[string]*SlidingWindow),
	}
}

// Allow 检查 key 是否允许请求；拒绝时返回可以重试的时间
func (k *KeyedLimiter) Allow(key string) (bool, time.Time) {
	now := k.now()
	if k.limit <= 0 {
		return true, now
	}

	k.mu.Lock()
	if now.Sub(k.lastPrune) >= k.windowSize {
		k.pruneLocked(now)
	}
	w, ok := k.windows[key]
	if !ok {
		w = NewSlidingWindow(k.limit, k.windowSize)
		k.windows[key] = w
	}
	k.mu.Unlock()

	if w.AllowAt(now) {
		return true, now
	}
	return false, w.ResetAt(now)
}

// Len 当前跟踪的 key 数量
func (k *KeyedLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.windows)
}

func (k *KeyedLimiter) pruneLocked(now time.Time) {
	for key, w := range k.windows {
		if w.idle(now) {
			delete(k.windows, key)
		}
	}
	k.lastPrune = now
}
