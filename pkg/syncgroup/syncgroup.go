package syncgroup

import (
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

type namedFunc struct {
	name string
	fn   func()
}

// SyncGroup 是 sync.WaitGroup 的包装器：自动管理 Add()/Done()，
// 并捕获 goroutine 中的 panic
type SyncGroup struct {
	wg sync.WaitGroup

	mu      sync.Mutex
	pending []namedFunc

	panics atomic.Int64
}

// NewSyncGroup 创建新的 SyncGroup
func NewSyncGroup() *SyncGroup {
	return &SyncGroup{}
}

// Add 登记一个 goroutine 函数，Run() 时启动
func (g *SyncGroup) Add(name string, fn func()) {
	if fn == nil {
		return
	}
	g.mu.Lock()
	g.pending = append(g.pending, namedFunc{name: name, fn: fn})
	g.mu.Unlock()
}

// Run 启动所有已登记的函数并清空列表
func (g *SyncGroup) Run() {
	g.mu.Lock()
	fns := g.pending
	g.pending = nil
	g.mu.Unlock()

	for _, f := range fns {
		g.start(f)
	}
}

// Go 立即启动一个 goroutine
func (g *SyncGroup) Go(name string, fn func()) {
	if fn == nil {
		return
	}
	g.start(namedFunc{name: name, fn: fn})
}

func (g *SyncGroup) start(f namedFunc) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				g.panics.Add(1)
				logrus.WithField("goroutine", f.name).Errorf("panic: %v\n%s", r, debug.Stack())
			}
		}()
		f.fn()
	}()
}

// Wait 等待所有已启动的 goroutine 完成
func (g *SyncGroup) Wait() {
	g.wg.Wait()
}

// Panics 捕获到的 panic 次数
func (g *SyncGroup) Panics() int64 {
	return g.panics.Load()
}
