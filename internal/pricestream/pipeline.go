// Package pricestream 把行情推送、动画帧和图表合成串到每个币种独立的事件循环上
package pricestream

import (
	"github.com/betbot/hypiq/pkg/chart"
	"github.com/betbot/hypiq/pkg/sdk/hyperliquid"
	"github.com/betbot/hypiq/pkg/spring"
)

// Snapshot 某一时刻的只读视图
type Snapshot struct {
	Coin       string                `json:"coin"`
	Ready      bool                  `json:"ready"`
	Price      float64               `json:"price"`
	Target     float64               `json:"target"`
	Velocity   float64               `json:"velocity"`
	LastTick   *chart.PriceTick      `json:"lastTick,omitempty"`
	Connection hyperliquid.ConnState `json:"connection"`
	Chart      []chart.ChartPoint    `json:"chart"`
	Frames     uint64                `json:"frames"`
	UpdatedAt  int64                 `json:"updatedAt"`
}

// Pipeline 单个币种的状态：弹簧、历史缓冲、最近一次合成的图表
// 非并发安全，只能由所属事件循环调用
type Pipeline struct {
	coin    string
	spring  *spring.Spring
	history *chart.History

	lastTick *chart.PriceTick
	points   []chart.ChartPoint
	conn     hyperliquid.ConnState
	frames   uint64
	updated  int64
}

// NewPipeline 创建 Pipeline
func NewPipeline(coin string, params spring.Params) *Pipeline {
	return &Pipeline{
		coin:    coin,
		spring:  spring.NewWithParams(params),
		history: chart.NewHistory(),
	}
}

// Observe 处理一次行情：更新弹簧目标，按规则写入历史
func (p *Pipeline) Observe(tick chart.PriceTick) {
	p.spring.SetTarget(tick.Price)
	p.history.Observe(tick)
	t := tick
	p.lastTick = &t
	p.updated = tick.Timestamp
}

// Advance 推进一帧
func (p *Pipeline) Advance(dt float64) {
	p.spring.Step(dt)
	p.frames++
}

// SetConnState 记录连接状态；断线时保留最后的平滑价格
func (p *Pipeline) SetConnState(s hyperliquid.ConnState) {
	p.conn = s
}

// Synthesize 重新合成图表；未收到首个价格前返回 nil
func (p *Pipeline) Synthesize(nowMs int64) []chart.ChartPoint {
	display, ok := p.spring.Value()
	if !ok {
		p.points = nil
		return nil
	}
	p.points = chart.Synthesize(p.history.Ticks(), display, nowMs)
	p.updated = nowMs
	return p.points
}

// History 历史缓冲的拷贝
func (p *Pipeline) History() []chart.PriceTick {
	return p.history.Ticks()
}

// Snapshot 生成只读视图
func (p *Pipeline) Snapshot() Snapshot {
	st := p.spring.State()
	snap := Snapshot{
		Coin:       p.coin,
		Ready:      p.spring.Ready(),
		Connection: p.conn,
		Chart:      p.points,
		Frames:     p.frames,
		UpdatedAt:  p.updated,
	}
	if snap.Ready {
		snap.Price = st.Value
		snap.Target = st.Target
		snap.Velocity = st.Velocity
	}
	if p.lastTick != nil {
		t := *p.lastTick
		snap.LastTick = &t
	}
	return snap
}
