package hyperliquid

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultWSURL Hyperliquid WebSocket 端点
	DefaultWSURL = "wss://api.hyperliquid.xyz/ws"
	// DefaultReconnectDelay 固定重连间隔（不做指数退避，不设上限）
	DefaultReconnectDelay = 3 * time.Second
)

var log = logrus.WithField("component", "hyperliquid")

// Config 客户端配置
type Config struct {
	URL              string
	ReconnectDelay   time.Duration
	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration // 超过此时间没有任何消息则视为断线
	PingInterval     time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		URL:              DefaultWSURL,
		ReconnectDelay:   DefaultReconnectDelay,
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      90 * time.Second,
		PingInterval:     30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.URL == "" {
		c.URL = d.URL
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = d.ReconnectDelay
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	return c
}

// TickHandler 收到价格时回调（在读取 goroutine 中执行，不应阻塞）
type TickHandler func(Tick)

// StateHandler 连接状态变化回调
type StateHandler func(ConnState)

// Client 订阅 allMids 并按关注的币种分发价格
type Client struct {
	cfg     Config
	symbols map[string]struct{}
	onTick  TickHandler

	stateMu sync.RWMutex
	onState StateHandler
	state   atomic.Int32

	conn   *websocket.Conn
	connMu sync.Mutex

	running   bool
	runningMu sync.Mutex
	stopCh    chan struct{}
	doneCh    chan struct{}

	now func() time.Time
}

// NewClient 创建客户端；coins 支持别名（bitcoin、eth ...）
func NewClient(cfg Config, coins []string, onTick TickHandler) *Client {
	symbols := make(map[string]struct{}, len(coins))
	for _, coin := range coins {
		symbols[CoinSymbol(coin)] = struct{}{}
	}
	return &Client{
		cfg:     cfg.withDefaults(),
		symbols: symbols,
		onTick:  onTick,
		now:     time.Now,
	}
}

// OnStateChange 注册连接状态回调
func (c *Client) OnStateChange(fn StateHandler) {
	c.stateMu.Lock()
	c.onState = fn
	c.stateMu.Unlock()
}

// Symbols 返回订阅的交易符号（已排序）
func (c *Client) Symbols() []string {
	out := make([]string, 0, len(c.symbols))
	for s := range c.symbols {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// State 当前连接状态
func (c *Client) State() ConnState {
	return ConnState(c.state.Load())
}

func (c *Client) setState(s ConnState) {
	if ConnState(c.state.Swap(int32(s))) == s {
		return
	}
	c.stateMu.RLock()
	fn := c.onState
	c.stateMu.RUnlock()
	if fn != nil {
		fn(s)
	}
}

// Start 启动后台连接循环；首次连接失败同样按固定间隔重试
func (c *Client) Start(ctx context.Context) error {
	c.runningMu.Lock()
	defer c.runningMu.Unlock()
	if c.running {
		return fmt.Errorf("hyperliquid 客户端已在运行")
	}
	c.running = true
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})

	go c.run(ctx)
	log.Infof("已启动，连接 %s，关注 %v", c.cfg.URL, c.Symbols())
	return nil
}

// Stop 以正常关闭码断开连接，之后不再重连
func (c *Client) Stop() {
	c.runningMu.Lock()
	if !c.running {
		c.runningMu.Unlock()
		return
	}
	c.running = false
	close(c.stopCh)
	doneCh := c.doneCh
	c.runningMu.Unlock()

	c.closeConn(true)

	select {
	case <-doneCh:
	case <-time.After(5 * time.Second):
		log.Warn("关闭超时")
	}
	log.Info("已停止")
}

func (c *Client) stopping(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-c.stopCh:
		return true
	default:
		return false
	}
}

func (c *Client) run(ctx context.Context) {
	defer close(c.doneCh)
	defer c.setState(StateDisconnected)

	// ctx 取消时关闭连接，让阻塞中的读取返回
	go func() {
		select {
		case <-ctx.Done():
			c.closeConn(true)
		case <-c.stopCh:
		}
	}()

	for attempt := 0; ; attempt++ {
		if c.stopping(ctx) {
			return
		}

		if err := c.session(ctx); err != nil && !c.stopping(ctx) {
			log.Warnf("连接中断: %v", err)
		}
		c.setState(StateDisconnected)

		if c.stopping(ctx) {
			return
		}

		log.Infof("%v 后重连（第 %d 次）", c.cfg.ReconnectDelay, attempt+1)
		timer := time.NewTimer(c.cfg.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-c.stopCh:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// session 建立一次连接并读取到出错为止
func (c *Client) session(ctx context.Context) error {
	c.setState(StateConnecting)

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.connMu.Lock()
	if c.stopping(ctx) {
		c.connMu.Unlock()
		conn.Close()
		return nil
	}
	c.conn = conn
	c.connMu.Unlock()
	defer c.closeConn(false)

	if err := c.writeJSON(subscribeRequest{
		Method:       "subscribe",
		Subscription: subscription{Type: channelAllMids},
	}); err != nil {
		return fmt.Errorf("send subscription failed: %w", err)
	}
	c.setState(StateConnected)

	pingDone := make(chan struct{})
	defer close(pingDone)
	go c.pingLoop(pingDone)

	for {
		_ = conn.SetReadDeadline(c.now().Add(c.cfg.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.handleMessage(message)
	}
}

func (c *Client) pingLoop(done <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.writeJSON(pingRequest{Method: "ping"}); err != nil {
				log.Debugf("ping 失败: %v", err)
			}
		}
	}
}

func (c *Client) writeJSON(v interface{}) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	_ = c.conn.SetWriteDeadline(c.now().Add(c.cfg.HandshakeTimeout))
	return c.conn.WriteJSON(v)
}

// closeConn 关闭当前连接；normal=true 时先发送 1000 关闭帧
func (c *Client) closeConn(normal bool) {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return
	}
	if normal {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client stop"),
			c.now().Add(time.Second))
	}
	c.conn.Close()
	c.conn = nil
}

// handleMessage 解析 allMids 推送；格式错误或其他频道直接忽略
func (c *Client) handleMessage(data []byte) {
	for _, tick := range c.parseAllMids(data) {
		if c.onTick != nil {
			c.onTick(tick)
		}
	}
}

func (c *Client) parseAllMids(data []byte) []Tick {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil
	}
	if env.Channel != channelAllMids {
		return nil
	}
	var mids allMidsData
	if err := json.Unmarshal(env.Data, &mids); err != nil || mids.Mids == nil {
		return nil
	}

	ts := c.now().UnixMilli()
	var ticks []Tick
	for _, symbol := range c.Symbols() {
		raw, ok := mids.Mids[symbol]
		if !ok || raw == "" {
			continue
		}
		price, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}
		ticks = append(ticks, Tick{Coin: symbol, Price: price.InexactFloat64(), Timestamp: ts})
	}
	return ticks
}
