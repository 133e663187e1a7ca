// Package hyperliquid 提供 Hyperliquid allMids 行情 WebSocket 客户端
package hyperliquid

import (
	"encoding/json"
	"strings"
)

// Tick 单个币种的中间价推送
type Tick struct {
	Coin      string  `json:"coin"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"` // 毫秒
}

// ConnState 连接状态
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// MarshalJSON 以字符串形式输出
func (s ConnState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// subscribeRequest 订阅请求
type subscribeRequest struct {
	Method       string       `json:"method"`
	Subscription subscription `json:"subscription"`
}

type subscription struct {
	Type string `json:"type"`
}

// pingRequest 应用层心跳（服务端回复 channel=pong）
type pingRequest struct {
	Method string `json:"method"`
}

// envelope 推送消息外层
type envelope struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// allMidsData allMids 频道数据
type allMidsData struct {
	Mids map[string]string `json:"mids"`
}

const channelAllMids = "allMids"

var coinSymbols = map[string]string{
	"bitcoin":     "BTC",
	"btc":         "BTC",
	"ethereum":    "ETH",
	"eth":         "ETH",
	"hyperliquid": "HYPE",
	"hype":        "HYPE",
	"solana":      "SOL",
	"sol":         "SOL",
	"bnb":         "BNB",
	"binance":     "BNB",
	"xrp":         "XRP",
	"doge":        "DOGE",
	"dogecoin":    "DOGE",
}

// CoinSymbol 把常见币种名映射到 Hyperliquid 交易符号，未知名称直接转大写
func CoinSymbol(name string) string {
	name = strings.TrimSpace(name)
	if sym, ok := coinSymbols[strings.ToLower(name)]; ok {
		return sym
	}
	return strings.ToUpper(name)
}
