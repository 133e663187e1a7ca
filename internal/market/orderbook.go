package market

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/betbot/hypiq/pkg/chart"
	"github.com/betbot/hypiq/pkg/xorshift"
)

// ProbabilityPoints 每个市场概率图的点数
const ProbabilityPoints = 50

// BookLevel 盘口档位，价格单位为美分（1-99）
type BookLevel struct {
	Price     int             `json:"price"`
	Contracts int             `json:"contracts"`
	Total     decimal.Decimal `json:"total"`
}

// LastTrade 最近成交
type LastTrade struct {
	Price     int    `json:"price"`
	Direction string `json:"direction"`
}

// OrderBook 模拟盘口
type OrderBook struct {
	Asks      []BookLevel `json:"asks"`
	Bids      []BookLevel `json:"bids"`
	LastTrade *LastTrade  `json:"lastTrade,omitempty"`
}

func level(price, contracts int, total string) BookLevel {
	return BookLevel{Price: price, Contracts: contracts, Total: decimal.RequireFromString(total)}
}

// MockOrderBook 固定的演示盘口
func MockOrderBook() OrderBook {
	return OrderBook{
		Asks: []BookLevel{
			level(28, 382, "770.05"),
			level(27, 2087, "663.09"),
			level(26, 12, "99.60"),
			level(24, 402, "96.48"),
		},
		Bids: []BookLevel{
			level(23, 324, "74.52"),
			level(22, 505, "185.62"),
			level(21, 1336, "466.18"),
			level(20, 308, "527.78"),
		},
		LastTrade: &LastTrade{Price: 24, Direction: "up"},
	}
}

// ProbabilityChart 两个选项的概率走势，种子固定为精选卡片的常量
func ProbabilityChart(m Market) []chart.ProbabilityPoint {
	var first, second float64 = 50, 50
	if len(m.Options) > 0 {
		first = float64(m.Options[0].Percent)
	}
	if len(m.Options) > 1 {
		second = float64(m.Options[1].Percent)
	}
	return chart.ProbabilitySeries(first, second, ProbabilityPoints, xorshift.SeedFeaturedCard)
}

// Detail 市场详情页数据
type Detail struct {
	Market      Market                   `json:"market"`
	Coin        string                   `json:"coin"`
	BetType     *BetType                 `json:"betType,omitempty"`
	Rules       string                   `json:"rules"`
	Timeline    Timeline                 `json:"timeline"`
	OrderBook   OrderBook                `json:"orderBook"`
	Probability []chart.ProbabilityPoint `json:"probability"`
	Outcomes    []chart.OutcomePoint     `json:"outcomes"`
}

// BuildDetail 组装市场详情
func BuildDetail(m Market, now time.Time) Detail {
	d := Detail{
		Market:      m,
		Coin:        CoinForTitle(m.Title),
		Rules:       GenerateRules(m.Title),
		Timeline:    InferTimeline(m.Title, now),
		OrderBook:   MockOrderBook(),
		Probability: ProbabilityChart(m),
		Outcomes:    Outcomes(),
	}
	if bt, ok := DetectBetType(m.Title); ok {
		d.BetType = &bt
	}
	return d
}
