package market

import "strings"

// BetType 标题识别出的下注类型
type BetType struct {
	Key         string `json:"key"`
	Category    string `json:"category"`
	Subtype     string `json:"subtype"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	DataPoints  int    `json:"dataPoints"`
	Timeframe   string `json:"timeframe"`
	Timeline    string `json:"timeline"`
}

var betTypes = map[string]BetType{
	"bitcoin-daily-direction": {
		Category: "whale-crypto", Subtype: "daily-price-direction",
		DisplayName: "Bitcoin Daily Direction", Description: "Predict if Bitcoin will close green or red today",
		DataPoints: 120, Timeframe: "1h", Timeline: "daily",
	},
	"ethereum-price-target": {
		Category: "whale-crypto", Subtype: "price-target",
		DisplayName: "Ethereum Price Target", Description: "Will Ethereum hit a specific price target?",
		DataPoints: 120, Timeframe: "1h", Timeline: "daily",
	},
	"hype-weekly-high": {
		Category: "whale-crypto", Subtype: "weekly-high",
		DisplayName: "HYPE Weekly High", Description: "Will HYPE hit a new weekly high?",
		DataPoints: 168, Timeframe: "1h", Timeline: "weekly",
	},
	"hyperliquid-liquidation": {
		Category: "whale-position", Subtype: "liquidation-risk",
		DisplayName: "Whale Liquidation Risk", Description: "Will this whale position get liquidated?",
		DataPoints: 120, Timeframe: "1h", Timeline: "custom",
	},
	"bitcoin-dominance": {
		Category: "market-dominance", Subtype: "dominance-shift",
		DisplayName: "Bitcoin Dominance", Description: "Will Bitcoin dominance increase today?",
		DataPoints: 120, Timeframe: "1h", Timeline: "daily",
	},
	"institutional-bitcoin-sale": {
		Category: "institutional", Subtype: "holdings-change",
		DisplayName: "Institutional Bitcoin Sale", Description: "Will this institution sell Bitcoin this year?",
		DataPoints: 365, Timeframe: "1d", Timeline: "yearly",
	},
}

func betType(key string) BetType {
	bt := betTypes[key]
	bt.Key = key
	return bt
}

func containsAll(s string, words ...string) bool {
	for _, w := range words {
		if !strings.Contains(s, w) {
			return false
		}
	}
	return true
}

// DetectBetType 根据标题识别下注类型；非加密货币标题返回 false
func DetectBetType(title string) (BetType, bool) {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "bitcoin") && (strings.Contains(t, "green") || strings.Contains(t, "red")) && strings.Contains(t, "today"):
		return betType("bitcoin-daily-direction"), true
	case containsAll(t, "ethereum", "4000"):
		return betType("ethereum-price-target"), true
	case containsAll(t, "hype", "weekly high"):
		return betType("hype-weekly-high"), true
	case containsAll(t, "hyperliquid", "liquidated"):
		return betType("hyperliquid-liquidation"), true
	case containsAll(t, "bitcoin", "dominance"):
		return betType("bitcoin-dominance"), true
	case containsAll(t, "strategy", "bitcoin"):
		return betType("institutional-bitcoin-sale"), true
	case strings.Contains(t, "bitcoin") || strings.Contains(t, "btc") ||
		strings.Contains(t, "ethereum") || strings.Contains(t, "eth"):
		return betType("bitcoin-daily-direction"), true
	}
	return BetType{}, false
}

// DefaultRules 无法匹配时的通用规则
const DefaultRules = `This market will resolve based on objective, verifiable data sources. Resolution will occur within 24 hours of the specified event or deadline. Disputes will be resolved by consulting multiple reliable data sources and following standard market resolution procedures.`

type ruleTemplate struct {
	match func(t string) bool
	text  string
}

var ruleTemplates = []ruleTemplate{
	{
		match: func(t string) bool {
			return strings.Contains(t, "bitcoin") && (strings.Contains(t, "green") || strings.Contains(t, "red"))
		},
		text: `This market will resolve to "Green" if Bitcoin (BTC/USDT) closes higher than its opening price on the day specified, based on the Binance 1-day candle closing price in UTC timezone. The market will resolve to "Red" if Bitcoin closes lower than its opening price. Resolution will occur within 1 hour of the daily candle close.`,
	},
	{
		match: func(t string) bool { return containsAll(t, "ethereum", "4000") },
		text:  `This market will resolve to "Yes" if Ethereum (ETH/USDT) trades at or above $4,000 at any point during the specified day, based on Binance spot price data. The market will resolve to "No" if Ethereum fails to reach $4,000 during the specified timeframe. Resolution occurs at 11:59 PM UTC on the specified date.`,
	},
	{
		match: func(t string) bool { return containsAll(t, "bnb", "600") },
		text:  `This market will resolve to "Yes" if Binance Coin (BNB/USDT) reaches or exceeds $600 at any point during the specified day, based on Binance spot price data. The market will resolve to "No" if BNB fails to reach $600 during the timeframe. Resolution occurs at 11:59 PM UTC on the specified date.`,
	},
	{
		match: func(t string) bool { return containsAll(t, "hype", "weekly high") },
		text:  `This market will resolve to "Yes" if HYPE token reaches a new 7-day high before the weekend (Saturday 12:00 AM UTC). The weekly high is calculated from the previous Saturday 12:00 AM UTC. Price data will be sourced from the primary DEX with highest liquidity. Resolution occurs on Saturday 12:00 AM UTC.`,
	},
	{
		match: func(t string) bool { return containsAll(t, "bitcoin", "dominance") },
		text:  `This market will resolve to "Yes" if Bitcoin's market capitalization dominance increases from the previous day's close, based on CoinMarketCap data. Bitcoin dominance is calculated as Bitcoin's market cap divided by total cryptocurrency market cap. Resolution occurs at 12:00 AM UTC using the daily snapshot.`,
	},
	{
		match: func(t string) bool { return containsAll(t, "hyperliquid", "liquidated") },
		text:  `This market will resolve to "Yes" if the specified Hyperliquid whale position gets liquidated during the specified timeframe. Liquidation data will be verified through Hyperliquid's public API and on-chain transaction data. The market resolves to "No" if the position remains active or is closed voluntarily.`,
	},
	{
		match: func(t string) bool { return containsAll(t, "hype", "100") },
		text:  `This market will resolve to "Yes" if HYPE token reaches or exceeds $100 at any point before December 31, 2024, 11:59 PM UTC. Price data will be sourced from the primary DEX with highest liquidity for HYPE trading. The market will resolve to "No" if HYPE fails to reach $100 by the deadline.`,
	},
	{
		match: func(t string) bool { return containsAll(t, "solana", "ethereum", "soleth") },
		text:  `This market will resolve to "Yes" if the SOL/ETH trading pair closes higher at year-end compared to its opening price on January 1st. Price data will be sourced from major DEXs and CEXs with SOL/ETH pairs. Resolution occurs on December 31st, 11:59 PM UTC using the closing price of the SOL/ETH pair.`,
	},
	{
		match: func(t string) bool { return containsAll(t, "strategy", "bitcoin") },
		text:  `This market will resolve to "Yes" if Strategy (the specified institution) sells any portion of their Bitcoin holdings during the specified year, as verified through public disclosures, SEC filings, or confirmed on-chain transactions. The market resolves to "No" if no Bitcoin sales are detected or disclosed by the deadline.`,
	},
}

// GenerateRules 按标题关键字生成结算规则，按顺序取第一个匹配
func GenerateRules(title string) string {
	t := strings.ToLower(title)
	for _, r := range ruleTemplates {
		if r.match(t) {
			return r.text
		}
	}
	return DefaultRules
}
