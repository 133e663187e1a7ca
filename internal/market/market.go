// Package market 鲸鱼预测市场目录：静态市场、slug、时间线、规则文案与模拟盘口
package market

import (
	"regexp"
	"strings"
)

// Option 市场选项及其当前概率（百分比）
type Option struct {
	Name    string `json:"name"`
	Percent int    `json:"percent"`
}

// Market 预测市场
type Market struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Slug     string   `json:"slug"`
	Options  []Option `json:"options"`
	Volume   int64    `json:"volume"`
	ImageURL string   `json:"imageUrl,omitempty"`
}

func newMarket(id, title string, volume int64, image string, options ...Option) Market {
	return Market{ID: id, Title: title, Slug: Slugify(title), Options: options, Volume: volume, ImageURL: image}
}

var whaleMarkets = []Market{
	newMarket("w1", "Whale BITCOIN LONG 10M$ will profit or will lose?", 10500000, "/coin-logos/bitcoin.png",
		Option{"Will Profit", 67}, Option{"Will Lose", 33}),
	newMarket("w2", "Whale ETH SHORT 10M$ will profit or will lose?", 8750000, "/coin-logos/ethereum.png",
		Option{"Will Profit", 43}, Option{"Will Lose", 57}),
	newMarket("w3", "Whale HYPE LONG 7M$ will profit or will lose?", 4200000, "/coin-logos/hype.png",
		Option{"Will Profit", 58}, Option{"Will Lose", 42}),
	newMarket("w4", "Will BNB break above $600 today?", 980345, "/coin-logos/bnb.png",
		Option{"Yes", 44}, Option{"No", 56}),
	newMarket("w5", "Will Bitcoin's dominance increase today?", 2567890, "/coin-logos/bitcoin.png",
		Option{"Yes", 61}, Option{"No", 39}),
	newMarket("w6", "Does Hyperliquid Whale on short will be liquidated?", 302340, "/coin-logos/hype.png",
		Option{"Yes", 67}, Option{"No", 33}),
	newMarket("w7", "Will HYPE will hit 100$ by end of year?", 150234, "/coin-logos/hype.png",
		Option{"Yes", 22}, Option{"No", 78}),
	newMarket("w8", "Will Solana close this year in green or red against Ethereum (SOLETH)?", 843210, "/coin-logos/solana.png",
		Option{"Yes", 18}, Option{"No", 82}),
	newMarket("w9", "Will STRATEGY sell any BITCOIN this year?", 423890, "/coin-logos/bitcoin.png",
		Option{"Yes", 29}, Option{"No", 71}),
}

// All 返回全部市场（拷贝）
func All() []Market {
	out := make([]Market, len(whaleMarkets))
	copy(out, whaleMarkets)
	return out
}

// FindBySlug 按 slug 查找市场
func FindBySlug(slug string) (Market, bool) {
	for _, m := range whaleMarkets {
		if m.Slug == slug {
			return m, true
		}
	}
	return Market{}, false
}

// FindByID 按 id 查找市场
func FindByID(id string) (Market, bool) {
	for _, m := range whaleMarkets {
		if m.ID == id {
			return m, true
		}
	}
	return Market{}, false
}

var (
	slugStrip  = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces = regexp.MustCompile(`\s+`)
	slugDashes = regexp.MustCompile(`-+`)
)

// Slugify 生成 URL slug
func Slugify(input string) string {
	s := strings.ToLower(input)
	s = strings.ReplaceAll(s, "&", " and ")
	s = slugStrip.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = slugSpaces.ReplaceAllString(s, "-")
	return slugDashes.ReplaceAllString(s, "-")
}

// CoinForTitle 标题对应的行情币种，默认 BTC
func CoinForTitle(title string) string {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "bitcoin") || strings.Contains(t, "btc"):
		return "BTC"
	case strings.Contains(t, "ethereum") || strings.Contains(t, "eth"):
		return "ETH"
	case strings.Contains(t, "hyperliquid") || strings.Contains(t, "hype"):
		return "HYPE"
	default:
		return "BTC"
	}
}
