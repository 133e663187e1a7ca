package market

import (
	"github.com/betbot/hypiq/pkg/chart"
	"github.com/betbot/hypiq/pkg/xorshift"
)

// HeatCategories 热力图的币种，顺序决定随机序列的分配
var HeatCategories = []chart.HeatCategory{
	{Key: "bitcoin", Label: "Bitcoin"},
	{Key: "ethereum", Label: "Ethereum"},
	{Key: "xrp", Label: "XRP"},
	{Key: "bnb", Label: "BNB"},
	{Key: "solana", Label: "SOLANA"},
	{Key: "doge", Label: "DOGE"},
	{Key: "hype", Label: "HYPE"},
}

// Heatmap 首页热力图
func Heatmap() []chart.HeatCell {
	return chart.Heatmap(HeatCategories, xorshift.SeedHeatmap)
}

// Outcomes 巨鲸盈亏概率走势（各持仓周期）
func Outcomes() []chart.OutcomePoint {
	return chart.OutcomeSeries(xorshift.SeedFeatureBet)
}
