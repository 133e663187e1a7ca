package wallet

import (
	"math"

	"github.com/shopspring/decimal"
)

// DefaultMaxBetPct Kelly 下注比例上限
const DefaultMaxBetPct = 0.05

// Payout 潜在赔付 = amount * odds
func Payout(amount, odds decimal.Decimal) decimal.Decimal {
	return amount.Mul(odds)
}

// Profit 潜在利润 = payout - amount
func Profit(amount, odds decimal.Decimal) decimal.Decimal {
	return Payout(amount, odds).Sub(amount)
}

// ImpliedProbability 隐含概率（百分比）
func ImpliedProbability(odds float64) float64 {
	if odds <= 0 {
		return 0
	}
	return (1 / odds) * 100
}

// KellyFraction f = (b·p - q) / b，b = odds-1，结果限制在 [0, maxBetPct]
func KellyFraction(odds, winProbability, maxBetPct float64) float64 {
	b := odds - 1
	if b <= 0 || math.IsNaN(winProbability) {
		return 0
	}
	p := winProbability
	q := 1 - p
	f := (b*p - q) / b
	return math.Max(0, math.Min(f, maxBetPct))
}

// OptimalBetSize 按 Kelly 比例计算建议下注额（保留 2 位小数）
func OptimalBetSize(bankroll decimal.Decimal, odds, winProbability, maxBetPct float64) decimal.Decimal {
	f := KellyFraction(odds, winProbability, maxBetPct)
	return bankroll.Mul(decimal.NewFromFloat(f)).Round(2)
}
