package chart

import (
	"math"
	"strconv"

	"github.com/betbot/hypiq/pkg/xorshift"
)

// ProbabilityPoint is one sample of a two-outcome probability chart.
type ProbabilityPoint struct {
	Index  int     `json:"index"`
	Label  string  `json:"label"`
	Profit float64 `json:"profit"`
	Loss   float64 `json:"loss"`
}

// convergenceLabels are the x-axis labels of the featured card, one per 10 points.
var convergenceLabels = []string{"3:26am", "4:58am", "6:31am", "8:04am", "2:36pm"}

// ProbabilitySeries produces n points that start noisy and converge on the
// profit/loss odds (percent). Values are clamped to [5,95]. The same seed
// always yields the same series.
func ProbabilitySeries(profitTarget, lossTarget float64, n int, seed uint32) []ProbabilityPoint {
	if n <= 0 {
		return nil
	}
	rng := xorshift.New(seed)
	out := make([]ProbabilityPoint, n)
	for i := 0; i < n; i++ {
		progress := float64(i) / float64(n)
		convergence := math.Pow(progress, 1.5)

		startProfit := profitTarget + rng.Centered()*20
		startLoss := lossTarget + rng.Centered()*20

		moveProfit := math.Sin(progress*math.Pi*3) * 8 * (1 - convergence)
		moveLoss := math.Cos(progress*math.Pi*2.5) * 8 * (1 - convergence)

		noiseProfit := rng.Centered() * 6 * (1 - convergence*0.8)
		noiseLoss := rng.Centered() * 6 * (1 - convergence*0.8)

		profit := startProfit*(1-convergence) + profitTarget*convergence + moveProfit + noiseProfit
		loss := startLoss*(1-convergence) + lossTarget*convergence + moveLoss + noiseLoss

		out[i] = ProbabilityPoint{
			Index:  i,
			Label:  labelFor(i),
			Profit: clamp(profit, 5, 95),
			Loss:   clamp(loss, 5, 95),
		}
	}
	return out
}

func labelFor(i int) string {
	if k := i / 10; k < len(convergenceLabels) {
		return convergenceLabels[k]
	}
	return strconv.Itoa(i) + "h"
}

// outcomeHorizons are the x-axis labels of the whale outcome chart.
var outcomeHorizons = []string{"1h", "6h", "12h", "24h", "48h", "72h", "1w"}

// OutcomePoint is one horizon of the whale outcome chart, in whole percent.
type OutcomePoint struct {
	Time   string `json:"time"`
	Profit int    `json:"profit"`
	Loss   int    `json:"loss"`
}

// OutcomeSeries draws profit in [35,65] and loss in [25,50] for each horizon.
// It uses the full-range Float mapping, not Millionths.
func OutcomeSeries(seed uint32) []OutcomePoint {
	rng := xorshift.New(seed)
	out := make([]OutcomePoint, len(outcomeHorizons))
	for i, h := range outcomeHorizons {
		profit := math.Round(35 + rng.Float()*30)
		loss := math.Round(25 + rng.Float()*25)
		out[i] = OutcomePoint{Time: h, Profit: int(profit), Loss: int(loss)}
	}
	return out
}

// HeatCell is one tile of the category heatmap.
type HeatCell struct {
	Key       string    `json:"key"`
	Label     string    `json:"label"`
	Intensity float64   `json:"intensity"`
	Series    []float64 `json:"series"`
}

// HeatCategory names a heatmap tile.
type HeatCategory struct {
	Key   string
	Label string
}

// heatSeriesLen is the number of samples in each tile's mini trend.
const heatSeriesLen = 16

// Heatmap builds one tile per category from a single seeded generator, so tile
// order matters. Intensity is the last sample, in [0,100].
func Heatmap(categories []HeatCategory, seed uint32) []HeatCell {
	rng := xorshift.New(seed)
	out := make([]HeatCell, 0, len(categories))
	for idx, c := range categories {
		base := 30 + float64((idx*11)%50)
		values := make([]float64, heatSeriesLen)
		for i := range values {
			v := base + math.Sin(float64(i)/2+float64(idx))*15 + (rng.Millionths()*12 - 6)
			values[i] = clamp(v, 0, 100)
		}
		out = append(out, HeatCell{
			Key:       c.Key,
			Label:     c.Label,
			Intensity: values[len(values)-1],
			Series:    values,
		})
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
