// Package chart synthesizes fixed-length price series for chart widgets from a
// sparse tick history and the live smoothed price.
package chart

import "math"

const (
	// Points is the number of points in a synthesized series.
	Points = 120
	// StepMs is the spacing between points.
	StepMs int64 = 500
	// WindowMs is the trailing window covered by a series.
	WindowMs int64 = 60_000
)

// ChartPoint is one point of a synthesized series.
type ChartPoint struct {
	Index       int     `json:"index"`
	Price       float64 `json:"price"`
	TimestampMs int64   `json:"timestampMs"`
}

// Synthesize returns exactly Points points spaced StepMs apart ending at nowMs.
//
// With fewer than two ticks the series is a fixed sine/cosine wobble around
// display. Otherwise every timestamp is interpolated between its bracketing
// ticks with a smoothstep ease; timestamps outside the history hold the edge
// value. The last point always equals display exactly.
func Synthesize(history []PriceTick, display float64, nowMs int64) []ChartPoint {
	points := make([]ChartPoint, Points)
	start := nowMs - int64(Points-1)*StepMs

	for i := range points {
		ts := start + int64(i)*StepMs
		var price float64
		if len(history) < 2 {
			price = display + idleVariation(i)
		} else {
			price = interpolate(history, ts)
		}
		points[i] = ChartPoint{Index: i, Price: price, TimestampMs: ts}
	}

	points[Points-1].Price = display
	return points
}

// idleVariation is placeholder movement for an empty chart.
func idleVariation(i int) float64 {
	return math.Sin(float64(i)/20)*15 + math.Cos(float64(i)/30)*10
}

// interpolate expects len(history) >= 2.
func interpolate(history []PriceTick, ts int64) float64 {
	first := history[0]
	last := history[len(history)-1]
	if ts <= first.Timestamp {
		return first.Price
	}
	if ts >= last.Timestamp {
		return last.Price
	}

	for j := 0; j < len(history)-1; j++ {
		a, b := history[j], history[j+1]
		if ts < a.Timestamp || ts > b.Timestamp {
			continue
		}
		if b.Timestamp == a.Timestamp {
			return b.Price
		}
		p := float64(ts-a.Timestamp) / float64(b.Timestamp-a.Timestamp)
		return a.Price + (b.Price-a.Price)*Smoothstep(p)
	}
	// out-of-order history; hold the newest value
	return last.Price
}

// Smoothstep returns 3p²-2p³ for p clamped to [0,1].
func Smoothstep(p float64) float64 {
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return 1
	}
	return p * p * (3 - 2*p)
}
