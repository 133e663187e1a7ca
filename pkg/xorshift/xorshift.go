// Package xorshift implements the seeded xorshift32 generator used for every
// cosmetic variation in charts and mock widgets.
//
// The sequence is part of the rendering contract: the same seed must produce
// the same numbers on every host so server-side and client-side renders agree.
package xorshift

// Seeds used by the chart widgets. Each call site owns a fixed constant.
const (
	SeedFeaturedCard uint32 = 0x9e3779b1
	SeedHeatmap      uint32 = 0x12345678
	SeedFeatureBet   uint32 = 42
)

// fallbackSeed replaces a zero seed; xorshift never leaves the all-zero state.
const fallbackSeed uint32 = SeedFeaturedCard

// Rand is a xorshift32 generator. The zero value is not usable, use New.
// Not safe for concurrent use.
type Rand struct {
	state uint32
}

// New returns a generator seeded with seed.
func New(seed uint32) *Rand {
	if seed == 0 {
		seed = fallbackSeed
	}
	return &Rand{state: seed}
}

// Next advances the generator and returns the raw 32-bit state.
func (r *Rand) Next() uint32 {
	s := r.state
	s ^= s << 13
	s ^= s >> 17
	s ^= s << 5
	r.state = s
	return s
}

// Float returns a value in [0,1) as state / 2^32.
func (r *Rand) Float() float64 {
	return float64(r.Next()) / 4294967296.0
}

// Millionths returns a value in [0,1) as (state % 1_000_000) / 1_000_000,
// the mapping used by the featured card and heatmap widgets.
func (r *Rand) Millionths() float64 {
	return float64(r.Next()%1_000_000) / 1_000_000
}

// Centered returns Millionths() - 0.5, i.e. a value in [-0.5, 0.5).
func (r *Rand) Centered() float64 {
	return r.Millionths() - 0.5
}
