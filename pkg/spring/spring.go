// Package spring turns a step-wise price signal into a smooth display trajectory
// with a critically damped harmonic oscillator integrated once per frame.
package spring

import "math"

const (
	// DefaultOmega is the natural frequency in rad/s.
	DefaultOmega = 6.0
	// DefaultZeta is the damping ratio; 1 means critically damped.
	DefaultZeta = 1.0
	// DefaultMaxDt caps a single integration step in seconds; larger frame
	// deltas are clamped to it.
	DefaultMaxDt = 0.05
)

// Params configures the oscillator.
type Params struct {
	Omega float64
	Zeta  float64
	MaxDt float64
}

// DefaultParams returns ω=6, ζ=1, dt<=0.05s.
func DefaultParams() Params {
	return Params{Omega: DefaultOmega, Zeta: DefaultZeta, MaxDt: DefaultMaxDt}
}

// State is the oscillator state. Value is what gets displayed.
type State struct {
	Value    float64 `json:"value"`
	Velocity float64 `json:"velocity"`
	Target   float64 `json:"target"`
}

// Spring owns a State. It is not safe for concurrent use: the caller serializes
// SetTarget and Step on one loop.
type Spring struct {
	params Params
	state  State
	seeded bool
}

// New returns a spring with DefaultParams.
func New() *Spring {
	return NewWithParams(DefaultParams())
}

// NewWithParams returns a spring with p; zero fields fall back to defaults.
func NewWithParams(p Params) *Spring {
	if p.Omega <= 0 {
		p.Omega = DefaultOmega
	}
	if p.Zeta <= 0 {
		p.Zeta = DefaultZeta
	}
	if p.MaxDt <= 0 {
		p.MaxDt = DefaultMaxDt
	}
	return &Spring{params: p}
}

// SetTarget records a new target price. The first call seeds Value to price
// with zero velocity; this is the only discontinuous assignment.
func (s *Spring) SetTarget(price float64) {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return
	}
	if !s.seeded {
		s.state = State{Value: price, Velocity: 0, Target: price}
		s.seeded = true
		return
	}
	s.state.Target = price
}

// Step advances the oscillator by dt seconds (clamped to [0, MaxDt]) and
// returns the new value. Before the first target it does nothing.
func (s *Spring) Step(dt float64) float64 {
	if !s.seeded {
		return 0
	}
	dt = s.clampDt(dt)
	if dt == 0 {
		return s.state.Value
	}

	w := s.params.Omega
	x := s.state.Value
	v := s.state.Velocity

	// x'' + 2ζω x' + ω²(x - target) = 0
	a := -2*s.params.Zeta*w*v - w*w*(x-s.state.Target)
	vNext := v + a*dt
	xNext := x + vNext*dt

	s.state.Velocity = vNext
	s.state.Value = xNext
	return xNext
}

func (s *Spring) clampDt(dt float64) float64 {
	if dt <= 0 || math.IsNaN(dt) {
		return 0
	}
	if dt > s.params.MaxDt {
		return s.params.MaxDt
	}
	return dt
}

// Value returns the smoothed value and whether it may be displayed.
func (s *Spring) Value() (float64, bool) {
	if !s.seeded {
		return 0, false
	}
	return s.state.Value, true
}

// Ready reports whether a target has been seen.
func (s *Spring) Ready() bool { return s.seeded }

// State returns a copy of the current state.
func (s *Spring) State() State { return s.state }

// Params returns the oscillator parameters.
func (s *Spring) Params() Params { return s.params }
