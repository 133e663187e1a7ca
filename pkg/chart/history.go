package chart

import "math"

const (
	// HistoryCapacity is the number of key ticks retained for interpolation.
	HistoryCapacity = 100
	// appendInterval is the minimum spacing for a new key point, in ms.
	appendInterval int64 = 3000
	// appendPriceDelta forces a new key point regardless of spacing.
	appendPriceDelta = 1.0
	// replacePriceDelta is the smallest move that refreshes the last key point.
	replacePriceDelta = 0.01
)

// PriceTick is a single price update from the feed.
type PriceTick struct {
	Coin      string  `json:"coin"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"` // unix ms
}

// History is an insertion-ordered, bounded buffer of key ticks (oldest first).
// Not safe for concurrent use.
type History struct {
	capacity int
	ticks    []PriceTick
}

// NewHistory returns an empty history with HistoryCapacity.
func NewHistory() *History {
	return NewHistoryWithCapacity(HistoryCapacity)
}

// NewHistoryWithCapacity returns an empty history holding at most capacity ticks.
func NewHistoryWithCapacity(capacity int) *History {
	if capacity <= 0 {
		capacity = HistoryCapacity
	}
	return &History{capacity: capacity, ticks: make([]PriceTick, 0, capacity)}
}

// Observe applies the key-point rule to t:
//   - append when at least 3s passed since the last key point or the price
//     moved by more than 1;
//   - otherwise replace the last key point when the price moved by more than 0.01;
//   - otherwise drop it.
//
// It reports whether the buffer changed.
func (h *History) Observe(t PriceTick) bool {
	if len(h.ticks) == 0 {
		h.push(t)
		return true
	}
	last := h.ticks[len(h.ticks)-1]
	diff := math.Abs(t.Price - last.Price)
	if t.Timestamp-last.Timestamp >= appendInterval || diff > appendPriceDelta {
		h.push(t)
		return true
	}
	if diff > replacePriceDelta {
		h.ticks[len(h.ticks)-1] = t
		return true
	}
	return false
}

func (h *History) push(t PriceTick) {
	if len(h.ticks) == h.capacity {
		copy(h.ticks, h.ticks[1:])
		h.ticks = h.ticks[:len(h.ticks)-1]
	}
	h.ticks = append(h.ticks, t)
}

// Len returns the number of retained ticks.
func (h *History) Len() int { return len(h.ticks) }

// Last returns the newest tick.
func (h *History) Last() (PriceTick, bool) {
	if len(h.ticks) == 0 {
		return PriceTick{}, false
	}
	return h.ticks[len(h.ticks)-1], true
}

// Ticks returns a copy of the retained ticks, oldest first.
func (h *History) Ticks() []PriceTick {
	out := make([]PriceTick, len(h.ticks))
	copy(out, h.ticks)
	return out
}
