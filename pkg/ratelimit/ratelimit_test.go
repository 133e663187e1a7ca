package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlidingWindow(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	sw := NewSlidingWindow(2, time.Minute)

	assert.True(t, sw.AllowAt(base))
	assert.True(t, sw.AllowAt(base.Add(10*time.Second)))
	assert.False(t, sw.AllowAt(base.Add(20*time.Second)))
	assert.Equal(t, 0, sw.RemainingAt(base.Add(20*time.Second)))
	assert.Equal(t, base.Add(time.Minute), sw.ResetAt(base.Add(20*time.Second)))

	// 第一条滑出窗口
	assert.True(t, sw.AllowAt(base.Add(61*time.Second)))
	assert.False(t, sw.AllowAt(base.Add(62*time.Second)))
}

func TestKeyedLimiter(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	k := NewKeyed(1, time.Minute)
	k.now = func() time.Time { return now }

	ok, _ := k.Allow("1.1.1.1")
	assert.True(t, ok)
	ok, retry := k.Allow("1.1.1.1")
	assert.False(t, ok)
	assert.Equal(t, now.Add(time.Minute), retry)

	ok, _ = k.Allow("2.2.2.2")
	assert.True(t, ok)
	assert.Equal(t, 2, k.Len())

	// 窗口过后空闲 key 被清理
	now = now.Add(2 * time.Minute)
	ok, _ = k.Allow("3.3.3.3")
	assert.True(t, ok)
	assert.Equal(t, 1, k.Len())
}

func TestKeyedLimiter_Disabled(t *testing.T) {
	k := NewKeyed(0, time.Minute)
	for i := 0; i < 100; i++ {
		ok, _ := k.Allow("x")
		assert.True(t, ok)
	}
	assert.Zero(t, k.Len())
}
