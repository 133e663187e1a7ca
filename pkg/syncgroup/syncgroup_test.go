package syncgroup

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncGroup_RunAndWait(t *testing.T) {
	g := NewSyncGroup()
	var n atomic.Int32
	for i := 0; i < 5; i++ {
		g.Add("worker", func() { n.Add(1) })
	}
	g.Add("nil", nil)
	g.Run()
	g.Wait()
	assert.EqualValues(t, 5, n.Load())

	// 再次 Run 不会重复启动
	g.Run()
	g.Wait()
	assert.EqualValues(t, 5, n.Load())
}

func TestSyncGroup_RecoversPanic(t *testing.T) {
	g := NewSyncGroup()
	done := false
	g.Go("boom", func() { panic("loop crashed") })
	g.Go("ok", func() { done = true })
	g.Wait()
	assert.True(t, done)
	assert.EqualValues(t, 1, g.Panics())
}
