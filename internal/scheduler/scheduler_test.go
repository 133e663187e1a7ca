package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/hypiq/pkg/config"
)

type fakeCounter struct {
	calls atomic.Int32
	err   error
}

func (f *fakeCounter) Count(ctx context.Context) (int64, error) {
	f.calls.Add(1)
	return 7, f.err
}

type fakeFlusher struct{ calls atomic.Int32 }

func (f *fakeFlusher) Flush() error {
	f.calls.Add(1)
	return nil
}

func TestRegisterAll(t *testing.T) {
	s := New(context.Background(), &fakeCounter{}, &fakeFlusher{})
	require.NoError(t, s.RegisterAll(config.SchedulerConfig{WaitlistCountSpec: "@every 1m", WalletFlushSpec: "@every 30s"}))
	assert.Equal(t, 2, s.Jobs())
}

func TestRegisterAll_SkipsMissingTargets(t *testing.T) {
	s := New(context.Background(), nil, &fakeFlusher{})
	require.NoError(t, s.RegisterAll(config.SchedulerConfig{WaitlistCountSpec: "@every 1m", WalletFlushSpec: ""}))
	assert.Zero(t, s.Jobs())
}

func TestRegisterAll_BadSpec(t *testing.T) {
	s := New(context.Background(), &fakeCounter{}, nil)
	err := s.RegisterAll(config.SchedulerConfig{WaitlistCountSpec: "every minute please"})
	assert.Error(t, err)
}

func TestJobsRun(t *testing.T) {
	counter := &fakeCounter{err: errors.New("db down")}
	flusher := &fakeFlusher{}
	s := New(context.Background(), counter, flusher)

	s.RefreshWaitlistCount()
	s.FlushWallet()
	assert.EqualValues(t, 1, counter.calls.Load())
	assert.EqualValues(t, 1, flusher.calls.Load())
}

func TestStartStop(t *testing.T) {
	flusher := &fakeFlusher{}
	s := New(context.Background(), nil, flusher)
	require.NoError(t, s.RegisterAll(config.SchedulerConfig{WalletFlushSpec: "@every 1s"}))
	s.Start()

	require.Eventually(t, func() bool { return flusher.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
