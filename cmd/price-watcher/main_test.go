package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/betbot/hypiq/internal/pricestream"
	"github.com/betbot/hypiq/pkg/sdk/hyperliquid"
)

func TestFormatSnapshot(t *testing.T) {
	out := formatSnapshot(pricestream.Snapshot{Coin: "BTC", Connection: hyperliquid.StateConnecting})
	assert.Contains(t, out, "等待价格")
	assert.Contains(t, out, "connecting")

	out = formatSnapshot(pricestream.Snapshot{Coin: "ETH", Ready: true, Price: 3500.5, Target: 3501, Velocity: 1.5, Connection: hyperliquid.StateConnected})
	assert.Contains(t, out, "显示=3500.5000")
	assert.Contains(t, out, "速度=+1.5000")
	assert.Contains(t, out, "connected")
}
