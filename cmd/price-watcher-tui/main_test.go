package main

import (
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/hypiq/internal/frame"
	"github.com/betbot/hypiq/internal/pricestream"
	"github.com/betbot/hypiq/pkg/chart"
)

func TestSparkline(t *testing.T) {
	assert.Empty(t, sparkline(nil, 10))

	flat := []chart.ChartPoint{{Price: 1}, {Price: 1}, {Price: 1}}
	assert.Equal(t, "▁▁▁", sparkline(flat, 10))

	rising := make([]chart.ChartPoint, 120)
	for i := range rising {
		rising[i].Price = float64(i)
	}
	line := sparkline(rising, sparkWidth)
	assert.Equal(t, sparkWidth, utf8.RuneCountInString(line))
	runes := []rune(line)
	assert.Equal(t, '▁', runes[0])
	assert.Equal(t, '█', runes[len(runes)-1])
}

func TestModel_TickAndNavigate(t *testing.T) {
	hub := pricestream.NewHub([]string{"BTC", "ETH"}, pricestream.Options{Scheduler: frame.NewManualScheduler()})
	var m tea.Model = newModel(hub)

	m, _ = m.Update(tickMsg{})
	mm := m.(model)
	require.Len(t, mm.snaps, 2)
	assert.Contains(t, mm.View(), "等待价格")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 1, m.(model).selected)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 0, m.(model).selected)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 1, m.(model).selected)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
}
