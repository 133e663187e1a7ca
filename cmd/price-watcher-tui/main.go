package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/betbot/hypiq/internal/pricestream"
	"github.com/betbot/hypiq/pkg/chart"
	"github.com/betbot/hypiq/pkg/config"
	"github.com/betbot/hypiq/pkg/logger"
	"github.com/betbot/hypiq/pkg/sdk/hyperliquid"
)

const (
	refreshInterval = 100 * time.Millisecond
	sparkWidth      = 60
)

var (
	// 样式定义
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	upStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("2")) // 绿色

	downStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")) // 红色

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)

type tickMsg time.Time

// model 是应用程序的状态
type model struct {
	hub      *pricestream.Hub
	selected int
	snaps    []pricestream.Snapshot
	prev     map[string]float64
}

func newModel(hub *pricestream.Hub) model {
	return model{hub: hub, prev: map[string]float64{}}
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h", "shift+tab":
			if n := len(m.hub.Coins()); n > 0 {
				m.selected = (m.selected - 1 + n) % n
			}
		case "right", "l", "tab":
			if n := len(m.hub.Coins()); n > 0 {
				m.selected = (m.selected + 1) % n
			}
		}
		return m, nil
	case tickMsg:
		for _, s := range m.snaps {
			m.prev[s.Coin] = s.Price
		}
		m.snaps = m.snaps[:0]
		for _, coin := range m.hub.Coins() {
			snap, _ := m.hub.Snapshot(coin)
			m.snaps = append(m.snaps, snap)
		}
		return m, tickCmd()
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("🐋 HYPIQ 实时价格"))
	b.WriteString("\n\n")

	if len(m.snaps) == 0 {
		b.WriteString("正在连接...\n\n按 q 退出")
		return b.String()
	}

	for i, s := range m.snaps {
		line := fmt.Sprintf("%-5s %s  %s", s.Coin, m.priceText(s), dimStyle.Render(connText(s.Connection)))
		if i == m.selected {
			line = titleStyle.Render("▶ ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	if m.selected < len(m.snaps) {
		s := m.snaps[m.selected]
		body := fmt.Sprintf("%s  目标 %.4f  速度 %+.4f  帧 %d\n%s",
			titleStyle.Render(s.Coin), s.Target, s.Velocity, s.Frames, sparkline(s.Chart, sparkWidth))
		b.WriteString("\n" + borderStyle.Render(body) + "\n")
	}

	b.WriteString(dimStyle.Render("\n←/→ 切换币种 · q 退出"))
	return b.String()
}

func (m model) priceText(s pricestream.Snapshot) string {
	if !s.Ready {
		return dimStyle.Render("等待价格...")
	}
	text := fmt.Sprintf("%14.4f", s.Price)
	prev, ok := m.prev[s.Coin]
	switch {
	case !ok || prev == s.Price:
		return text
	case s.Price > prev:
		return upStyle.Render(text)
	default:
		return downStyle.Render(text)
	}
}

func connText(state hyperliquid.ConnState) string {
	switch state {
	case hyperliquid.StateConnected:
		return "● 已连接"
	case hyperliquid.StateConnecting:
		return "◌ 连接中"
	default:
		return "○ 已断开"
	}
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// sparkline 把图表点按宽度降采样为一行字符
func sparkline(points []chart.ChartPoint, width int) string {
	if len(points) == 0 || width <= 0 {
		return ""
	}
	if width > len(points) {
		width = len(points)
	}
	lo, hi := points[0].Price, points[0].Price
	for _, p := range points {
		if p.Price < lo {
			lo = p.Price
		}
		if p.Price > hi {
			hi = p.Price
		}
	}
	out := make([]rune, width)
	for i := 0; i < width; i++ {
		p := points[i*(len(points)-1)/max(width-1, 1)]
		idx := 0
		if hi > lo {
			idx = int((p.Price - lo) / (hi - lo) * float64(len(sparkRunes)-1))
		}
		out[i] = sparkRunes[idx]
	}
	return string(out)
}

// Commands

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("HYPIQ_CONFIG"), "config file (yaml/json), optional")
	flag.Parse()

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}

	// 日志只写文件，避免干扰 TUI
	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		OutputFile: "logs/price-watcher-tui.log",
		MaxSize:    20,
		MaxBackups: 2,
		MaxAge:     3,
		Quiet:      true,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := pricestream.NewHub(cfg.Feed.Coins, pricestream.OptionsFromConfig(cfg.Feed, nil))
	go func() { _ = hub.Run(ctx) }()

	feed := pricestream.NewFeed(cfg.Feed, hub)
	if err := feed.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "启动行情失败: %v\n", err)
		os.Exit(1)
	}
	defer feed.Stop()

	p := tea.NewProgram(newModel(hub), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "运行程序失败: %v\n", err)
		os.Exit(1)
	}
}
