// Package wallet 模拟钱包：连接状态、余额、下注仓位，状态经 persistence 落盘
package wallet

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/betbot/hypiq/internal/metrics"
	"github.com/betbot/hypiq/pkg/persistence"
)

// MockAddress 未提供地址时使用的演示地址
const MockAddress = "0x742d35Cc6Ba1f23e8976543dcF1234567890abcd"

// DefaultStartingBalance 演示初始余额
var DefaultStartingBalance = decimal.RequireFromString("382.35")

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAddress      = errors.New("invalid wallet address")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidOdds         = errors.New("odds must be greater than 1")
	ErrInvalidSide         = errors.New("side must be profit or loss")
)

// Side 下注方向
type Side string

const (
	SideProfit Side = "profit"
	SideLoss   Side = "loss"
)

// Valid 是否为合法方向
func (s Side) Valid() bool {
	return s == SideProfit || s == SideLoss
}

// Status 仓位状态
type Status string

const (
	StatusActive Status = "active"
	StatusWon    Status = "won"
	StatusLost   Status = "lost"
)

// Position 下注仓位
type Position struct {
	ID              string          `json:"id"`
	MarketID        string          `json:"marketId"`
	MarketTitle     string          `json:"marketTitle"`
	Side            Side            `json:"side"`
	Amount          decimal.Decimal `json:"amount"`
	Odds            decimal.Decimal `json:"odds"`
	PotentialPayout decimal.Decimal `json:"potentialPayout"`
	Timestamp       time.Time       `json:"timestamp"`
	Status          Status          `json:"status"`
	CurrentPnl      decimal.Decimal `json:"currentPnl"`
}

// State 钱包状态
type State struct {
	Connected bool            `json:"isConnected"`
	Address   string          `json:"address,omitempty"`
	Balance   decimal.Decimal `json:"balance"`
	Positions []Position      `json:"positions"` // 最新在前
}

func (s State) clone() State {
	out := s
	out.Positions = make([]Position, len(s.Positions))
	copy(out.Positions, s.Positions)
	return out
}

// BetRequest 下注请求
type BetRequest struct {
	MarketID    string          `json:"marketId"`
	MarketTitle string          `json:"marketTitle"`
	Side        Side            `json:"side"`
	Amount      decimal.Decimal `json:"amount"`
	Odds        decimal.Decimal `json:"odds"`
}

// Wallet 钱包应用状态；所有修改都会尝试立即保存，失败时由 Flush 重试
type Wallet struct {
	mu    sync.RWMutex
	state State
	dirty bool

	store persistence.Store
	now   func() time.Time
	newID func() string
	log   *logrus.Entry
}

// New 创建钱包；store 可为 nil（不持久化）
func New(store persistence.Store, startingBalance decimal.Decimal) *Wallet {
	return &Wallet{
		state: State{Balance: startingBalance, Positions: []Position{}},
		store: store,
		now:   time.Now,
		newID: func() string { return "pos_" + uuid.NewString() },
		log:   logrus.WithField("component", "wallet"),
	}
}

// Load 从存储恢复；没有存档时保留初始状态
func (w *Wallet) Load() error {
	if w.store == nil {
		return nil
	}
	var st State
	if err := w.store.Load(&st); err != nil {
		if errors.Is(err, persistence.ErrNotExists) {
			return nil
		}
		return fmt.Errorf("load wallet: %w", err)
	}
	if st.Positions == nil {
		st.Positions = []Position{}
	}
	w.mu.Lock()
	w.state = st
	w.dirty = false
	w.mu.Unlock()
	metrics.WalletLoads.Add(1)
	return nil
}

// State 当前状态的拷贝
func (w *Wallet) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state.clone()
}

// Balance 当前余额
func (w *Wallet) Balance() decimal.Decimal {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state.Balance
}

// Connect 连接钱包；空地址使用演示地址
func (w *Wallet) Connect(address string) (State, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		address = MockAddress
	} else {
		if !common.IsHexAddress(address) {
			return State{}, ErrInvalidAddress
		}
		address = common.HexToAddress(address).Hex()
	}

	w.mu.Lock()
	w.state.Connected = true
	w.state.Address = address
	st := w.commitLocked()
	w.mu.Unlock()
	w.log.Infof("钱包已连接: %s", address)
	return st, nil
}

// Disconnect 断开钱包
func (w *Wallet) Disconnect() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Connected = false
	w.state.Address = ""
	return w.commitLocked()
}

// DeductBalance 余额足够时扣减并返回 true
func (w *Wallet) DeductBalance(amount decimal.Decimal) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.deductLocked(amount) {
		return false
	}
	w.commitLocked()
	return true
}

func (w *Wallet) deductLocked(amount decimal.Decimal) bool {
	if w.state.Balance.LessThan(amount) {
		return false
	}
	w.state.Balance = w.state.Balance.Sub(amount)
	return true
}

// AddBalance 增加余额
func (w *Wallet) AddBalance(amount decimal.Decimal) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Balance = w.state.Balance.Add(amount)
	w.commitLocked()
}

// PlaceBet 扣款并创建仓位（插入到最前）
func (w *Wallet) PlaceBet(req BetRequest) (Position, error) {
	if !req.Side.Valid() {
		return Position{}, ErrInvalidSide
	}
	if !req.Amount.IsPositive() {
		return Position{}, ErrInvalidAmount
	}
	if req.Odds.LessThanOrEqual(decimal.NewFromInt(1)) {
		return Position{}, ErrInvalidOdds
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.deductLocked(req.Amount) {
		return Position{}, ErrInsufficientBalance
	}

	pos := Position{
		ID:              w.newID(),
		MarketID:        req.MarketID,
		MarketTitle:     req.MarketTitle,
		Side:            req.Side,
		Amount:          req.Amount,
		Odds:            req.Odds,
		PotentialPayout: Payout(req.Amount, req.Odds),
		Timestamp:       w.now().UTC(),
		Status:          StatusActive,
		CurrentPnl:      decimal.Zero,
	}
	w.state.Positions = append([]Position{pos}, w.state.Positions...)
	w.commitLocked()
	metrics.BetsPlaced.Add(1)
	w.log.WithFields(logrus.Fields{"market": req.MarketID, "side": req.Side}).
		Infof("下注 %s @ %s", req.Amount.StringFixed(2), req.Odds.String())
	return pos, nil
}

// Flush 保存尚未成功落盘的修改
func (w *Wallet) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.dirty {
		return nil
	}
	return w.saveLocked()
}

// commitLocked 标记修改并尝试保存，返回状态拷贝
func (w *Wallet) commitLocked() State {
	w.dirty = true
	if err := w.saveLocked(); err != nil {
		w.log.Warnf("保存钱包失败: %v", err)
	}
	return w.state.clone()
}

func (w *Wallet) saveLocked() error {
	if w.store == nil {
		w.dirty = false
		return nil
	}
	if err := w.store.Save(w.state); err != nil {
		return err
	}
	w.dirty = false
	metrics.WalletSaves.Add(1)
	return nil
}
