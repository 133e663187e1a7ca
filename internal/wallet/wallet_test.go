package wallet

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/hypiq/pkg/persistence"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type flakyStore struct {
	persistence.Store
	fail bool
}

func (s *flakyStore) Save(data interface{}) error {
	if s.fail {
		return errors.New("disk full")
	}
	return s.Store.Save(data)
}

func newTestWallet(t *testing.T, store persistence.Store) *Wallet {
	t.Helper()
	w := New(store, DefaultStartingBalance)
	w.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	n := 0
	w.newID = func() string {
		n++
		return "pos_" + string(rune('0'+n))
	}
	return w
}

func TestWallet_Defaults(t *testing.T) {
	w := New(nil, DefaultStartingBalance)
	st := w.State()
	assert.False(t, st.Connected)
	assert.Empty(t, st.Address)
	assert.True(t, st.Balance.Equal(d("382.35")))
	assert.Empty(t, st.Positions)
}

func TestWallet_ConnectDisconnect(t *testing.T) {
	w := newTestWallet(t, nil)

	st, err := w.Connect("")
	require.NoError(t, err)
	assert.True(t, st.Connected)
	assert.Equal(t, MockAddress, st.Address)

	st, err = w.Connect("0x742d35cc6ba1f23e8976543dcf1234567890abcd")
	require.NoError(t, err)
	assert.True(t, strings.EqualFold("0x742d35cc6ba1f23e8976543dcf1234567890abcd", st.Address))

	_, err = w.Connect("not-an-address")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	st = w.Disconnect()
	assert.False(t, st.Connected)
	assert.Empty(t, st.Address)
}

func TestWallet_Balance(t *testing.T) {
	w := newTestWallet(t, nil)
	assert.False(t, w.DeductBalance(d("400")))
	assert.True(t, w.DeductBalance(d("82.35")))
	assert.True(t, w.Balance().Equal(d("300")))
	w.AddBalance(d("0.1"))
	assert.True(t, w.Balance().Equal(d("300.1")))
}

func TestWallet_PlaceBet(t *testing.T) {
	w := newTestWallet(t, nil)

	first, err := w.PlaceBet(BetRequest{MarketID: "1", MarketTitle: "BTC whale", Side: SideProfit, Amount: d("100"), Odds: d("1.85")})
	require.NoError(t, err)
	assert.Equal(t, "pos_1", first.ID)
	assert.True(t, first.PotentialPayout.Equal(d("185")))
	assert.Equal(t, StatusActive, first.Status)

	second, err := w.PlaceBet(BetRequest{MarketID: "2", Side: SideLoss, Amount: d("50"), Odds: d("2.5")})
	require.NoError(t, err)

	st := w.State()
	require.Len(t, st.Positions, 2)
	assert.Equal(t, second.ID, st.Positions[0].ID)
	assert.True(t, st.Balance.Equal(d("232.35")))

	_, err = w.PlaceBet(BetRequest{MarketID: "3", Side: SideLoss, Amount: d("1000"), Odds: d("2")})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.True(t, w.Balance().Equal(d("232.35")))

	_, err = w.PlaceBet(BetRequest{Side: "up", Amount: d("1"), Odds: d("2")})
	assert.ErrorIs(t, err, ErrInvalidSide)
	_, err = w.PlaceBet(BetRequest{Side: SideProfit, Amount: d("0"), Odds: d("2")})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = w.PlaceBet(BetRequest{Side: SideProfit, Amount: d("1"), Odds: d("1")})
	assert.ErrorIs(t, err, ErrInvalidOdds)
}

func TestWallet_PersistsAndReloads(t *testing.T) {
	svc := persistence.NewJSONFileService(t.TempDir())
	store := svc.NewStore("wallet", "default", "state")

	w := newTestWallet(t, store)
	_, err := w.Connect("")
	require.NoError(t, err)
	_, err = w.PlaceBet(BetRequest{MarketID: "1", Side: SideProfit, Amount: d("10"), Odds: d("2")})
	require.NoError(t, err)

	reloaded := New(store, DefaultStartingBalance)
	require.NoError(t, reloaded.Load())
	st := reloaded.State()
	assert.True(t, st.Connected)
	assert.Equal(t, MockAddress, st.Address)
	assert.True(t, st.Balance.Equal(d("372.35")))
	require.Len(t, st.Positions, 1)
	assert.True(t, st.Positions[0].PotentialPayout.Equal(d("20")))
	assert.True(t, st.Positions[0].Timestamp.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)))
}

func TestWallet_FlushRetriesFailedSave(t *testing.T) {
	mem := persistence.NewMemoryService()
	store := &flakyStore{Store: mem.NewStore("wallet", "default", "state"), fail: true}
	w := newTestWallet(t, store)

	w.AddBalance(d("1"))
	assert.Error(t, w.Flush())

	store.fail = false
	require.NoError(t, w.Flush())

	reloaded := New(store, decimal.Zero)
	require.NoError(t, reloaded.Load())
	assert.True(t, reloaded.Balance().Equal(d("383.35")))
	assert.NoError(t, w.Flush())
}

func TestWallet_LoadWithoutSnapshotKeepsDefaults(t *testing.T) {
	w := New(persistence.NewMemoryService().NewStore("wallet", "x", "state"), DefaultStartingBalance)
	require.NoError(t, w.Load())
	assert.True(t, w.Balance().Equal(DefaultStartingBalance))
}
