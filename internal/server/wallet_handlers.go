package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/betbot/hypiq/internal/market"
	"github.com/betbot/hypiq/internal/wallet"
)

type connectWalletRequest struct {
	Address string `json:"address"`
}

type placeBetResponse struct {
	Position wallet.Position `json:"position"`
	Balance  decimal.Decimal `json:"balance"`
}

type quoteResponse struct {
	Amount             decimal.Decimal `json:"amount"`
	Odds               decimal.Decimal `json:"odds"`
	Payout             decimal.Decimal `json:"payout"`
	Profit             decimal.Decimal `json:"profit"`
	ImpliedProbability float64         `json:"impliedProbability"`
	OptimalBet         decimal.Decimal `json:"optimalBet"`
}

func (s *Server) handleWalletGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.wallet.State())
}

func (s *Server) handleWalletConnect(w http.ResponseWriter, r *http.Request) {
	var req connectWalletRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	st, err := s.wallet.Connect(req.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid wallet address")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleWalletDisconnect(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.wallet.Disconnect())
}

func (s *Server) handleWalletPlaceBet(w http.ResponseWriter, r *http.Request) {
	var req wallet.BetRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.MarketID != "" {
		m, ok := market.FindByID(req.MarketID)
		if !ok {
			writeError(w, http.StatusNotFound, "Market not found")
			return
		}
		if req.MarketTitle == "" {
			req.MarketTitle = m.Title
		}
	}

	pos, err := s.wallet.PlaceBet(req)
	switch {
	case errors.Is(err, wallet.ErrInsufficientBalance):
		writeError(w, http.StatusBadRequest, "Insufficient balance")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, placeBetResponse{Position: pos, Balance: s.wallet.Balance()})
}

// handleWalletQuote ?amount=100&odds=1.85&winProbability=0.6
func (s *Server) handleWalletQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	odds, err := decimal.NewFromString(q.Get("odds"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid odds")
		return
	}
	oddsF := odds.InexactFloat64()
	winProb := 1 / oddsF
	if raw := q.Get("winProbability"); raw != "" {
		if winProb, err = strconv.ParseFloat(raw, 64); err != nil || winProb < 0 || winProb > 1 {
			writeError(w, http.StatusBadRequest, "invalid winProbability")
			return
		}
	}

	writeJSON(w, http.StatusOK, quoteResponse{
		Amount:             amount,
		Odds:               odds,
		Payout:             wallet.Payout(amount, odds),
		Profit:             wallet.Profit(amount, odds),
		ImpliedProbability: wallet.ImpliedProbability(oddsF),
		OptimalBet:         wallet.OptimalBetSize(s.wallet.Balance(), oddsF, winProb, s.maxBetPct),
	})
}
