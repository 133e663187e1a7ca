package server

import (
	"net/http"

	"github.com/betbot/hypiq/internal/pricestream"
	"github.com/betbot/hypiq/pkg/sdk/hyperliquid"
)

type priceResponse struct {
	pricestream.Snapshot
	Cached bool `json:"cached,omitempty"`
}

func (s *Server) handlePricesList(w http.ResponseWriter, r *http.Request) {
	out := make([]pricestream.Snapshot, 0, len(s.prices.Coins()))
	for _, coin := range s.prices.Coins() {
		if snap, ok := s.prices.Snapshot(coin); ok {
			snap.Chart = nil
			out = append(out, snap)
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"prices": out})
}

func (s *Server) handlePriceGet(w http.ResponseWriter, r *http.Request) {
	coin := hyperliquid.CoinSymbol(pathParam(r, "coin"))
	snap, ok := s.prices.Snapshot(coin)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown coin: "+coin)
		return
	}
	resp := priceResponse{Snapshot: snap}
	if !snap.Ready && s.quotes != nil {
		q, found, err := s.quotes.GetQuote(r.Context(), coin)
		switch {
		case err != nil:
			s.log.Warnf("读取缓存价格失败 %s: %v", coin, err)
		case found:
			resp.Price = q.Price
			resp.Target = q.Target
			resp.UpdatedAt = q.UpdatedAt
			resp.Cached = true
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
