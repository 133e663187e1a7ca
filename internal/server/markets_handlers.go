package server

import (
	"net/http"

	"github.com/betbot/hypiq/internal/market"
	"github.com/betbot/hypiq/internal/pricestream"
)

type marketDetailResponse struct {
	market.Detail
	Price *pricestream.Snapshot `json:"price,omitempty"`
}

func (s *Server) handleMarketsList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"markets": market.All()})
}

func (s *Server) handleMarketsHeatmap(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"cells": market.Heatmap()})
}

func (s *Server) handleMarketGet(w http.ResponseWriter, r *http.Request) {
	m, ok := market.FindBySlug(pathParam(r, "slug"))
	if !ok {
		writeError(w, http.StatusNotFound, "Market not found")
		return
	}
	resp := marketDetailResponse{Detail: market.BuildDetail(m, s.now())}
	if s.prices != nil {
		if snap, ok := s.prices.Snapshot(resp.Coin); ok {
			resp.Price = &snap
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
