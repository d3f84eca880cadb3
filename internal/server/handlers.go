package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bobmcallan/nsebhav/internal/models"
)

// handleStocks handles GET /stocks: every bar for the latest trade date.
func (s *Server) handleStocks(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	bars, err := s.app.StockService.LatestSnapshot(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, bars)
}

// handleStockHistory handles GET /stocks/history?symbol=X: all bars for one
// symbol, oldest first.
func (s *Server) handleStockHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := r.URL.Query().Get("symbol")
	if strings.TrimSpace(symbol) == "" {
		WriteError(w, http.StatusBadRequest, "symbol required")
		return
	}

	bars, err := s.app.StockService.History(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, models.ErrInvalidArgument) {
			WriteError(w, http.StatusBadRequest, "symbol required")
			return
		}
		s.internalError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, bars)
}

// handleIngestStatus handles GET /api/ingest/{date}: the last ingestion
// outcome recorded for a trade date.
func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	date := PathParam(r, "/api/ingest/", "")
	if date == "" {
		WriteError(w, http.StatusBadRequest, "date required")
		return
	}

	day, err := s.app.StockService.IngestStatus(r.Context(), date)
	if err != nil {
		if errors.Is(err, models.ErrInvalidArgument) {
			WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		s.internalError(w, r, err)
		return
	}
	if day == nil {
		WriteError(w, http.StatusNotFound, "No ingest record for "+date)
		return
	}

	WriteJSON(w, http.StatusOK, day)
}

// internalError logs err and writes a 500 without leaking its detail.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	WriteError(w, http.StatusInternalServerError, "Internal server error")
}
