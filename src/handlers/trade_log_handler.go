package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/username/optionledger/backend/src/logger"
	"github.com/username/optionledger/backend/src/models"
	"github.com/username/optionledger/backend/src/services"
	"github.com/username/optionledger/backend/src/utils"
)

type TradeLogHandler struct {
	ledgerService services.LedgerService
	clock         func() time.Time
}

func NewTradeLogHandler(service services.LedgerService) *TradeLogHandler {
	return &TradeLogHandler{ledgerService: service, clock: time.Now}
}

func (h *TradeLogHandler) HandleGetRawTrades(w http.ResponseWriter, r *http.Request) {
	source, err := models.ParseSource(chi.URLParam(r, "source"))
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	trades, err := h.ledgerService.ListRawTrades(r.Context(), source)
	if err != nil {
		logger.FromContext(r.Context()).Error("Error retrieving raw trades", "source", source, "error", err)
		utils.SendJSONError(w, "Error retrieving trades", http.StatusInternalServerError)
		return
	}
	writeJSONWithETag(w, r, trades, "raw_trades")
}

func (h *TradeLogHandler) HandleGetTradeLog(w http.ResponseWriter, r *http.Request) {
	trades, err := h.ledgerService.ListTradeLog(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("Error retrieving trade log", "error", err)
		utils.SendJSONError(w, "Error retrieving trade log", http.StatusInternalServerError)
		return
	}
	logger.FromContext(r.Context()).Debug("Trade log prepared", "count", len(trades))
	writeJSONWithETag(w, r, trades, "trade_log")
}

func (h *TradeLogHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.ledgerService.GetSummary(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("Error computing ledger summary", "error", err)
		utils.SendJSONError(w, "Error computing ledger summary", http.StatusInternalServerError)
		return
	}
	writeJSONWithETag(w, r, summary, "ledger_summary")
}

func (h *TradeLogHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	filename := fmt.Sprintf("trade_log_%s.csv", h.clock().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.ledgerService.ExportTradeLogCSV(r.Context(), w); err != nil {
		// Headers are gone once the first row is written; only the log can report this.
		logger.FromContext(r.Context()).Error("Trade log export failed", "error", err)
	}
}

func (h *TradeLogHandler) HandleRebuild(w http.ResponseWriter, r *http.Request) {
	result, err := h.ledgerService.Rebuild(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("Ledger rebuild failed", "error", err)
		utils.SendJSONError(w, "Ledger rebuild failed", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

func (h *TradeLogHandler) HandleGetLatestRebuild(w http.ResponseWriter, r *http.Request) {
	record, err := h.ledgerService.LatestRebuild(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("Error retrieving latest rebuild", "error", err)
		utils.SendJSONError(w, "Error retrieving latest rebuild", http.StatusInternalServerError)
		return
	}
	if record == nil {
		utils.SendJSONError(w, "No rebuild has run yet", http.StatusNotFound)
		return
	}
	utils.WriteJSON(w, http.StatusOK, record)
}
