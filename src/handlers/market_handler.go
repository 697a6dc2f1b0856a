package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/username/optionledger/backend/src/logger"
	"github.com/username/optionledger/backend/src/security/validation"
	"github.com/username/optionledger/backend/src/services"
	"github.com/username/optionledger/backend/src/utils"
)

const maxBatchSymbols = 25

type MarketHandler struct {
	priceService services.PriceService
}

func NewMarketHandler(service services.PriceService) *MarketHandler {
	return &MarketHandler{priceService: service}
}

type unavailablePriceResponse struct {
	Symbol string   `json:"symbol"`
	Price  *float64 `json:"price"`
	Error  string   `json:"error"`
}

func (h *MarketHandler) HandleGetMarketPrice(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	if symbol == "" {
		utils.SendJSONError(w, "Symbol parameter required", http.StatusBadRequest)
		return
	}

	quote, err := h.priceService.GetQuote(r.Context(), symbol, r.URL.Query().Get("source"))
	if err != nil {
		switch {
		case errors.Is(err, validation.ErrValidationFailed):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrPriceUnavailable):
			logger.FromContext(r.Context()).Warn("Price unavailable", "symbol", symbol, "error", err)
			utils.WriteJSON(w, http.StatusServiceUnavailable, unavailablePriceResponse{
				Symbol: symbol,
				Error:  "Unable to fetch price from APIs. Check API configuration.",
			})
		default:
			logger.FromContext(r.Context()).Error("Quote lookup failed", "symbol", symbol, "error", err)
			utils.SendJSONError(w, "Quote lookup failed", http.StatusInternalServerError)
		}
		return
	}
	utils.WriteJSON(w, http.StatusOK, quote)
}

func (h *MarketHandler) HandleGetMarketPrices(w http.ResponseWriter, r *http.Request) {
	var symbols []string
	for _, s := range strings.Split(r.URL.Query().Get("symbols"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, s)
		}
	}
	if len(symbols) == 0 {
		utils.SendJSONError(w, "Symbols parameter required", http.StatusBadRequest)
		return
	}
	if len(symbols) > maxBatchSymbols {
		utils.SendJSONError(w, "Too many symbols requested", http.StatusBadRequest)
		return
	}

	results := h.priceService.GetQuotes(r.Context(), symbols, r.URL.Query().Get("source"))
	utils.WriteJSON(w, http.StatusOK, results)
}

func (h *MarketHandler) HandleGetOptionsChain(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	expiry := r.URL.Query().Get("expiry")
	if strings.TrimSpace(symbol) == "" || strings.TrimSpace(expiry) == "" {
		utils.SendJSONError(w, "Symbol and expiry parameters required", http.StatusBadRequest)
		return
	}

	chain, err := h.priceService.OptionsChain(r.Context(), symbol, expiry)
	if err != nil {
		switch {
		case errors.Is(err, validation.ErrValidationFailed):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrChainUnavailable):
			utils.SendJSONError(w, "Unable to fetch options chain. Check API configuration.", http.StatusServiceUnavailable)
		default:
			logger.FromContext(r.Context()).Error("Options chain lookup failed", "error", err)
			utils.SendJSONError(w, "Options chain lookup failed", http.StatusInternalServerError)
		}
		return
	}
	utils.WriteJSON(w, http.StatusOK, chain)
}
