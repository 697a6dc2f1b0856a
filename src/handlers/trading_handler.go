package handlers

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/username/optionledger/backend/src/logger"
	"github.com/username/optionledger/backend/src/models"
	"github.com/username/optionledger/backend/src/security/validation"
	"github.com/username/optionledger/backend/src/services"
	"github.com/username/optionledger/backend/src/utils"
)

type TradingHandler struct {
	tradingService services.TradingService
}

func NewTradingHandler(service services.TradingService) *TradingHandler {
	return &TradingHandler{tradingService: service}
}

// HandlePlaceTrade submits one brokerage order per leg. Routes must be wrapped in TradeAuthMiddleware.
func (h *TradingHandler) HandlePlaceTrade(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	var req models.PlaceTradeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	trader, _ := GetTraderFromContext(r.Context())
	ctxLogger.Info("Placing strategy order", "trader", trader, "strategy", req.Strategy, "symbol", req.Symbol, "legs", len(req.Strikes))

	result, err := h.tradingService.PlaceStrategyOrder(r.Context(), req)
	if err != nil {
		var legErr *services.LegOrderError
		switch {
		case errors.Is(err, validation.ErrValidationFailed):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrTradingUnavailable):
			utils.SendJSONError(w, "Unable to fetch options chain. Check Webull API configuration.", http.StatusServiceUnavailable)
		case errors.As(err, &legErr):
			utils.SendJSONError(w, legErr.Error(), http.StatusInternalServerError)
		default:
			ctxLogger.Error("Error placing trade", "error", err)
			utils.SendJSONError(w, "Error placing trade", http.StatusInternalServerError)
		}
		return
	}
	utils.WriteJSON(w, http.StatusCreated, result)
}
