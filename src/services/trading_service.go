// backend/src/services/trading_service.go
package services

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/username/optionledger/backend/src/logger"
	"github.com/username/optionledger/backend/src/models"
	"github.com/username/optionledger/backend/src/security/validation"
)

const (
	TradeActionOpen  = "open"
	TradeActionClose = "close"
)

type tradingServiceImpl struct {
	broker OrderBroker
}

func NewTradingService(broker OrderBroker) TradingService {
	return &tradingServiceImpl{broker: broker}
}

func (s *tradingServiceImpl) PlaceStrategyOrder(ctx context.Context, req models.PlaceTradeRequest) (*models.PlaceTradeResult, error) {
	strategy := strings.ToLower(strings.TrimSpace(req.Strategy))
	if err := validation.ValidateStrategyKind(strategy); err != nil {
		return nil, err
	}
	symbol := validation.SanitizeSymbol(req.Symbol)
	if err := validation.ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	expiry := strings.TrimSpace(req.Expiry)
	if _, err := validation.ValidateDateString(expiry, "expiry"); err != nil {
		return nil, err
	}
	if err := validation.ValidateLegArrays(req.Strikes, req.Quantities); err != nil {
		return nil, err
	}
	for i, q := range req.Quantities {
		if q != math.Trunc(q) {
			return nil, fmt.Errorf("%w: quantity %d must be a whole number of contracts", validation.ErrValidationFailed, i+1)
		}
	}
	if len(req.Prices) > 0 && len(req.Prices) != len(req.Strikes) {
		return nil, fmt.Errorf("%w: prices must have one entry per leg", validation.ErrValidationFailed)
	}

	action := strings.ToLower(strings.TrimSpace(req.Action))
	if action == "" {
		action = TradeActionOpen
	}
	if action != TradeActionOpen && action != TradeActionClose {
		return nil, fmt.Errorf("%w: action must be %q or %q", validation.ErrValidationFailed, TradeActionOpen, TradeActionClose)
	}

	if s.broker == nil {
		return nil, fmt.Errorf("%w: no brokerage configured", ErrTradingUnavailable)
	}

	log := logger.FromContext(ctx).With("symbol", symbol, "strategy", strategy, "expiry", expiry)

	chain, err := s.broker.OptionChain(ctx, symbol, expiry)
	if err != nil {
		log.Warn("Options chain unavailable, refusing to place orders", "error", err)
		return nil, fmt.Errorf("%w: unable to fetch options chain: %v", ErrTradingUnavailable, err)
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: unable to fetch options chain", ErrTradingUnavailable)
	}

	side := "SELL"
	if action == TradeActionOpen {
		side = "BUY"
	}

	confirmations := make([]map[string]any, 0, len(req.Strikes))
	for i, strike := range req.Strikes {
		order := models.OrderRequest{
			Symbol:    symbol,
			OptionID:  OptionID(symbol, expiry, strike),
			Quantity:  int(req.Quantities[i]),
			Action:    side,
			OrderType: req.OrderType,
		}
		if len(req.Prices) > 0 {
			price := req.Prices[i]
			order.Price = &price
		}

		confirmation, err := s.broker.PlaceOrder(ctx, order)
		if err != nil {
			log.Error("Leg order failed", "leg", i+1, "optionID", order.OptionID, "placedLegs", len(confirmations), "error", err)
			return nil, &LegOrderError{Leg: i + 1, Err: err}
		}
		confirmations = append(confirmations, confirmation)
	}

	orderID := "pending"
	if id, ok := confirmations[0]["order_id"]; ok && id != nil {
		orderID = fmt.Sprint(id)
	}
	log.Info("Strategy order submitted", "orderID", orderID, "legs", len(confirmations))

	return &models.PlaceTradeResult{
		OrderID: orderID,
		Status:  "submitted",
		Message: fmt.Sprintf("Successfully placed %d leg(s)", len(confirmations)),
		Legs:    confirmations,
	}, nil
}

// OptionID builds the brokerage contract identifier "{symbol}_{expiry}_{strike}".
func OptionID(symbol, expiry string, strike float64) string {
	return fmt.Sprintf("%s_%s_%s", symbol, expiry, strconv.FormatFloat(strike, 'f', -1, 64))
}
