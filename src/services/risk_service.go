// backend/src/services/risk_service.go
package services

import (
	"context"
	"strings"

	"github.com/username/optionledger/backend/src/logger"
	"github.com/username/optionledger/backend/src/models"
	"github.com/username/optionledger/backend/src/processors"
	"github.com/username/optionledger/backend/src/security/validation"
	"github.com/username/optionledger/backend/src/utils"
)

const riskPrecision = 4

type riskServiceImpl struct {
	priceService PriceService
}

// NewRiskService returns a RiskService. priceService may be nil, in which case
// requests without an underlying price are calculated without one.
func NewRiskService(priceService PriceService) RiskService {
	return &riskServiceImpl{priceService: priceService}
}

func (s *riskServiceImpl) Calculate(ctx context.Context, req models.RiskRequest) (*models.RiskResult, error) {
	strategy := strings.ToLower(strings.TrimSpace(req.Strategy))
	if err := validation.ValidateStrategyKind(strategy); err != nil {
		return nil, err
	}
	symbol := validation.SanitizeSymbol(req.Symbol)
	if err := validation.ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	if _, err := validation.ValidateDateString(req.Expiry, "expiry"); err != nil {
		return nil, err
	}
	if err := validation.ValidateLegArrays(req.Strikes, req.Quantities); err != nil {
		return nil, err
	}

	underlying := req.UnderlyingPrice
	if underlying == nil && s.priceService != nil {
		if price, ok := s.priceService.PriceFor(ctx, symbol); ok {
			underlying = &price
		} else {
			logger.FromContext(ctx).Debug("No underlying price available for risk calculation", "symbol", symbol)
		}
	}

	premiums := req.Premiums
	if len(premiums) == 0 {
		premiums = nil
	}

	result, err := processors.CalculateStrategyRisk(strategy, req.Strikes, req.Quantities, premiums, underlying)
	if err != nil {
		return nil, err
	}

	result.Symbol = symbol
	result.MaxProfit = utils.RoundFloat(result.MaxProfit, riskPrecision)
	result.MaxLoss = utils.RoundFloat(result.MaxLoss, riskPrecision)
	result.NetPremium = utils.RoundFloat(result.NetPremium, riskPrecision)
	result.ProbabilityOfProfit = utils.RoundFloat(result.ProbabilityOfProfit, riskPrecision)
	result.RiskRewardRatio = utils.RoundFloat(result.RiskRewardRatio, riskPrecision)
	result.Breakeven = utils.RoundFloats(result.Breakeven, riskPrecision)
	return &result, nil
}
