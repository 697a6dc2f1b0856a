// backend/src/processors/risk_calculator.go
package processors

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/username/optionledger/backend/src/models"
	"github.com/username/optionledger/backend/src/utils"
)

var (
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrInvalidLegs     = errors.New("invalid strategy legs")
)

const (
	contractMultiplier    = 100.0
	premiumEstimateFactor = 0.1
)

// Heuristic probability-of-profit per strategy. These are constants, not modeled values.
const (
	popVertical   = 0.5
	popIronCondor = 0.6
	popPMCC       = 0.55
)

var strategyLegCount = map[string]int{
	models.StrategyVertical:   2,
	models.StrategyIronCondor: 4,
	models.StrategyPMCC:       2,
}

// CalculateStrategyRisk evaluates a vertical spread, iron condor or poor man's covered call.
// Premiums may be nil, in which case they are estimated from strike distances.
// For a PMCC without an underlying price, the long strike stands in.
func CalculateStrategyRisk(strategy string, strikes, quantities, premiums []float64, underlying *float64) (models.RiskResult, error) {
	kind := strings.ToLower(strings.TrimSpace(strategy))
	legCount, ok := strategyLegCount[kind]
	if !ok {
		return models.RiskResult{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	if err := checkLegs(legCount, strikes, quantities, premiums); err != nil {
		return models.RiskResult{}, err
	}

	estimated := premiums == nil
	if estimated {
		premiums = EstimatePremiums(strikes)
	}

	var result models.RiskResult
	switch kind {
	case models.StrategyVertical:
		result = verticalSpreadRisk(strikes, quantities, premiums)
	case models.StrategyIronCondor:
		result = ironCondorRisk(strikes, quantities, premiums)
	case models.StrategyPMCC:
		price := strikes[0]
		if underlying != nil {
			price = *underlying
		}
		result = pmccRisk(strikes, quantities, premiums)
		underlying = &price
	}

	result.Strategy = kind
	result.RiskRewardRatio = riskReward(result.MaxProfit, result.MaxLoss)
	result.UnderlyingPrice = underlying
	result.PremiumsEstimated = estimated
	return result, nil
}

func checkLegs(want int, strikes, quantities, premiums []float64) error {
	if len(strikes) != want || len(quantities) != want {
		return fmt.Errorf("%w: expected %d strikes and quantities, got %d and %d", ErrInvalidLegs, want, len(strikes), len(quantities))
	}
	if premiums != nil && len(premiums) != want {
		return fmt.Errorf("%w: expected %d premiums, got %d", ErrInvalidLegs, want, len(premiums))
	}
	for i := range strikes {
		if strikes[i] <= 0 || quantities[i] <= 0 {
			return fmt.Errorf("%w: leg %d needs a positive strike and quantity", ErrInvalidLegs, i+1)
		}
		if premiums != nil && premiums[i] < 0 {
			return fmt.Errorf("%w: leg %d has a negative premium", ErrInvalidLegs, i+1)
		}
	}
	return nil
}

// EstimatePremiums guesses each leg's premium as a tenth of the distance to the next strike.
// The last leg repeats the previous estimate.
func EstimatePremiums(strikes []float64) []float64 {
	if len(strikes) < 2 {
		return make([]float64, len(strikes))
	}
	estimates := make([]float64, 0, len(strikes))
	for i := 0; i < len(strikes)-1; i++ {
		estimates = append(estimates, math.Abs(strikes[i]-strikes[i+1])*premiumEstimateFactor)
	}
	return append(estimates, estimates[len(estimates)-1])
}

// verticalSpreadRisk: strikes are [long, short]. A higher short strike means a call spread.
// The breakeven moves by the net premium per contract, so [100,105] at 3.00/1.00 breaks even at 102.
func verticalSpreadRisk(strikes, quantities, premiums []float64) models.RiskResult {
	long, short := strikes[0], strikes[1]
	isCall := short > long
	minQty := utils.MinFloat(quantities[0], quantities[1])

	net := premiums[0]*quantities[0] - premiums[1]*quantities[1]

	width := long - short
	breakeven := long - net/minQty
	if isCall {
		width = short - long
		breakeven = long + net/minQty
	}

	return models.RiskResult{
		NetPremium:          net,
		MaxProfit:           width*contractMultiplier*minQty - net,
		MaxLoss:             net,
		Breakeven:           []float64{breakeven},
		ProbabilityOfProfit: popVertical,
	}
}

// ironCondorRisk: strikes are [put short, put long, call long, call short].
func ironCondorRisk(strikes, quantities, premiums []float64) models.RiskResult {
	putShort, putLong, callLong, callShort := strikes[0], strikes[1], strikes[2], strikes[3]

	net := premiums[0]*quantities[0] + premiums[3]*quantities[3] -
		premiums[1]*quantities[1] - premiums[2]*quantities[2]

	putWidth := putShort - putLong
	callWidth := callShort - callLong

	return models.RiskResult{
		NetPremium: net,
		MaxProfit:  net,
		MaxLoss:    math.Max(putWidth, callWidth)*contractMultiplier - net,
		Breakeven: []float64{
			putShort - net/(quantities[0]*contractMultiplier),
			callShort + net/(quantities[3]*contractMultiplier),
		},
		ProbabilityOfProfit: popIronCondor,
	}
}

// pmccRisk: strikes are [long LEAPS call, short call].
func pmccRisk(strikes, quantities, premiums []float64) models.RiskResult {
	long, short := strikes[0], strikes[1]
	minQty := utils.MinFloat(quantities[0], quantities[1])

	net := premiums[0]*quantities[0] - premiums[1]*quantities[1]

	return models.RiskResult{
		NetPremium:          net,
		MaxProfit:           (short-long)*contractMultiplier*minQty - net,
		MaxLoss:             net,
		Breakeven:           []float64{long + net/(quantities[0]*contractMultiplier)},
		ProbabilityOfProfit: popPMCC,
	}
}

func riskReward(maxProfit, maxLoss float64) float64 {
	if maxLoss <= 0 {
		return 0
	}
	return math.Abs(maxProfit / maxLoss)
}
