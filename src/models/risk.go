package models

// Strategy kinds understood by the risk calculator.
const (
	StrategyVertical   = "vertical"
	StrategyIronCondor = "iron_condor"
	StrategyPMCC       = "pmcc"
)

// RiskRequest describes a multi-leg position to evaluate.
type RiskRequest struct {
	Strategy        string    `json:"strategy"`
	Symbol          string    `json:"symbol"`
	Expiry          string    `json:"expiry"`
	Strikes         []float64 `json:"strikes"`
	Quantities      []float64 `json:"quantities"`
	Premiums        []float64 `json:"premiums,omitempty"`
	UnderlyingPrice *float64  `json:"underlying_price,omitempty"`
}

// RiskResult holds the closed-form payoff metrics of a strategy.
type RiskResult struct {
	Strategy            string    `json:"strategy"`
	Symbol              string    `json:"symbol,omitempty"`
	MaxProfit           float64   `json:"max_profit"`
	MaxLoss             float64   `json:"max_loss"`
	Breakeven           []float64 `json:"breakeven"`
	NetPremium          float64   `json:"net_premium"`
	ProbabilityOfProfit float64   `json:"probability_of_profit"`
	RiskRewardRatio     float64   `json:"risk_reward_ratio"`
	UnderlyingPrice     *float64  `json:"underlying_price"`
	PremiumsEstimated   bool      `json:"premiums_estimated"`
}
