package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/optionledger/backend/src/models"
	"github.com/username/optionledger/backend/src/processors"
	"github.com/username/optionledger/backend/src/security/validation"
)

type stubPriceService struct {
	PriceService
	price float64
	ok    bool
	asked []string
}

func (s *stubPriceService) PriceFor(_ context.Context, symbol string) (float64, bool) {
	s.asked = append(s.asked, symbol)
	return s.price, s.ok
}

func floatPtr(v float64) *float64 { return &v }

func TestRiskService_Calculate(t *testing.T) {
	prices := &stubPriceService{price: 101.5, ok: true}
	svc := NewRiskService(prices)

	result, err := svc.Calculate(context.Background(), models.RiskRequest{
		Strategy:   "Vertical",
		Symbol:     "spy",
		Expiry:     "2024-04-19",
		Strikes:    []float64{100, 105},
		Quantities: []float64{1, 1},
		Premiums:   []float64{3, 1},
	})
	require.NoError(t, err)

	assert.Equal(t, models.StrategyVertical, result.Strategy)
	assert.Equal(t, "SPY", result.Symbol)
	assert.Equal(t, []float64{102}, result.Breakeven)
	assert.False(t, result.PremiumsEstimated)
	require.NotNil(t, result.UnderlyingPrice)
	assert.Equal(t, 101.5, *result.UnderlyingPrice)
	assert.Equal(t, []string{"SPY"}, prices.asked)
}

func TestRiskService_ExplicitUnderlyingSkipsLookup(t *testing.T) {
	prices := &stubPriceService{price: 1, ok: true}
	svc := NewRiskService(prices)

	result, err := svc.Calculate(context.Background(), models.RiskRequest{
		Strategy:        "pmcc",
		Symbol:          "AAPL",
		Expiry:          "2024-06-21",
		Strikes:         []float64{150, 190},
		Quantities:      []float64{1, 1},
		UnderlyingPrice: floatPtr(185),
	})
	require.NoError(t, err)
	assert.Empty(t, prices.asked)
	assert.True(t, result.PremiumsEstimated)
	assert.Equal(t, 185.0, *result.UnderlyingPrice)
}

func TestRiskService_NoPriceAvailable(t *testing.T) {
	svc := NewRiskService(&stubPriceService{ok: false})

	result, err := svc.Calculate(context.Background(), models.RiskRequest{
		Strategy:   "iron_condor",
		Symbol:     "SPX",
		Expiry:     "2024-04-19",
		Strikes:    []float64{90, 95, 110, 115},
		Quantities: []float64{1, 1, 1, 1},
	})
	require.NoError(t, err)
	assert.Nil(t, result.UnderlyingPrice)
	assert.Len(t, result.Breakeven, 2)
}

func TestRiskService_Validation(t *testing.T) {
	base := models.RiskRequest{
		Strategy: "vertical", Symbol: "SPY", Expiry: "2024-04-19",
		Strikes: []float64{100, 105}, Quantities: []float64{1, 1},
	}
	svc := NewRiskService(nil)

	tests := []struct {
		name    string
		mutate  func(*models.RiskRequest)
		wantErr error
	}{
		{"missing strategy", func(r *models.RiskRequest) { r.Strategy = "" }, validation.ErrValidationFailed},
		{"missing symbol", func(r *models.RiskRequest) { r.Symbol = " " }, validation.ErrValidationFailed},
		{"bad expiry", func(r *models.RiskRequest) { r.Expiry = "April" }, validation.ErrValidationFailed},
		{"length mismatch", func(r *models.RiskRequest) { r.Quantities = []float64{1} }, validation.ErrValidationFailed},
		{"unknown strategy", func(r *models.RiskRequest) { r.Strategy = "butterfly" }, processors.ErrUnknownStrategy},
		{"wrong leg count", func(r *models.RiskRequest) {
			r.Strikes = []float64{100, 105, 110}
			r.Quantities = []float64{1, 1, 1}
		}, processors.ErrInvalidLegs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := svc.Calculate(context.Background(), req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}
