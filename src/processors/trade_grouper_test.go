package processors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/optionledger/backend/src/models"
)

var (
	jan5  = models.NewDate(2024, time.January, 5)
	jan10 = models.NewDate(2024, time.January, 10)
	feb16 = models.NewDate(2024, time.February, 16)
)

func strike(v float64) *float64 { return &v }

func date(d models.Date) *models.Date { return &d }

func leg(id, action string, strikePrice, qty, premium float64) models.LegRecord {
	return models.LegRecord{
		TradeID:   id,
		TradeDate: jan5,
		Symbol:    "AAPL",
		Strategy:  "Vertical",
		Strike:    strike(strikePrice),
		Action:    action,
		Quantity:  qty,
		Premium:   premium,
		Expiry:    date(feb16),
	}
}

func TestFallbackIdentifier(t *testing.T) {
	assert.Equal(t, "2024-01-05|AAPL|Vertical", FallbackIdentifier(jan5, "AAPL", "Vertical"))
	assert.Equal(t, "2024-01-05|SPY|", FallbackIdentifier(jan5, "SPY", ""))
}

func TestTradeIdentifier(t *testing.T) {
	id, synthetic := TradeIdentifier(leg("T-1", models.ActionBuyToOpen, 100, 1, 1))
	assert.Equal(t, "T-1", id)
	assert.False(t, synthetic)

	id, synthetic = TradeIdentifier(leg("   ", models.ActionBuyToOpen, 100, 1, 1))
	assert.Equal(t, "2024-01-05|AAPL|Vertical", id)
	assert.True(t, synthetic)
}

func TestGroupLegs_OpeningLegsNetPremium(t *testing.T) {
	legs := []models.LegRecord{
		leg("T-1", models.ActionBuyToOpen, 100, 1, 3.00),
		leg("T-1", models.ActionSellToOpen, 105, 1, 1.00),
	}

	grouped := GroupLegs(legs, models.SourceTradier, jan10)
	require.Len(t, grouped, 1)
	trade := grouped["T-1"]

	assert.Equal(t, models.SourceTradier, trade.Source)
	assert.Equal(t, 2, trade.Legs)
	assert.Equal(t, 0, trade.ClosedLegs)
	assert.InDelta(t, -2.0, trade.OpenNet, 1e-9)
	assert.InDelta(t, -2.0, trade.NetPremium, 1e-9)
	assert.InDelta(t, 200.0, trade.TotalCost, 1e-9)
	assert.Equal(t, "100/105", trade.Strikes)
	assert.Equal(t, models.StatusOpen, trade.Status)
	assert.Zero(t, trade.PL)
	assert.Zero(t, trade.PLPercent)
	assert.Empty(t, trade.WinLoss)
	assert.Nil(t, trade.CloseDate)
	require.NotNil(t, trade.DTE)
	assert.Equal(t, 37, *trade.DTE, "open trades count days from today to expiration")
}

func TestGroupLegs_ClosureIsReevaluatedForEveryPrefix(t *testing.T) {
	legs := []models.LegRecord{
		leg("T-2", models.ActionSellToClose, 100, 1, 5.00),
		leg("T-2", models.ActionBuyToOpen, 100, 1, 3.00),
		leg("T-2", models.ActionBuyToClose, 105, 1, 0.50),
		leg("T-2", "EXPIRED", 105, 1, 0),
	}
	wantStatus := []string{models.StatusClosed, models.StatusOpen, models.StatusOpen, models.StatusOpen}

	for i := 1; i <= len(legs); i++ {
		trade := GroupLegs(legs[:i], models.SourceFidelity, jan10)["T-2"]

		closing := 0
		for _, l := range legs[:i] {
			if l.IsClosing() {
				closing++
			}
		}
		assert.Equal(t, i, trade.Legs, "prefix %d", i)
		assert.Equal(t, closing, trade.ClosedLegs, "prefix %d", i)
		assert.Equal(t, wantStatus[i-1], trade.Status, "prefix %d", i)
		assert.Equal(t, trade.ClosedLegs >= trade.Legs, trade.Status == models.StatusClosed, "prefix %d", i)
		if trade.Status == models.StatusOpen {
			assert.Zero(t, trade.PL, "prefix %d", i)
			assert.Empty(t, trade.WinLoss, "prefix %d", i)
		}
	}

	first := GroupLegs(legs[:1], models.SourceFidelity, jan10)["T-2"]
	assert.InDelta(t, 500.0, first.PL, 1e-9)
	assert.Equal(t, models.OutcomeWin, first.WinLoss)
	assert.Zero(t, first.PLPercent, "no opening premium means no percentage")
	require.NotNil(t, first.CloseDate)
	assert.Equal(t, jan5, *first.CloseDate)
	require.NotNil(t, first.DTE)
	assert.Equal(t, 0, *first.DTE, "closed trades count days held")
}

func TestGroupLegs_WinLossPartition(t *testing.T) {
	tests := []struct {
		name   string
		legs   []models.LegRecord
		wantPL float64
		want   string
	}{
		{
			name:   "credit on close is a win",
			legs:   []models.LegRecord{leg("W", models.ActionSellToClose, 100, 2, 1.25)},
			wantPL: 250,
			want:   models.OutcomeWin,
		},
		{
			name:   "debit on close is a loss",
			legs:   []models.LegRecord{leg("L", models.ActionBuyToClose, 100, 1, 0.40)},
			wantPL: -40,
			want:   models.OutcomeLoss,
		},
		{
			name: "offsetting closes break even",
			legs: []models.LegRecord{
				leg("B", models.ActionSellToClose, 100, 1, 2.00),
				leg("B", models.ActionBuyToClose, 105, 1, 2.00),
			},
			wantPL: 0,
			want:   models.OutcomeBreakEven,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grouped := GroupLegs(tt.legs, models.SourceWebull, jan10)
			require.Len(t, grouped, 1)
			for _, trade := range grouped {
				assert.Equal(t, models.StatusClosed, trade.Status)
				assert.InDelta(t, tt.wantPL, trade.PL, 1e-9)
				assert.Equal(t, tt.want, trade.WinLoss)
			}
		})
	}
}

func TestGroupLegs_UnknownActionOnlyCountsTowardLegs(t *testing.T) {
	trade := GroupLegs([]models.LegRecord{
		leg("X", models.ActionSellToOpen, 50, 1, 1.00),
		leg("X", "ASSIGNED", 50, 1, 9.99),
	}, models.SourceTradier, jan10)["X"]

	assert.Equal(t, 2, trade.Legs)
	assert.Equal(t, 0, trade.ClosedLegs)
	assert.InDelta(t, 1.0, trade.OpenNet, 1e-9)
	assert.Zero(t, trade.CloseNet)
	assert.Equal(t, "50/50", trade.Strikes)
}

func TestGroupLegs_SyntheticIdentifiersCollapse(t *testing.T) {
	first := leg("", models.ActionSellToOpen, 400, 1, 2.00)
	second := leg("", models.ActionBuyToOpen, 395, 1, 1.00)
	second.Strike = nil
	second.Strategy = "Vertical"
	other := leg("", models.ActionSellToOpen, 400, 1, 2.00)
	other.Symbol = "MSFT"

	grouped := GroupLegs([]models.LegRecord{first, second, other}, models.SourceFidelity, jan10)
	require.Len(t, grouped, 2)

	aapl := grouped["2024-01-05|AAPL|Vertical"]
	assert.True(t, aapl.SyntheticID)
	assert.Equal(t, 2, aapl.Legs)
	assert.Equal(t, "400", aapl.Strikes, "legs without a strike add nothing to the display string")
	assert.InDelta(t, 1.0, aapl.NetPremium, 1e-9)

	assert.Contains(t, grouped, "2024-01-05|MSFT|Vertical")
}

func TestGroupLegs_StaticFieldsComeFromFirstLeg(t *testing.T) {
	first := leg("S", models.ActionBuyToOpen, 10, 1, 1)
	first.Expiry = nil
	second := leg("S", models.ActionBuyToOpen, 12, 1, 1)
	second.Strategy = "Calendar"
	second.TradeDate = jan10

	trade := GroupLegs([]models.LegRecord{first, second}, models.SourceTradier, jan10)["S"]
	assert.Equal(t, "Vertical", trade.Strategy)
	assert.Equal(t, jan5, trade.TradeDate)
	assert.Nil(t, trade.Expiration)
	assert.Nil(t, trade.DTE, "no expiration means no DTE")
}

func TestGroupLegs_Deterministic(t *testing.T) {
	legs := []models.LegRecord{
		leg("D", models.ActionBuyToOpen, 100, 3, 0.1),
		leg("D", models.ActionSellToOpen, 105, 3, 0.2),
		leg("", models.ActionSellToClose, 100, 1, 0.3),
	}
	assert.Equal(t, GroupLegs(legs, models.SourceWebull, jan10), GroupLegs(legs, models.SourceWebull, jan10))
}
