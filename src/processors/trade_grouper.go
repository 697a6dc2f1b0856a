// backend/src/processors/trade_grouper.go
package processors

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/username/optionledger/backend/src/models"
)

var hundred = decimal.NewFromInt(100)

// FallbackIdentifier is the identity given to legs that carry no trade id.
// Unrelated legs sharing date, symbol and strategy end up in the same trade.
func FallbackIdentifier(tradeDate models.Date, symbol, strategy string) string {
	return fmt.Sprintf("%s|%s|%s", tradeDate, symbol, strategy)
}

// TradeIdentifier returns the grouping key of a leg and whether it was synthesized.
func TradeIdentifier(leg models.LegRecord) (string, bool) {
	if id := strings.TrimSpace(leg.TradeID); id != "" {
		return id, false
	}
	return FallbackIdentifier(leg.TradeDate, leg.Symbol, leg.Strategy), true
}

// tradeAccumulator holds the running state of one trade while its legs are folded.
type tradeAccumulator struct {
	trade    models.AggregateTrade
	openNet  decimal.Decimal
	closeNet decimal.Decimal
	strikes  []string
}

func newTradeAccumulator(id string, synthetic bool, source models.Source, first models.LegRecord) *tradeAccumulator {
	acc := &tradeAccumulator{
		trade: models.AggregateTrade{
			TradeID:     id,
			Source:      source,
			TradeDate:   first.TradeDate,
			Symbol:      first.Symbol,
			Strategy:    first.Strategy,
			Status:      models.StatusOpen,
			SyntheticID: synthetic,
		},
	}
	if first.Expiry != nil {
		expiry := *first.Expiry
		acc.trade.Expiration = &expiry
	}
	return acc
}

// fold applies one leg and re-derives everything that depends on the running totals.
func (a *tradeAccumulator) fold(leg models.LegRecord, today models.Date) {
	a.trade.Legs++

	amount := decimal.NewFromFloat(leg.Premium).Mul(decimal.NewFromFloat(leg.Quantity))
	switch leg.Action {
	case models.ActionBuyToOpen:
		a.openNet = a.openNet.Sub(amount)
	case models.ActionSellToOpen:
		a.openNet = a.openNet.Add(amount)
	case models.ActionSellToClose:
		a.closeNet = a.closeNet.Add(amount)
		a.markClosingLeg(leg)
	case models.ActionBuyToClose:
		a.closeNet = a.closeNet.Sub(amount)
		a.markClosingLeg(leg)
	}

	if leg.Strike != nil {
		a.strikes = append(a.strikes, strconv.FormatFloat(*leg.Strike, 'f', -1, 64))
	}

	a.refresh(today)
}

func (a *tradeAccumulator) markClosingLeg(leg models.LegRecord) {
	a.trade.ClosedLegs++
	if a.trade.CloseDate == nil {
		closeDate := leg.TradeDate
		a.trade.CloseDate = &closeDate
	}
}

// refresh recomputes status, P/L and DTE. A trade may go back to Open when more legs arrive.
func (a *tradeAccumulator) refresh(today models.Date) {
	t := &a.trade
	t.Strikes = strings.Join(a.strikes, "/")
	t.OpenNet = a.openNet.InexactFloat64()
	t.CloseNet = a.closeNet.InexactFloat64()
	t.NetPremium = t.OpenNet
	t.TotalCost = a.openNet.Abs().Mul(hundred).InexactFloat64()

	if t.ClosedLegs >= t.Legs {
		pl := a.closeNet.Sub(a.openNet).Mul(hundred)
		t.Status = models.StatusClosed
		t.PL = pl.InexactFloat64()
		t.PLPercent = 0
		if !a.openNet.IsZero() {
			t.PLPercent = pl.Div(a.openNet.Mul(hundred).Abs()).InexactFloat64()
		}
		switch pl.Sign() {
		case 1:
			t.WinLoss = models.OutcomeWin
		case -1:
			t.WinLoss = models.OutcomeLoss
		default:
			t.WinLoss = models.OutcomeBreakEven
		}
	} else {
		t.Status = models.StatusOpen
		t.PL = 0
		t.PLPercent = 0
		t.WinLoss = ""
	}

	t.DTE = nil
	switch {
	case t.Status == models.StatusClosed && t.CloseDate != nil:
		held := t.TradeDate.DaysUntil(*t.CloseDate)
		t.DTE = &held
	case t.Status == models.StatusOpen && t.Expiration != nil:
		remaining := today.DaysUntil(*t.Expiration)
		t.DTE = &remaining
	}
}

// GroupLegs folds one source's legs, in order, into aggregates keyed by trade identifier.
// today only affects the DTE of open trades.
func GroupLegs(legs []models.LegRecord, source models.Source, today models.Date) map[string]models.AggregateTrade {
	accumulators := make(map[string]*tradeAccumulator)
	for _, leg := range legs {
		id, synthetic := TradeIdentifier(leg)
		acc, ok := accumulators[id]
		if !ok {
			acc = newTradeAccumulator(id, synthetic, source, leg)
			accumulators[id] = acc
		}
		acc.fold(leg, today)
	}

	grouped := make(map[string]models.AggregateTrade, len(accumulators))
	for id, acc := range accumulators {
		grouped[id] = acc.trade
	}
	return grouped
}
