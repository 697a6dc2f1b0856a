// backend/src/processors/ledger_summary.go
package processors

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/username/optionledger/backend/src/models"
	"github.com/username/optionledger/backend/src/utils"
)

// SummarizeLedger computes outcome counts and P/L statistics. P/L figures only cover closed trades.
func SummarizeLedger(trades []models.AggregateTrade) models.LedgerSummary {
	summary := models.LedgerSummary{TotalTrades: len(trades)}

	var pls, plPercents, daysHeld []float64
	for _, t := range trades {
		if t.Status != models.StatusClosed {
			summary.OpenTrades++
			summary.OpenCapital += t.TotalCost
			continue
		}

		summary.ClosedTrades++
		switch t.WinLoss {
		case models.OutcomeWin:
			summary.Wins++
		case models.OutcomeLoss:
			summary.Losses++
		default:
			summary.BreakEvens++
		}
		pls = append(pls, t.PL)
		plPercents = append(plPercents, t.PLPercent)
		if t.DTE != nil {
			daysHeld = append(daysHeld, float64(*t.DTE))
		}
	}

	if summary.ClosedTrades > 0 {
		summary.WinRate = utils.RoundFloat(float64(summary.Wins)/float64(summary.ClosedTrades), 4)
		summary.TotalPL = utils.RoundFloat(floats.Sum(pls), 2)
		summary.AveragePL = utils.RoundFloat(stat.Mean(pls, nil), 2)
		summary.AveragePLPercent = utils.RoundFloat(stat.Mean(plPercents, nil), 4)
	}
	if len(pls) > 1 {
		summary.PLStdDev = utils.RoundFloat(stat.StdDev(pls, nil), 2)
	}
	if len(daysHeld) > 0 {
		summary.AverageDaysHeld = utils.RoundFloat(stat.Mean(daysHeld, nil), 1)
	}
	summary.OpenCapital = utils.RoundFloat(summary.OpenCapital, 2)
	return summary
}
