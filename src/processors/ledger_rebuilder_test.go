package processors

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/optionledger/backend/src/models"
)

func sampleSources() map[models.Source][]models.LegRecord {
	shared := leg("", models.ActionSellToOpen, 400, 1, 2.00)
	shared.Symbol = "SPY"

	webullShared := shared
	webullShared.Premium = 2.50

	return map[models.Source][]models.LegRecord{
		models.SourceFidelity: {
			shared,
			leg("F-1", models.ActionBuyToOpen, 100, 1, 3.00),
		},
		models.SourceTradier: {
			leg("T-1", models.ActionSellToClose, 100, 1, 1.00),
			leg("F-1", models.ActionSellToOpen, 90, 1, 0.75),
		},
		models.SourceWebull: {
			webullShared,
		},
	}
}

func TestRebuildLedger_LaterSourceWinsAndCollisionsAreReported(t *testing.T) {
	snapshot := RebuildLedger(sampleSources(), jan10)

	require.Len(t, snapshot.Trades, 3)
	byID := make(map[string]models.AggregateTrade)
	for _, trade := range snapshot.Trades {
		byID[trade.TradeID] = trade
	}

	spy := byID["2024-01-05|SPY|Vertical"]
	assert.Equal(t, models.SourceWebull, spy.Source)
	assert.InDelta(t, 2.50, spy.NetPremium, 1e-9)

	assert.Equal(t, models.SourceTradier, byID["F-1"].Source)
	assert.InDelta(t, 0.75, byID["F-1"].NetPremium, 1e-9, "merge replaces, it does not combine legs")

	assert.Equal(t, []models.MergeCollision{
		{TradeID: "F-1", ReplacedSource: models.SourceFidelity, WinningSource: models.SourceTradier},
		{TradeID: "2024-01-05|SPY|Vertical", ReplacedSource: models.SourceFidelity, WinningSource: models.SourceWebull},
	}, snapshot.Collisions)
	assert.Empty(t, snapshot.Failures)
}

func TestRebuildLedger_TradesSortedByIdentifier(t *testing.T) {
	snapshot := RebuildLedger(sampleSources(), jan10)
	ids := make([]string, 0, len(snapshot.Trades))
	for _, trade := range snapshot.Trades {
		ids = append(ids, trade.TradeID)
	}
	assert.Equal(t, []string{"2024-01-05|SPY|Vertical", "F-1", "T-1"}, ids)
}

func TestRebuildLedger_Idempotent(t *testing.T) {
	first := RebuildLedger(sampleSources(), jan10)
	second := RebuildLedger(sampleSources(), jan10)
	assert.Equal(t, first, second)
}

func TestRebuildLedger_EmptyAndMissingSources(t *testing.T) {
	snapshot := RebuildLedger(map[models.Source][]models.LegRecord{
		models.SourceTradier: {},
	}, jan10)

	assert.NotNil(t, snapshot.Trades)
	assert.Empty(t, snapshot.Trades)
	assert.Empty(t, snapshot.Collisions)
	assert.Empty(t, snapshot.Failures)
}

func TestLedgerRebuilder_UsesClockForToday(t *testing.T) {
	now := time.Date(2024, time.February, 6, 15, 0, 0, 0, time.UTC)
	rebuilder := NewLedgerRebuilder(func() time.Time { return now })

	snapshot := rebuilder.Rebuild(map[models.Source][]models.LegRecord{
		models.SourceWebull: {leg("O", models.ActionBuyToOpen, 100, 1, 1)},
	})

	require.Len(t, snapshot.Trades, 1)
	require.NotNil(t, snapshot.Trades[0].DTE)
	assert.Equal(t, 10, *snapshot.Trades[0].DTE)
	assert.Equal(t, now, snapshot.RebuiltAt)
}

func TestRebuildLedger_FailedSourceDoesNotBlockOthers(t *testing.T) {
	sources := sampleSources()
	broken := leg("T-9", models.ActionSellToOpen, 100, 1, 1.00)
	broken.Premium = math.NaN()
	sources[models.SourceTradier] = append(sources[models.SourceTradier], broken)

	snapshot := RebuildLedger(sources, jan10)

	require.Len(t, snapshot.Failures, 1)
	assert.Equal(t, models.SourceTradier, snapshot.Failures[0].Source)
	assert.Contains(t, snapshot.Failures[0].Error, "tradier")

	byID := make(map[string]models.AggregateTrade)
	for _, trade := range snapshot.Trades {
		byID[trade.TradeID] = trade
	}
	require.Len(t, byID, 2)
	assert.Equal(t, models.SourceFidelity, byID["F-1"].Source, "the failed source no longer shadows fidelity")
	assert.Equal(t, models.SourceWebull, byID["2024-01-05|SPY|Vertical"].Source)
	assert.NotContains(t, byID, "T-1")
	assert.Equal(t, []models.MergeCollision{
		{TradeID: "2024-01-05|SPY|Vertical", ReplacedSource: models.SourceFidelity, WinningSource: models.SourceWebull},
	}, snapshot.Collisions)
}
