package model

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/optionledger/backend/src/database"
	"github.com/username/optionledger/backend/src/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "ledger_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.ApplyMigrations(db))
	return db
}

func withTx(t *testing.T, db *sql.DB, fn func(tx *sql.Tx) error) {
	t.Helper()
	tx, err := db.Begin()
	require.NoError(t, err)
	if err := fn(tx); err != nil {
		tx.Rollback()
		require.NoError(t, err)
	}
	require.NoError(t, tx.Commit())
}

func ptrFloat(v float64) *float64 { return &v }

func ptrDate(d models.Date) *models.Date { return &d }

func TestReplaceSourceTrades_ReplacesOnlyThatSource(t *testing.T) {
	db := setupTestDB(t)
	importedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	first := []models.LegRecord{
		{TradeID: "A", TradeDate: models.NewDate(2024, 1, 5), Symbol: "AAPL", Strike: ptrFloat(185), Action: models.ActionBuyToOpen, Quantity: 1, Premium: 3.1, Expiry: ptrDate(models.NewDate(2024, 2, 16))},
		{TradeID: "A", TradeDate: models.NewDate(2024, 1, 5), Symbol: "AAPL", Action: models.ActionSellToOpen, Quantity: -1, Premium: 1.2},
	}
	withTx(t, db, func(tx *sql.Tx) error {
		return ReplaceSourceTrades(tx, models.ImportBatch{ID: "b1", Source: models.SourceTradier, LegCount: 2, ImportedAt: importedAt}, first, []int{2, 3})
	})
	withTx(t, db, func(tx *sql.Tx) error {
		return ReplaceSourceTrades(tx, models.ImportBatch{ID: "w1", Source: models.SourceWebull, LegCount: 1, ImportedAt: importedAt},
			[]models.LegRecord{{TradeDate: models.NewDate(2024, 1, 6), Symbol: "CRM", Action: models.ActionBuyToOpen, Quantity: 1, Premium: 5}}, nil)
	})

	legs, err := LoadSourceLegs(db, models.SourceTradier)
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, first[0].TradeDate, legs[0].TradeDate)
	require.NotNil(t, legs[0].Strike)
	assert.InDelta(t, 185.0, *legs[0].Strike, 1e-9)
	require.NotNil(t, legs[0].Expiry)
	assert.Equal(t, "2024-02-16", legs[0].Expiry.String())
	assert.Nil(t, legs[1].Strike)
	assert.Nil(t, legs[1].Expiry)
	assert.InDelta(t, -1.0, legs[1].Quantity, 1e-9)

	second := []models.LegRecord{{TradeID: "B", TradeDate: models.NewDate(2024, 2, 1), Symbol: "SPY", Action: models.ActionSellToOpen, Quantity: 1, Premium: 2}}
	withTx(t, db, func(tx *sql.Tx) error {
		return ReplaceSourceTrades(tx, models.ImportBatch{ID: "b2", Source: models.SourceTradier, LegCount: 1, ImportedAt: importedAt.Add(time.Hour)}, second, nil)
	})

	legs, err = LoadSourceLegs(db, models.SourceTradier)
	require.NoError(t, err)
	require.Len(t, legs, 1)
	assert.Equal(t, "B", legs[0].TradeID)

	webull, err := LoadSourceLegs(db, models.SourceWebull)
	require.NoError(t, err)
	assert.Len(t, webull, 1, "other sources are untouched")

	batch, err := GetLatestBatch(db, models.SourceTradier)
	require.NoError(t, err)
	require.NotNil(t, batch)
	assert.Equal(t, "b2", batch.ID)

	none, err := GetLatestBatch(db, models.SourceFidelity)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestListRawTrades_OrderedByDateDescending(t *testing.T) {
	db := setupTestDB(t)
	legs := []models.LegRecord{
		{TradeDate: models.NewDate(2024, 1, 5), Symbol: "MSFT", Action: models.ActionBuyToOpen, Quantity: 1, Premium: 1},
		{TradeDate: models.NewDate(2024, 1, 9), Symbol: "AAPL", Action: models.ActionBuyToOpen, Quantity: 1, Premium: 1},
		{TradeDate: models.NewDate(2024, 1, 5), Symbol: "AAPL", Action: models.ActionBuyToOpen, Quantity: 1, Premium: 1},
	}
	withTx(t, db, func(tx *sql.Tx) error {
		return ReplaceSourceTrades(tx, models.ImportBatch{ID: "f1", Source: models.SourceFidelity, ImportedAt: time.Now()}, legs, []int{4, 5, 6})
	})

	trades, err := ListRawTrades(db, models.SourceFidelity)
	require.NoError(t, err)
	require.Len(t, trades, 3)
	assert.Equal(t, "2024-01-09", trades[0].TradeDate.String())
	assert.Equal(t, "AAPL", trades[1].Symbol)
	assert.Equal(t, "MSFT", trades[2].Symbol)
	assert.Equal(t, 4, trades[2].RowNumber)
	assert.Equal(t, models.SourceFidelity, trades[0].Source)
	assert.Equal(t, "f1", trades[0].BatchID)
}

func TestReplaceTradeLog_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	dte := 12
	trades := []models.AggregateTrade{
		{
			TradeID: "T-1", Source: models.SourceWebull, TradeDate: models.NewDate(2024, 1, 5),
			CloseDate: ptrDate(models.NewDate(2024, 1, 17)), Symbol: "CRM", Strategy: "Vertical",
			Expiration: ptrDate(models.NewDate(2024, 2, 16)), Strikes: "270/280", NetPremium: -2,
			TotalCost: 200, PL: 150, PLPercent: 0.75, Status: models.StatusClosed, WinLoss: models.OutcomeWin,
			DTE: &dte, Legs: 2, ClosedLegs: 2, OpenNet: -2, CloseNet: -0.5, SyntheticID: true,
		},
		{TradeID: "T-2", Source: models.SourceFidelity, TradeDate: models.NewDate(2024, 1, 8), Symbol: "SPY", Status: models.StatusOpen, Legs: 1},
	}
	withTx(t, db, func(tx *sql.Tx) error { return ReplaceTradeLog(tx, trades, time.Now()) })

	got, err := ListTradeLog(db)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, trades[1], got[0], "newest trade date first")
	assert.Equal(t, trades[0], got[1])

	withTx(t, db, func(tx *sql.Tx) error { return ReplaceTradeLog(tx, trades[:1], time.Now()) })
	got, err = ListTradeLog(db)
	require.NoError(t, err)
	assert.Len(t, got, 1, "replace drops trades missing from the new snapshot")
}

func TestRebuildAudit(t *testing.T) {
	db := setupTestDB(t)

	none, err := LatestRebuild(db)
	require.NoError(t, err)
	assert.Nil(t, none)

	rebuiltAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	withTx(t, db, func(tx *sql.Tx) error {
		return InsertRebuild(tx, models.RebuildResult{
			TradeCount: 7,
			Collisions: []models.MergeCollision{{TradeID: "x"}},
			Failures:   []models.SourceFailure{{Source: models.SourceTradier, Error: "boom"}},
			RebuiltAt:  rebuiltAt,
		})
	})

	rec, err := LatestRebuild(db)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 7, rec.TradeCount)
	assert.Equal(t, 1, rec.CollisionCount)
	assert.Equal(t, []string{"tradier"}, rec.FailedSources)
	assert.True(t, rebuiltAt.Equal(rec.RebuiltAt))
}
