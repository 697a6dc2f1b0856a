package model

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/username/optionledger/backend/src/models"
)

const tradeLogColumns = `trade_id, source, trade_date, close_date, symbol, strategy, expiration, strikes,
	net_premium, total_cost, pl, pl_percent, status, win_loss, dte, legs, closed_legs,
	open_net, close_net, synthetic_id`

// ReplaceTradeLog swaps the whole ledger for trades inside tx.
func ReplaceTradeLog(tx *sql.Tx, trades []models.AggregateTrade, updatedAt time.Time) error {
	if _, err := tx.Exec(`DELETE FROM trade_log`); err != nil {
		return fmt.Errorf("failed to clear trade log: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO trade_log (` + tradeLogColumns + `, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare trade log insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range trades {
		_, err := stmt.Exec(
			t.TradeID, t.Source, t.TradeDate, t.CloseDate, t.Symbol, t.Strategy, t.Expiration, t.Strikes,
			t.NetPremium, t.TotalCost, t.PL, t.PLPercent, t.Status, t.WinLoss, t.DTE, t.Legs, t.ClosedLegs,
			t.OpenNet, t.CloseNet, t.SyntheticID, updatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert trade %q: %w", t.TradeID, err)
		}
	}
	return nil
}

// ListTradeLog returns the ledger, newest trade date first.
func ListTradeLog(db *sql.DB) ([]models.AggregateTrade, error) {
	rows, err := db.Query(`SELECT ` + tradeLogColumns + ` FROM trade_log ORDER BY trade_date DESC, symbol ASC, trade_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade log: %w", err)
	}
	defer rows.Close()

	var trades []models.AggregateTrade
	for rows.Next() {
		var t models.AggregateTrade
		if err := rows.Scan(
			&t.TradeID, &t.Source, &t.TradeDate, &t.CloseDate, &t.Symbol, &t.Strategy, &t.Expiration, &t.Strikes,
			&t.NetPremium, &t.TotalCost, &t.PL, &t.PLPercent, &t.Status, &t.WinLoss, &t.DTE, &t.Legs, &t.ClosedLegs,
			&t.OpenNet, &t.CloseNet, &t.SyntheticID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trade log row: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// InsertRebuild records the outcome of a rebuild.
func InsertRebuild(tx *sql.Tx, result models.RebuildResult) error {
	failed := make([]string, 0, len(result.Failures))
	for _, f := range result.Failures {
		failed = append(failed, string(f.Source))
	}
	_, err := tx.Exec(`
		INSERT INTO ledger_rebuilds (rebuilt_at, trade_count, collision_count, failed_sources)
		VALUES (?, ?, ?, ?)`,
		result.RebuiltAt, result.TradeCount, len(result.Collisions), strings.Join(failed, ","))
	if err != nil {
		return fmt.Errorf("failed to record ledger rebuild: %w", err)
	}
	return nil
}

// LatestRebuild returns the most recent rebuild, or nil if the ledger was never built.
func LatestRebuild(db *sql.DB) (*models.RebuildRecord, error) {
	var rec models.RebuildRecord
	var failed string
	err := db.QueryRow(`
		SELECT id, rebuilt_at, trade_count, collision_count, failed_sources
		FROM ledger_rebuilds ORDER BY id DESC LIMIT 1`).Scan(
		&rec.ID, &rec.RebuiltAt, &rec.TradeCount, &rec.CollisionCount, &failed,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest rebuild: %w", err)
	}
	rec.FailedSources = []string{}
	if failed != "" {
		rec.FailedSources = strings.Split(failed, ",")
	}
	return &rec, nil
}
