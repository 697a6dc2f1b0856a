package model

import (
	"database/sql"
	"fmt"

	"github.com/username/optionledger/backend/src/models"
)

const rawTradeColumns = `trade_id, trade_date, symbol, strategy, strike, option_type, action, quantity, premium, expiry`

// ReplaceSourceTrades wipes every batch stored for batch.Source and stores legs as the new batch.
// rowNumbers may be nil, in which case legs are numbered by position.
func ReplaceSourceTrades(tx *sql.Tx, batch models.ImportBatch, legs []models.LegRecord, rowNumbers []int) error {
	if _, err := tx.Exec(`DELETE FROM raw_trades WHERE source = ?`, batch.Source); err != nil {
		return fmt.Errorf("failed to delete raw trades for %s: %w", batch.Source, err)
	}
	if _, err := tx.Exec(`DELETE FROM import_batches WHERE source = ?`, batch.Source); err != nil {
		return fmt.Errorf("failed to delete import batches for %s: %w", batch.Source, err)
	}

	_, err := tx.Exec(`
		INSERT INTO import_batches (id, source, filename, file_size, leg_count, rejected_count, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		batch.ID, batch.Source, batch.Filename, batch.FileSize, batch.LegCount, batch.RejectedCount, batch.ImportedAt)
	if err != nil {
		return fmt.Errorf("failed to record import batch: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO raw_trades (source, batch_id, row_number, ` + rawTradeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare raw trade insert: %w", err)
	}
	defer stmt.Close()

	for i, leg := range legs {
		rowNumber := i + 1
		if i < len(rowNumbers) {
			rowNumber = rowNumbers[i]
		}
		_, err := stmt.Exec(
			batch.Source, batch.ID, rowNumber,
			leg.TradeID, leg.TradeDate, leg.Symbol, leg.Strategy, leg.Strike,
			leg.OptionType, leg.Action, leg.Quantity, leg.Premium, leg.Expiry,
		)
		if err != nil {
			return fmt.Errorf("failed to insert raw trade (row %d): %w", rowNumber, err)
		}
	}
	return nil
}

// LoadSourceLegs returns a source's legs in import order, which is the fold order.
func LoadSourceLegs(db *sql.DB, source models.Source) ([]models.LegRecord, error) {
	rows, err := db.Query(`SELECT `+rawTradeColumns+` FROM raw_trades WHERE source = ? ORDER BY id ASC`, source)
	if err != nil {
		return nil, fmt.Errorf("failed to query legs for %s: %w", source, err)
	}
	defer rows.Close()

	var legs []models.LegRecord
	for rows.Next() {
		var leg models.LegRecord
		if err := rows.Scan(
			&leg.TradeID, &leg.TradeDate, &leg.Symbol, &leg.Strategy, &leg.Strike,
			&leg.OptionType, &leg.Action, &leg.Quantity, &leg.Premium, &leg.Expiry,
		); err != nil {
			return nil, fmt.Errorf("failed to scan leg for %s: %w", source, err)
		}
		legs = append(legs, leg)
	}
	return legs, rows.Err()
}

// ListRawTrades returns a source's stored legs, newest trade date first.
func ListRawTrades(db *sql.DB, source models.Source) ([]models.RawTrade, error) {
	rows, err := db.Query(`
		SELECT id, source, batch_id, row_number, `+rawTradeColumns+`, created_at
		FROM raw_trades
		WHERE source = ?
		ORDER BY trade_date DESC, symbol ASC, id ASC`, source)
	if err != nil {
		return nil, fmt.Errorf("failed to query raw trades for %s: %w", source, err)
	}
	defer rows.Close()

	var trades []models.RawTrade
	for rows.Next() {
		var rt models.RawTrade
		if err := rows.Scan(
			&rt.ID, &rt.Source, &rt.BatchID, &rt.RowNumber,
			&rt.TradeID, &rt.TradeDate, &rt.Symbol, &rt.Strategy, &rt.Strike,
			&rt.OptionType, &rt.Action, &rt.Quantity, &rt.Premium, &rt.Expiry,
			&rt.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan raw trade: %w", err)
		}
		trades = append(trades, rt)
	}
	return trades, rows.Err()
}

// GetLatestBatch returns the batch currently stored for source, or nil when the source is empty.
func GetLatestBatch(db *sql.DB, source models.Source) (*models.ImportBatch, error) {
	var batch models.ImportBatch
	err := db.QueryRow(`
		SELECT id, source, filename, file_size, leg_count, rejected_count, imported_at
		FROM import_batches WHERE source = ?
		ORDER BY imported_at DESC LIMIT 1`, source).Scan(
		&batch.ID, &batch.Source, &batch.Filename, &batch.FileSize,
		&batch.LegCount, &batch.RejectedCount, &batch.ImportedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query import batch for %s: %w", source, err)
	}
	return &batch, nil
}
