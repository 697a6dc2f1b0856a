package models

import (
	"database/sql"
	"time"
)

// Trade lifecycle states.
const (
	StatusOpen   = "Open"
	StatusClosed = "Closed"
)

// Outcome labels of a closed trade.
const (
	OutcomeWin       = "Win"
	OutcomeLoss      = "Loss"
	OutcomeBreakEven = "BreakEven"
)

// AggregateTrade is one round-trip position folded from its legs.
type AggregateTrade struct {
	TradeID     string  `json:"trade_id"`
	Source      Source  `json:"source"`
	TradeDate   Date    `json:"trade_date"`
	CloseDate   *Date   `json:"close_date"`
	Symbol      string  `json:"symbol"`
	Strategy    string  `json:"strategy"`
	Expiration  *Date   `json:"expiration"`
	Strikes     string  `json:"strikes"`
	NetPremium  float64 `json:"net_premium"`
	TotalCost   float64 `json:"total_cost"`
	PL          float64 `json:"pl"`
	PLPercent   float64 `json:"pl_percent"`
	Status      string  `json:"status"`
	WinLoss     string  `json:"win_loss"`
	DTE         *int    `json:"dte"`
	Legs        int     `json:"legs"`
	ClosedLegs  int     `json:"closed_legs"`
	OpenNet     float64 `json:"open_net"`
	CloseNet    float64 `json:"close_net"`
	SyntheticID bool    `json:"synthetic_id"`
}

// MergeCollision records an aggregate replaced by a later source during a rebuild.
type MergeCollision struct {
	TradeID        string `json:"trade_id"`
	ReplacedSource Source `json:"replaced_source"`
	WinningSource  Source `json:"winning_source"`
}

// SourceFailure records a source whose legs could not be loaded or folded.
type SourceFailure struct {
	Source Source `json:"source"`
	Error  string `json:"error"`
}

// LedgerSnapshot is the complete output of one rebuild.
type LedgerSnapshot struct {
	Trades     []AggregateTrade `json:"trades"`
	Collisions []MergeCollision `json:"collisions"`
	Failures   []SourceFailure  `json:"failures"`
	RebuiltAt  time.Time        `json:"rebuilt_at"`
}

// RebuildResult is what a rebuild reports back to callers; trades are omitted.
type RebuildResult struct {
	TradeCount int              `json:"trade_count"`
	Collisions []MergeCollision `json:"collisions"`
	Failures   []SourceFailure  `json:"failures"`
	RebuiltAt  time.Time        `json:"rebuilt_at"`
}

// RebuildRecord is a persisted rebuild audit entry.
type RebuildRecord struct {
	ID             int64     `json:"id"`
	RebuiltAt      time.Time `json:"rebuilt_at"`
	TradeCount     int       `json:"trade_count"`
	CollisionCount int       `json:"collision_count"`
	FailedSources  []string  `json:"failed_sources"`
}

// LedgerSummary aggregates statistics over the trade log.
type LedgerSummary struct {
	TotalTrades      int     `json:"total_trades"`
	OpenTrades       int     `json:"open_trades"`
	ClosedTrades     int     `json:"closed_trades"`
	Wins             int     `json:"wins"`
	Losses           int     `json:"losses"`
	BreakEvens       int     `json:"break_evens"`
	WinRate          float64 `json:"win_rate"`
	TotalPL          float64 `json:"total_pl"`
	AveragePL        float64 `json:"average_pl"`
	PLStdDev         float64 `json:"pl_std_dev"`
	AveragePLPercent float64 `json:"average_pl_percent"`
	AverageDaysHeld  float64 `json:"average_days_held"`
	OpenCapital      float64 `json:"open_capital"`
}

// NullTime is sql.NullTime with null-aware JSON.
type NullTime sql.NullTime

func (nt NullTime) MarshalJSON() ([]byte, error) {
	if !nt.Valid {
		return []byte("null"), nil
	}
	return nt.Time.MarshalJSON()
}

// Scan implements sql.Scanner.
func (nt *NullTime) Scan(value any) error {
	return (*sql.NullTime)(nt).Scan(value)
}
