// backend/src/models/canonical.go
package models

import (
	"fmt"
	"strings"
)

// Source identifies the brokerage export a leg came from.
type Source string

const (
	SourceFidelity Source = "fidelity"
	SourceTradier  Source = "tradier"
	SourceWebull   Source = "webull"
)

// SourceOrder is the fixed merge order of a ledger rebuild. Later sources win on collision.
var SourceOrder = []Source{SourceFidelity, SourceTradier, SourceWebull}

// ParseSource resolves a case-insensitive source name.
func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceFidelity:
		return SourceFidelity, nil
	case SourceTradier:
		return SourceTradier, nil
	case SourceWebull:
		return SourceWebull, nil
	}
	return "", fmt.Errorf("unknown source %q", s)
}

// Order action codes.
const (
	ActionBuyToOpen   = "BTO"
	ActionSellToOpen  = "STO"
	ActionSellToClose = "STC"
	ActionBuyToClose  = "BTC"
)

// Option types.
const (
	OptionTypeCall = "CALL"
	OptionTypePut  = "PUT"
)

// LegRecord is the canonical form of one executed order line.
// Parsers produce it; the trade grouper folds it.
type LegRecord struct {
	TradeID    string   `json:"trade_id"`
	TradeDate  Date     `json:"trade_date"`
	Symbol     string   `json:"symbol"`
	Strategy   string   `json:"strategy"`
	Strike     *float64 `json:"strike"`
	OptionType string   `json:"option_type,omitempty"`
	Action     string   `json:"action"`
	Quantity   float64  `json:"quantity"` // signed contract count
	Premium    float64  `json:"premium"`  // per-contract price, never negative
	Expiry     *Date    `json:"expiry"`
}

// IsClosing reports whether the leg closes an existing position.
func (l LegRecord) IsClosing() bool {
	return l.Action == ActionSellToClose || l.Action == ActionBuyToClose
}

// RawTrade is a leg as persisted for one source.
type RawTrade struct {
	ID        int64  `json:"id"`
	Source    Source `json:"source"`
	BatchID   string `json:"batch_id"`
	RowNumber int    `json:"row_number"`
	LegRecord
	CreatedAt NullTime `json:"created_at"`
}
