package models

import "time"

// Quote sources.
const (
	QuoteSourceTradier = "tradier"
	QuoteSourceWebull  = "webull"
)

// Quote is a last-price observation from a market data provider.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
}

// QuoteResult is one entry of a batch quote lookup. Price is nil when unavailable.
type QuoteResult struct {
	Symbol string   `json:"symbol"`
	Price  *float64 `json:"price"`
	Source string   `json:"source,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// OrderRequest is the payload sent to the brokerage order endpoint.
type OrderRequest struct {
	Symbol    string   `json:"symbol"`
	OptionID  string   `json:"option_id"`
	Quantity  int      `json:"quantity"`
	Action    string   `json:"action"`
	OrderType string   `json:"order_type"`
	Price     *float64 `json:"price,omitempty"`
}

// PlaceTradeRequest asks for one order per strategy leg.
type PlaceTradeRequest struct {
	Strategy   string    `json:"strategy"`
	Symbol     string    `json:"symbol"`
	Expiry     string    `json:"expiry"`
	Strikes    []float64 `json:"strikes"`
	Quantities []float64 `json:"quantities"`
	Action     string    `json:"action"` // "open" or "close"
	OrderType  string    `json:"order_type,omitempty"`
	Prices     []float64 `json:"prices,omitempty"`
}

// PlaceTradeResult summarizes submitted orders. Legs holds the raw brokerage confirmations.
type PlaceTradeResult struct {
	OrderID string           `json:"order_id"`
	Status  string           `json:"status"`
	Message string           `json:"message"`
	Legs    []map[string]any `json:"legs"`
}
