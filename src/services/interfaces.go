// backend/src/services/interfaces.go
package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/username/optionledger/backend/src/models"
)

// Define common service errors
var (
	ErrParsingFailed      = errors.New("csv parsing failed")
	ErrNoValidRows        = errors.New("no valid rows in upload")
	ErrPriceUnavailable   = errors.New("price unavailable")
	ErrChainUnavailable   = errors.New("options chain unavailable")
	ErrTradingUnavailable = errors.New("trading unavailable")
	ErrLegOrderFailed     = errors.New("leg order failed")
)

// RejectedImportError is returned when every row of an upload was rejected.
// The previously stored data for the source is left untouched.
type RejectedImportError struct {
	Rejected []models.RowRejection
}

func (e *RejectedImportError) Error() string {
	return fmt.Sprintf("%s: %d row(s) rejected", ErrNoValidRows, len(e.Rejected))
}

func (e *RejectedImportError) Unwrap() error { return ErrNoValidRows }

// LegOrderError reports the first leg whose order could not be placed. Leg is 1-based.
type LegOrderError struct {
	Leg int
	Err error
}

func (e *LegOrderError) Error() string {
	return fmt.Sprintf("Failed to place trade for leg %d", e.Leg)
}

func (e *LegOrderError) Unwrap() []error { return []error{ErrLegOrderFailed, e.Err} }

// LedgerService owns the raw legs of every source and the derived trade log.
type LedgerService interface {
	// ImportSource replaces everything stored for source with the parsed file and rebuilds the ledger.
	ImportSource(ctx context.Context, source models.Source, file io.Reader, filename string, size int64) (*models.ImportResult, error)
	Rebuild(ctx context.Context) (*models.RebuildResult, error)
	ListTradeLog(ctx context.Context) ([]models.AggregateTrade, error)
	ListRawTrades(ctx context.Context, source models.Source) ([]models.RawTrade, error)
	GetSummary(ctx context.Context) (*models.LedgerSummary, error)
	ExportTradeLogCSV(ctx context.Context, w io.Writer) error
	LatestRebuild(ctx context.Context) (*models.RebuildRecord, error)
}

// QuoteProvider is a market data API returning a last price.
type QuoteProvider interface {
	Name() string
	Quote(ctx context.Context, symbol string) (float64, error)
}

// ChainProvider returns a raw options chain.
type ChainProvider interface {
	OptionsChain(ctx context.Context, symbol, expiry string) (map[string]any, error)
}

// OrderBroker looks up chains and submits orders.
type OrderBroker interface {
	OptionChain(ctx context.Context, symbol, expiry string) (map[string]any, error)
	PlaceOrder(ctx context.Context, order models.OrderRequest) (map[string]any, error)
}

// PriceService resolves underlying prices across providers.
type PriceService interface {
	GetQuote(ctx context.Context, symbol, preferredSource string) (*models.Quote, error)
	GetQuotes(ctx context.Context, symbols []string, preferredSource string) []models.QuoteResult
	// PriceFor is the optional price lookup used to seed risk calculations.
	PriceFor(ctx context.Context, symbol string) (float64, bool)
	OptionsChain(ctx context.Context, symbol, expiry string) (map[string]any, error)
}

// RiskService evaluates strategy payoffs.
type RiskService interface {
	Calculate(ctx context.Context, req models.RiskRequest) (*models.RiskResult, error)
}

// TradingService places multi-leg strategy orders.
type TradingService interface {
	PlaceStrategyOrder(ctx context.Context, req models.PlaceTradeRequest) (*models.PlaceTradeResult, error)
}
