// backend/src/services/ledger_service.go
package services

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/username/optionledger/backend/src/logger"
	"github.com/username/optionledger/backend/src/model"
	"github.com/username/optionledger/backend/src/models"
	"github.com/username/optionledger/backend/src/parsers"
	"github.com/username/optionledger/backend/src/parsers/normalize"
	"github.com/username/optionledger/backend/src/processors"
	"github.com/username/optionledger/backend/src/security/validation"
	"github.com/username/optionledger/backend/src/utils"
)

const (
	ckTradeLog             = "res_trade_log"
	ckLedgerSummary        = "agg_ledger_summary"
	ckRawTrades            = "res_raw_trades_%s"
	ckLatestRebuild        = "agg_latest_rebuild"
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

var tradeLogCSVHeader = []string{
	"trade_id", "source", "trade_date", "close_date", "symbol", "strategy", "expiration", "strikes",
	"net_premium", "total_cost", "pl", "pl_percent", "status", "win_loss", "dte", "legs", "closed_legs",
}

type ledgerServiceImpl struct {
	db          *sql.DB
	normalizer  *normalize.Normalizer
	rebuilder   *processors.LedgerRebuilder
	reportCache *cache.Cache
	clock       func() time.Time

	// mu serializes imports and rebuilds so the trade log always reflects one consistent set of sources.
	// Cache fills on the read paths hold it for reading.
	mu sync.RWMutex
}

func NewLedgerService(
	db *sql.DB,
	normalizer *normalize.Normalizer,
	rebuilder *processors.LedgerRebuilder,
	reportCache *cache.Cache,
	clock func() time.Time,
) LedgerService {
	if clock == nil {
		clock = time.Now
	}
	return &ledgerServiceImpl{
		db:          db,
		normalizer:  normalizer,
		rebuilder:   rebuilder,
		reportCache: reportCache,
		clock:       clock,
	}
}

func (s *ledgerServiceImpl) ImportSource(ctx context.Context, source models.Source, file io.Reader, filename string, size int64) (*models.ImportResult, error) {
	log := logger.ForImport(ctx, string(source), filename)

	parser, err := parsers.GetParser(source, s.normalizer)
	if err != nil {
		return nil, err
	}

	parsed, err := parser.Parse(file)
	if err != nil {
		log.Warn("Failed to parse upload", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	log.Info("Upload parsed", "legs", len(parsed.Legs), "rejected", len(parsed.Rejected), "skipped", parsed.Skipped)

	if len(parsed.Legs) == 0 && len(parsed.Rejected) > 0 {
		return nil, &RejectedImportError{Rejected: parsed.Rejected}
	}

	batch := models.ImportBatch{
		ID:            uuid.NewString(),
		Source:        source,
		Filename:      filename,
		FileSize:      size,
		LegCount:      len(parsed.Legs),
		RejectedCount: len(parsed.Rejected),
		ImportedAt:    s.clock().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer tx.Rollback()

	if err := model.ReplaceSourceTrades(tx, batch, parsed.Legs, parsed.RowNumbers); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}
	s.reportCache.Delete(fmt.Sprintf(ckRawTrades, source))
	log.Info("Source replaced", "batchID", batch.ID, "legs", batch.LegCount)

	rebuild, err := s.rebuildLocked(ctx)
	if err != nil {
		return nil, fmt.Errorf("import %s stored but ledger rebuild failed: %w", batch.ID, err)
	}

	rejected := parsed.Rejected
	if rejected == nil {
		rejected = []models.RowRejection{}
	}
	return &models.ImportResult{
		Batch:    batch,
		Rejected: rejected,
		Skipped:  parsed.Skipped,
		Rebuild:  rebuild,
	}, nil
}

func (s *ledgerServiceImpl) Rebuild(ctx context.Context) (*models.RebuildResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuildLocked(ctx)
}

// rebuildLocked recomputes the trade log from every stored source. Callers hold s.mu.
func (s *ledgerServiceImpl) rebuildLocked(ctx context.Context) (*models.RebuildResult, error) {
	ctx, log := logger.ForRebuild(ctx, uuid.NewString())

	sources := make(map[models.Source][]models.LegRecord, len(models.SourceOrder))
	var loadFailures []models.SourceFailure
	for _, source := range models.SourceOrder {
		legs, err := model.LoadSourceLegs(s.db, source)
		if err != nil {
			log.Error("Failed to load source legs, excluding source from rebuild", "source", source, "error", err)
			loadFailures = append(loadFailures, models.SourceFailure{Source: source, Error: err.Error()})
			continue
		}
		sources[source] = legs
	}

	snapshot := s.rebuilder.Rebuild(sources)
	if len(loadFailures) > 0 {
		snapshot.Failures = append(loadFailures, snapshot.Failures...)
	}

	result := models.RebuildResult{
		TradeCount: len(snapshot.Trades),
		Collisions: snapshot.Collisions,
		Failures:   snapshot.Failures,
		RebuiltAt:  snapshot.RebuiltAt,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin rebuild transaction: %w", err)
	}
	defer tx.Rollback()

	if err := model.ReplaceTradeLog(tx, snapshot.Trades, snapshot.RebuiltAt); err != nil {
		return nil, err
	}
	if err := model.InsertRebuild(tx, result); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit rebuild: %w", err)
	}

	s.invalidateLedgerCache()

	for _, c := range result.Collisions {
		log.Warn("Trade identifier collision", "tradeID", c.TradeID, "replaced", c.ReplacedSource, "winner", c.WinningSource)
	}
	log.Info("Ledger rebuilt", "trades", result.TradeCount, "collisions", len(result.Collisions), "failures", len(result.Failures))
	return &result, nil
}

func (s *ledgerServiceImpl) invalidateLedgerCache() {
	s.reportCache.Delete(ckTradeLog)
	s.reportCache.Delete(ckLedgerSummary)
	s.reportCache.Delete(ckLatestRebuild)
}

func (s *ledgerServiceImpl) ListTradeLog(ctx context.Context) ([]models.AggregateTrade, error) {
	if cached, found := s.reportCache.Get(ckTradeLog); found {
		logger.FromContext(ctx).Debug("CACHE HIT for trade log")
		return cached.([]models.AggregateTrade), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tradeLogRLocked()
}

// tradeLogRLocked loads and caches the trade log. Callers hold s.mu for reading.
func (s *ledgerServiceImpl) tradeLogRLocked() ([]models.AggregateTrade, error) {
	if cached, found := s.reportCache.Get(ckTradeLog); found {
		return cached.([]models.AggregateTrade), nil
	}
	trades, err := model.ListTradeLog(s.db)
	if err != nil {
		return nil, err
	}
	if trades == nil {
		trades = []models.AggregateTrade{}
	}
	s.reportCache.Set(ckTradeLog, trades, cache.DefaultExpiration)
	return trades, nil
}

func (s *ledgerServiceImpl) ListRawTrades(ctx context.Context, source models.Source) ([]models.RawTrade, error) {
	cacheKey := fmt.Sprintf(ckRawTrades, source)
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.FromContext(ctx).Debug("CACHE HIT for raw trades", "source", source)
		return cached.([]models.RawTrade), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.([]models.RawTrade), nil
	}
	rows, err := model.ListRawTrades(s.db, source)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.RawTrade{}
	}
	s.reportCache.Set(cacheKey, rows, cache.DefaultExpiration)
	return rows, nil
}

func (s *ledgerServiceImpl) GetSummary(ctx context.Context) (*models.LedgerSummary, error) {
	if cached, found := s.reportCache.Get(ckLedgerSummary); found {
		return cached.(*models.LedgerSummary), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if cached, found := s.reportCache.Get(ckLedgerSummary); found {
		return cached.(*models.LedgerSummary), nil
	}
	trades, err := s.tradeLogRLocked()
	if err != nil {
		return nil, err
	}
	summary := processors.SummarizeLedger(trades)
	s.reportCache.Set(ckLedgerSummary, &summary, cache.DefaultExpiration)
	return &summary, nil
}

func (s *ledgerServiceImpl) LatestRebuild(ctx context.Context) (*models.RebuildRecord, error) {
	if cached, found := s.reportCache.Get(ckLatestRebuild); found {
		return cached.(*models.RebuildRecord), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	record, err := model.LatestRebuild(s.db)
	if err != nil {
		return nil, err
	}
	if record != nil {
		s.reportCache.Set(ckLatestRebuild, record, cache.DefaultExpiration)
	}
	return record, nil
}

// ExportTradeLogCSV writes the trade log as CSV. Text cells are escaped against spreadsheet formula injection.
func (s *ledgerServiceImpl) ExportTradeLogCSV(ctx context.Context, w io.Writer) error {
	trades, err := s.ListTradeLog(ctx)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(tradeLogCSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, t := range trades {
		record := []string{
			validation.SanitizeForFormulaInjection(t.TradeID),
			string(t.Source),
			t.TradeDate.String(),
			optionalDate(t.CloseDate),
			validation.SanitizeForFormulaInjection(t.Symbol),
			validation.SanitizeForFormulaInjection(t.Strategy),
			optionalDate(t.Expiration),
			validation.SanitizeForFormulaInjection(t.Strikes),
			formatAmount(t.NetPremium),
			formatAmount(t.TotalCost),
			formatAmount(t.PL),
			formatAmount(t.PLPercent),
			t.Status,
			t.WinLoss,
			optionalInt(t.DTE),
			strconv.Itoa(t.Legs),
			strconv.Itoa(t.ClosedLegs),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record for %s: %w", t.TradeID, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV export: %w", err)
	}
	return nil
}

func optionalDate(d *models.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(utils.RoundFloat(v, 2), 'f', 2, 64)
}
