// backend/src/processors/ledger_rebuilder.go
package processors

import (
	"fmt"
	"sort"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/username/optionledger/backend/src/logger"
	"github.com/username/optionledger/backend/src/models"
)

// RebuildLedger computes a fresh ledger from every source's legs. It touches no storage.
// Sources fold in models.SourceOrder and a later source replaces an earlier one on an
// identifier collision; each replacement is listed in the snapshot. A source whose fold
// fails is reported in Failures and contributes nothing.
func RebuildLedger(sources map[models.Source][]models.LegRecord, today models.Date) models.LedgerSnapshot {
	merged := make(map[string]models.AggregateTrade)
	snapshot := models.LedgerSnapshot{
		Collisions: []models.MergeCollision{},
		Failures:   []models.SourceFailure{},
	}

	for _, source := range models.SourceOrder {
		legs := sources[source]
		if len(legs) == 0 {
			continue
		}

		grouped, err := foldSource(legs, source, today)
		if err != nil {
			logger.L.Error("Failed to fold source legs", "source", source, "error", err)
			snapshot.Failures = append(snapshot.Failures, models.SourceFailure{Source: source, Error: err.Error()})
			continue
		}

		for _, id := range sortedKeys(grouped) {
			if previous, exists := merged[id]; exists {
				snapshot.Collisions = append(snapshot.Collisions, models.MergeCollision{
					TradeID:        id,
					ReplacedSource: previous.Source,
					WinningSource:  source,
				})
			}
			merged[id] = grouped[id]
		}
	}

	snapshot.Trades = make([]models.AggregateTrade, 0, len(merged))
	for _, id := range sortedKeys(merged) {
		snapshot.Trades = append(snapshot.Trades, merged[id])
	}
	return snapshot
}

func foldSource(legs []models.LegRecord, source models.Source, today models.Date) (grouped map[string]models.AggregateTrade, err error) {
	var catcher panics.Catcher
	catcher.Try(func() {
		grouped = GroupLegs(legs, source, today)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		return nil, fmt.Errorf("folding %s legs: %w", source, recovered.AsError())
	}
	return grouped, nil
}

func sortedKeys(m map[string]models.AggregateTrade) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LedgerRebuilder binds RebuildLedger to a clock so "today" is taken once per rebuild.
type LedgerRebuilder struct {
	clock func() time.Time
}

// NewLedgerRebuilder creates a rebuilder; a nil clock means time.Now.
func NewLedgerRebuilder(clock func() time.Time) *LedgerRebuilder {
	if clock == nil {
		clock = time.Now
	}
	return &LedgerRebuilder{clock: clock}
}

func (r *LedgerRebuilder) Rebuild(sources map[models.Source][]models.LegRecord) models.LedgerSnapshot {
	now := r.clock()
	snapshot := RebuildLedger(sources, models.DateOf(now))
	snapshot.RebuiltAt = now.UTC()
	return snapshot
}
