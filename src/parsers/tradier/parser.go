// backend/src/parsers/tradier/parser.go
package tradier

import (
	"fmt"
	"io"

	"github.com/username/optionledger/backend/src/models"
	"github.com/username/optionledger/backend/src/parsers/normalize"
)

// TradierParser reads Tradier order and position exports. Columns go through
// the generic alias table with no broker-specific rewriting.
type TradierParser struct {
	normalizer *normalize.Normalizer
}

func NewParser(n *normalize.Normalizer) *TradierParser {
	return &TradierParser{normalizer: n}
}

func (p *TradierParser) Parse(file io.Reader) (*models.ParseResult, error) {
	records, err := normalize.ReadRows(file)
	if err != nil {
		return nil, fmt.Errorf("tradier parser: %w", err)
	}
	return normalize.Collect(records, func(row normalize.Row) (models.LegRecord, bool, error) {
		leg, err := p.normalizer.NormalizeLeg(row)
		return leg, err == nil, err
	}), nil
}
