// backend/src/parsers/fidelity/parser.go
package fidelity

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/username/optionledger/backend/src/models"
	"github.com/username/optionledger/backend/src/parsers/normalize"
)

// optionSymbolRe matches Fidelity's option notation, e.g. "-AAPL240216C185" or "-SPY240315P412.5".
var optionSymbolRe = regexp.MustCompile(`^-([A-Z]+)(\d{2})(\d{2})(\d{2})([CP])(\d+(?:\.\d+)?)$`)

// Activity lines that move cash rather than trade contracts.
var nonTradePrefixes = []string{
	"DIVIDEND", "REINVESTMENT", "INTEREST", "ELECTRONIC FUNDS", "TRANSFER", "JOURNALED", "FOREIGN TAX",
}

// FidelityParser reads Fidelity account activity exports.
type FidelityParser struct {
	normalizer *normalize.Normalizer
}

func NewParser(n *normalize.Normalizer) *FidelityParser {
	return &FidelityParser{normalizer: n}
}

func (p *FidelityParser) Parse(file io.Reader) (*models.ParseResult, error) {
	records, err := normalize.ReadRows(file)
	if err != nil {
		return nil, fmt.Errorf("fidelity parser: %w", err)
	}
	return normalize.Collect(records, p.convert), nil
}

func (p *FidelityParser) convert(row normalize.Row) (models.LegRecord, bool, error) {
	f := p.normalizer.Resolve(row)

	action := strings.ToUpper(normalize.AsString(f.Action))
	for _, prefix := range nonTradePrefixes {
		if strings.HasPrefix(action, prefix) {
			return models.LegRecord{}, false, nil
		}
	}
	f.Action = MapAction(action)

	if m := optionSymbolRe.FindStringSubmatch(strings.ToUpper(normalize.AsString(f.Symbol))); m != nil {
		f.Symbol = m[1]
		f.Expiry = "20" + m[2] + "-" + m[3] + "-" + m[4]
		f.OptionType = m[5]
		if strike, err := strconv.ParseFloat(m[6], 64); err == nil {
			f.Strike = strike
		}
	}

	leg, err := p.normalizer.Build(f)
	if err != nil {
		return models.LegRecord{}, false, err
	}
	return leg, true, nil
}

// MapAction folds Fidelity's narrative actions ("YOU SOLD OPENING TRANSACTION ...") into order codes.
// Anything else goes through the generic action normalization.
func MapAction(action string) string {
	upper := strings.ToUpper(action)
	bought := strings.Contains(upper, "BOUGHT")
	sold := strings.Contains(upper, "SOLD")
	switch {
	case bought && strings.Contains(upper, "OPENING TRANSACTION"):
		return models.ActionBuyToOpen
	case sold && strings.Contains(upper, "OPENING TRANSACTION"):
		return models.ActionSellToOpen
	case sold && strings.Contains(upper, "CLOSING TRANSACTION"):
		return models.ActionSellToClose
	case bought && strings.Contains(upper, "CLOSING TRANSACTION"):
		return models.ActionBuyToClose
	}
	return normalize.NormalizeAction(action)
}
