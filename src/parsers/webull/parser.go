// backend/src/parsers/webull/parser.go
package webull

import (
	"fmt"
	"io"
	"strings"

	"github.com/username/optionledger/backend/src/models"
	"github.com/username/optionledger/backend/src/parsers/normalize"
)

// strategyKeywords maps words found in a Webull order name to a strategy label. First match wins.
var strategyKeywords = []struct {
	keyword string
	label   string
}{
	{"iron condor", "Iron Condor"},
	{"iron butterfly", "Iron Butterfly"},
	{"butterfly", "Butterfly"},
	{"poor man", "PMCC"},
	{"pmcc", "PMCC"},
	{"diagonal", "Diagonal"},
	{"calendar", "Calendar"},
	{"vertical", "Vertical"},
	{"spread", "Vertical"},
	{"straddle", "Straddle"},
	{"strangle", "Strangle"},
	{"covered call", "Covered Call"},
}

// WebullParser reads Webull order history exports.
type WebullParser struct {
	normalizer *normalize.Normalizer
}

func NewParser(n *normalize.Normalizer) *WebullParser {
	return &WebullParser{normalizer: n}
}

func (p *WebullParser) Parse(file io.Reader) (*models.ParseResult, error) {
	records, err := normalize.ReadRows(file)
	if err != nil {
		return nil, fmt.Errorf("webull parser: %w", err)
	}
	return normalize.Collect(records, p.convert), nil
}

func (p *WebullParser) convert(row normalize.Row) (models.LegRecord, bool, error) {
	f := p.normalizer.Resolve(row)

	// Cancelled and working orders appear in the export alongside fills.
	if !isFilled(normalize.AsString(f.Status)) {
		return models.LegRecord{}, false, nil
	}

	name := normalize.AsString(f.Name)
	decoded, ok := DecodeOptionSymbol(name)
	if !ok {
		decoded, ok = DecodeOptionSymbol(normalize.AsString(f.Symbol))
	}
	if ok {
		f.Symbol = decoded.Underlying
		f.Expiry = decoded.Expiry
		f.OptionType = decoded.OptionType
		f.Strike = decoded.Strike
	}

	f.Action = MapSide(normalize.AsString(f.Action))
	if label := StrategyFromName(name); label != "" {
		f.Strategy = label
	}

	leg, err := p.normalizer.Build(f)
	if err != nil {
		return models.LegRecord{}, false, err
	}
	return leg, true, nil
}

func isFilled(status string) bool {
	switch strings.ToLower(status) {
	case "", "filled", "partially filled":
		return true
	}
	return false
}

// MapSide converts Webull's BUY/SELL sides into opening codes. Explicit codes pass through normalized.
func MapSide(side string) string {
	switch strings.ToUpper(strings.TrimSpace(side)) {
	case "BUY":
		return models.ActionBuyToOpen
	case "SELL":
		return models.ActionSellToOpen
	}
	return normalize.NormalizeAction(side)
}

// StrategyFromName derives a strategy label from keywords in an order name.
func StrategyFromName(name string) string {
	lower := strings.ToLower(name)
	for _, k := range strategyKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.label
		}
	}
	return ""
}
