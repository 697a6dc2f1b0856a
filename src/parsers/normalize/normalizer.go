package normalize

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/username/optionledger/backend/src/models"
	"github.com/username/optionledger/backend/src/security/validation"
)

// ErrDataError marks a row whose required fields are missing or malformed.
var ErrDataError = errors.New("data error")

// RowError reports the field that made a row unusable.
type RowError struct {
	Field  string
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrDataError, e.Field, e.Reason)
}

func (e *RowError) Unwrap() error { return ErrDataError }

// Row is one source record keyed by its column header.
// Values are usually strings but time and numeric values are accepted as well.
type Row map[string]any

// Fields holds the raw values resolved for each canonical field, before validation.
type Fields struct {
	TradeID    any
	TradeDate  any
	Symbol     any
	Strategy   any
	Strike     any
	OptionType any
	Action     any
	Quantity   any
	Premium    any
	Expiry     any
	Name       any
	Status     any
}

// Normalizer resolves rows against an alias table.
type Normalizer struct {
	aliases FieldAliases
}

// NewNormalizer builds a Normalizer; a nil table means the defaults.
func NewNormalizer(aliases FieldAliases) *Normalizer {
	if aliases == nil {
		aliases = DefaultAliases()
	}
	return &Normalizer{aliases: aliases}
}

var defaultNormalizer = NewNormalizer(nil)

// NormalizeLeg converts a row into a canonical leg using the default aliases.
func NormalizeLeg(row Row) (models.LegRecord, error) {
	return defaultNormalizer.NormalizeLeg(row)
}

// NormalizeLeg converts a row into a canonical leg.
func (n *Normalizer) NormalizeLeg(row Row) (models.LegRecord, error) {
	return n.Build(n.Resolve(row))
}

// Resolve looks up every canonical field in row. The first alias holding a non-blank value wins.
// Headers that compact to the same key are taken in sorted order, first non-blank wins.
func (n *Normalizer) Resolve(row Row) Fields {
	keys := make([]string, 0, len(row))
	for key := range row {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	index := make(map[string]any, len(row))
	for _, key := range keys {
		value := row[key]
		ck := compactKey(key)
		if existing, ok := index[ck]; ok && !isBlank(existing) {
			continue
		}
		index[ck] = value
	}
	lookup := func(field string) any {
		for _, alias := range n.aliases[field] {
			if v, ok := index[compactKey(alias)]; ok && !isBlank(v) {
				return v
			}
		}
		return nil
	}
	return Fields{
		TradeID:    lookup(FieldTradeID),
		TradeDate:  lookup(FieldTradeDate),
		Symbol:     lookup(FieldSymbol),
		Strategy:   lookup(FieldStrategy),
		Strike:     lookup(FieldStrike),
		OptionType: lookup(FieldOptionType),
		Action:     lookup(FieldAction),
		Quantity:   lookup(FieldQuantity),
		Premium:    lookup(FieldPremium),
		Expiry:     lookup(FieldExpiry),
		Name:       lookup(FieldName),
		Status:     lookup(FieldStatus),
	}
}

// Build validates resolved fields and produces the canonical leg.
func (n *Normalizer) Build(f Fields) (models.LegRecord, error) {
	symbol := validation.SanitizeSymbol(AsString(f.Symbol))
	if symbol == "" {
		return models.LegRecord{}, &RowError{Field: FieldSymbol, Reason: "is missing"}
	}

	tradeDate, ok := ParseDate(f.TradeDate)
	if !ok {
		return models.LegRecord{}, &RowError{Field: FieldTradeDate, Reason: fmt.Sprintf("is missing or unparseable (%q)", AsString(f.TradeDate))}
	}

	quantity, ok := ParseNumber(f.Quantity)
	if !ok {
		return models.LegRecord{}, &RowError{Field: FieldQuantity, Reason: fmt.Sprintf("is missing or not a number (%q)", AsString(f.Quantity))}
	}

	premium, ok := ParseNumber(f.Premium)
	if !ok {
		return models.LegRecord{}, &RowError{Field: FieldPremium, Reason: fmt.Sprintf("is missing or not a number (%q)", AsString(f.Premium))}
	}

	leg := models.LegRecord{
		TradeID:    validation.SanitizeLabel(AsString(f.TradeID)),
		TradeDate:  tradeDate,
		Symbol:     symbol,
		Strategy:   validation.SanitizeLabel(AsString(f.Strategy)),
		OptionType: NormalizeOptionType(AsString(f.OptionType)),
		Action:     NormalizeAction(AsString(f.Action)),
		Quantity:   quantity,
		Premium:    math.Abs(premium),
	}
	if strike, ok := ParseNumber(f.Strike); ok {
		leg.Strike = &strike
	}
	if expiry, ok := ParseDate(f.Expiry); ok {
		leg.Expiry = &expiry
	}
	return leg, nil
}

var actionSynonyms = map[string]string{
	"BUY TO OPEN":   models.ActionBuyToOpen,
	"SELL TO OPEN":  models.ActionSellToOpen,
	"SELL TO CLOSE": models.ActionSellToClose,
	"BUY TO CLOSE":  models.ActionBuyToClose,
	"BUY_TO_OPEN":   models.ActionBuyToOpen,
	"SELL_TO_OPEN":  models.ActionSellToOpen,
	"SELL_TO_CLOSE": models.ActionSellToClose,
	"BUY_TO_CLOSE":  models.ActionBuyToClose,
}

// NormalizeAction uppercases an action and folds spelled-out forms into their codes.
// Unrecognized actions are returned as-is.
func NormalizeAction(s string) string {
	upper := strings.ToUpper(strings.Join(strings.Fields(s), " "))
	if code, ok := actionSynonyms[upper]; ok {
		return code
	}
	return upper
}

// NormalizeOptionType maps C/P and CALL/PUT spellings; anything else becomes empty.
func NormalizeOptionType(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "C", "CALL", "CALLS":
		return models.OptionTypeCall
	case "P", "PUT", "PUTS":
		return models.OptionTypePut
	}
	return ""
}

// ParseNumber reads a numeric cell, tolerating currency symbols, thousands separators,
// a leading "@" and accounting-style parentheses for negatives.
func ParseNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return ParseNumber(float64(n))
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		return parseNumberString(n)
	case []byte:
		return parseNumberString(string(n))
	}
	return 0, false
}

func parseNumberString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", ",", "", "@", "", " ", "").Replace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if negative {
		f = -f
	}
	return f, true
}

// AsString renders a raw cell as trimmed text.
func AsString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case []byte:
		return strings.TrimSpace(string(s))
	case fmt.Stringer:
		return strings.TrimSpace(s.String())
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
