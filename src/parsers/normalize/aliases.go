package normalize

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Canonical field names.
const (
	FieldTradeID    = "trade_id"
	FieldTradeDate  = "trade_date"
	FieldSymbol     = "symbol"
	FieldStrategy   = "strategy"
	FieldStrike     = "strike"
	FieldOptionType = "option_type"
	FieldAction     = "action"
	FieldQuantity   = "quantity"
	FieldPremium    = "premium"
	FieldExpiry     = "expiry"
	FieldName       = "name"
	FieldStatus     = "status"
)

var knownFields = map[string]bool{
	FieldTradeID: true, FieldTradeDate: true, FieldSymbol: true, FieldStrategy: true,
	FieldStrike: true, FieldOptionType: true, FieldAction: true, FieldQuantity: true,
	FieldPremium: true, FieldExpiry: true, FieldName: true, FieldStatus: true,
}

//go:embed aliases.yaml
var defaultAliasesYAML []byte

// FieldAliases maps a canonical field to its accepted column names, highest priority first.
type FieldAliases map[string][]string

// DefaultAliases returns the built-in alias table.
func DefaultAliases() FieldAliases {
	aliases, err := parseAliases(defaultAliasesYAML)
	if err != nil {
		panic(fmt.Sprintf("normalize: embedded aliases.yaml is invalid: %v", err))
	}
	return aliases
}

// LoadAliases reads a YAML alias file and lays it over the defaults.
// Fields present in the file replace the default list for that field.
func LoadAliases(path string) (FieldAliases, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading alias file: %w", err)
	}
	overrides, err := parseAliases(data)
	if err != nil {
		return nil, err
	}
	aliases := DefaultAliases()
	for field, names := range overrides {
		aliases[field] = names
	}
	return aliases, nil
}

func parseAliases(data []byte) (FieldAliases, error) {
	var aliases FieldAliases
	if err := yaml.Unmarshal(data, &aliases); err != nil {
		return nil, fmt.Errorf("parsing alias yaml: %w", err)
	}
	for field, names := range aliases {
		if !knownFields[field] {
			return nil, fmt.Errorf("unknown field %q in alias table", field)
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("field %q has no aliases", field)
		}
	}
	return aliases, nil
}

// compactKey lowercases a header and drops everything that is not a letter or digit.
func compactKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
