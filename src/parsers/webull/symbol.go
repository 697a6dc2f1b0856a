package webull

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/optionledger/backend/src/models"
)

// occSymbolRe matches an OCC-style contract symbol: underlying, YYMMDD, C/P, strike x1000 in eight digits.
var occSymbolRe = regexp.MustCompile(`^([A-Z]+)(\d{6})([CP])(\d{8})$`)

var strikeDivisor = decimal.NewFromInt(1000)

// OptionSymbol is a decoded contract symbol.
type OptionSymbol struct {
	Underlying string
	Expiry     models.Date
	OptionType string
	Strike     float64
}

// DecodeOptionSymbol decodes symbols such as "CRM260206C00270000".
// Anything that does not match the fixed pattern, or carries an impossible date, reports false.
func DecodeOptionSymbol(s string) (OptionSymbol, bool) {
	m := occSymbolRe.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(s)))
	if m == nil {
		return OptionSymbol{}, false
	}

	yy, _ := strconv.Atoi(m[2][0:2])
	mm, _ := strconv.Atoi(m[2][2:4])
	dd, _ := strconv.Atoi(m[2][4:6])
	expiry := models.NewDate(2000+yy, time.Month(mm), dd)
	if expiry.Year() != 2000+yy || int(expiry.Month()) != mm || expiry.Day() != dd {
		return OptionSymbol{}, false
	}

	strike, err := decimal.NewFromString(m[4])
	if err != nil {
		return OptionSymbol{}, false
	}

	optionType := models.OptionTypeCall
	if m[3] == "P" {
		optionType = models.OptionTypePut
	}

	return OptionSymbol{
		Underlying: m[1],
		Expiry:     expiry,
		OptionType: optionType,
		Strike:     strike.Div(strikeDivisor).InexactFloat64(),
	}, true
}
