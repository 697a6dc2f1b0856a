// backend/src/security/validation/sanitizers.go
package validation

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var strictHTMLPolicy = bluemonday.StrictPolicy()

// SanitizeText strips all HTML from s and returns plain text.
// bluemonday escapes entities on output; they are decoded again so "P&L" survives as typed.
func SanitizeText(s string) string {
	return html.UnescapeString(strictHTMLPolicy.Sanitize(s))
}

// SanitizeLabel cleans a free-text label coming from an uploaded file.
func SanitizeLabel(s string) string {
	return strings.TrimSpace(StripUnprintable(SanitizeText(s)))
}

// SanitizeSymbol cleans and uppercases a ticker.
func SanitizeSymbol(s string) string {
	return strings.ToUpper(SanitizeLabel(s))
}

// SanitizeForFormulaInjection prepends a single quote if the string starts with a formula character,
// so spreadsheet applications treat the cell as text.
func SanitizeForFormulaInjection(s string) string {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) == 0 {
		return s
	}

	switch trimmed[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

// StripUnprintable removes non-printable characters, allowing common whitespace.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}
