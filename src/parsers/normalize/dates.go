package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/username/optionledger/backend/src/models"
)

// trailingZoneRe matches a timezone abbreviation such as " EST" at the end of a timestamp.
// AM and PM also match and are kept by stripTrailingZone.
var trailingZoneRe = regexp.MustCompile(`\s+[A-Z]{1,4}$`)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"1/2/2006",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/06",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2-Jan-2006",
	"20060102",
}

// ParseDate converts a raw cell into a calendar date.
// Time values pass through truncated to their date. Strings lose a trailing zone
// abbreviation before parsing. Anything unparseable reports false instead of failing.
func ParseDate(v any) (models.Date, bool) {
	switch d := v.(type) {
	case models.Date:
		return d, !d.IsZero()
	case *models.Date:
		if d == nil || d.IsZero() {
			return models.Date{}, false
		}
		return *d, true
	case time.Time:
		if d.IsZero() {
			return models.Date{}, false
		}
		return models.DateOf(d), true
	case *time.Time:
		if d == nil || d.IsZero() {
			return models.Date{}, false
		}
		return models.DateOf(*d), true
	case string:
		return parseDateString(d)
	case []byte:
		return parseDateString(string(d))
	}
	return models.Date{}, false
}

func parseDateString(s string) (models.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.Date{}, false
	}
	s = stripTrailingZone(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.DateOf(t), true
		}
	}
	return models.Date{}, false
}

func stripTrailingZone(s string) string {
	loc := trailingZoneRe.FindStringIndex(s)
	if loc == nil {
		return s
	}
	if zone := strings.TrimSpace(s[loc[0]:]); zone == "AM" || zone == "PM" {
		return s
	}
	return s[:loc[0]]
}
