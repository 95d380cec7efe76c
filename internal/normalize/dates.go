package normalize

import (
	"strings"
	"time"
)

// Month formats seen across claims extracts.
var monthFormats = []string{
	"2006-01",
	"2006-01-02",
	"01/2006",
	"01/02/2006",
	"200601",
	"Jan 2006",
	"January 2006",
}

// ParseMonth parses a year-month string and pins it to the first of the
// month in UTC. Returns the zero time if the input is empty or unparseable.
func ParseMonth(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range monthFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		}
	}
	return time.Time{}
}
