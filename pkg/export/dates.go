package export

import (
	"strconv"
	"time"
)

// dateLayouts are tried in order against date strings found in export files.
// Different export vintages use different formats; the two slash layouts are
// ambiguous for low day numbers, so US month-first wins by position.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05.999999Z",
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
}

// parseDate resolves a date string from an export file. After the layout
// chain it tries a millisecond epoch; an unparseable value falls back to the
// current time so the record is still archived.
func parseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil && ms > 0 {
		return time.UnixMilli(ms), true
	}
	return time.Now(), false
}
