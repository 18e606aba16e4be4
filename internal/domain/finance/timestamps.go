package finance

import (
	"regexp"
	"strings"
	"time"
)

// SGT is Singapore time, the zone bank notifications are written in.
var SGT = time.FixedZone("SGT", 8*60*60)

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses ISO-8601 style timestamps. Values without an offset are read in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Layouts of the human-written times inside bank notifications, after cleanup.
var bankDateTimeLayouts = []string{
	"3:04PM, 2 Jan 06",
	"3:04PM 2 Jan 06",
	"3:04PM, 2 Jan 2006",
	"02-Jan-2006 03:04PM",
	"02-Jan-2006 3:04PM",
	"2 Jan 06 3:04PM",
	"2 Jan 2006 3:04PM",
	"02/01/06 15:04",
	"02/01/2006 15:04",
}

var bankDateLayouts = []string{
	"02/01/06",
	"2/1/06",
	"02/01/2006",
	"2 Jan 06",
	"2 Jan 2006",
	"02-Jan-2006",
}

var zoneSuffix = regexp.MustCompile(`\s+(?:SGT|SST)\b`)

func cleanBankTime(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " at ", " ")
	s = zoneSuffix.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// parseBankDateTime reads a notification time such as "1:44PM SGT, 27 Dec 25" in SGT.
func parseBankDateTime(s string) (time.Time, bool) {
	s = cleanBankTime(s)
	for _, layout := range bankDateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, SGT); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseBankDate reads a date-only notification field such as "26/12/25" in SGT.
func parseBankDate(s string) (time.Time, bool) {
	s = cleanBankTime(s)
	for _, layout := range bankDateLayouts {
		if t, err := time.ParseInLocation(layout, s, SGT); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
