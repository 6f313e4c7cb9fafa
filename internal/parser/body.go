package parser

import (
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

const datePrefix = "Date:"

// Layouts carrying their own zone or offset
var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC850,
	time.UnixDate,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	"2006/01/02 15:04:05 -0700",
	"2006-01-02 15:04:05 -0700",
	"Mon Jan 2 2006 15:04:05 GMT-0700",
}

// ISO date-only forms are read as UTC midnight
var utcLayouts = []string{
	"2006-01-02",
}

// Layouts read in the caller's location
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/1/2 15:04:05",
	"2006/01/02 15:04",
	"2006/1/2 15:04",
	"2006/01/02",
	"2006/1/2",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006 15:04:05",
	"Jan 2 2006 15:04:05",
	"Jan 2, 2006",
	time.ANSIC,
	"20060102T150405",
}

var fallback = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// ParseBody splits VBODY text into its Date header and message text,
// reading zone-less dates in the local time zone.
func ParseBody(text string) Body {
	return ParseBodyIn(text, time.Local)
}

// ParseBodyIn is ParseBody with an explicit location for zone-less dates.
// CHARSET lines and empty lines are dropped, the last Date: line wins and
// every other line is appended to Body with a trailing newline. Date stays
// at the Unix epoch when no Date: line can be read.
func ParseBodyIn(text string, loc *time.Location) Body {
	if loc == nil {
		loc = time.Local
	}
	parsed := Body{Date: time.Unix(0, 0)}
	var body strings.Builder

	for _, line := range splitLines(text) {
		switch {
		case strings.HasPrefix(line, "CHARSET"):
			continue
		case strings.HasPrefix(line, datePrefix):
			if t, ok := parseDate(strings.TrimSpace(line[len(datePrefix):]), loc); ok {
				parsed.Date = t
			}
			continue
		case line == "":
			continue
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}

	parsed.Body = body.String()
	return parsed
}

// parseDate accepts the date forms found in phone exports. An ok of false
// means garbage in; the caller keeps its previous date.
func parseDate(s string, loc *time.Location) (time.Time, bool) {
	s = trimZoneName(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range utcLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}

	// when matches fragments anywhere in the text; only a whole-input match counts
	r, err := fallback.Parse(s, time.Unix(0, 0).In(loc))
	if err != nil || r == nil || r.Index != 0 || len(r.Text) != len(s) {
		return time.Time{}, false
	}
	return r.Time, true
}

// trimZoneName drops a trailing "(Japan Standard Time)" style suffix
func trimZoneName(s string) string {
	if !strings.HasSuffix(s, ")") {
		return s
	}
	if i := strings.LastIndex(s, " ("); i > 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
