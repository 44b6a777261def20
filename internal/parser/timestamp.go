package parser

import "time"

// timestampLayouts mirrors spec.md's fixed, ordered format list. Go's
// reference-time layouts stand in for the strftime-style formats named in
// the specification:
//
//	%Y-%m-%dT%H:%M:%S%.3fZ  -> time.RFC3339 with milliseconds, Z suffix
//	%Y-%m-%dT%H:%M:%S%:z    -> time.RFC3339 (numeric offset)
//	%Y-%m-%d %H:%M:%S       -> space-separated, no offset
//	%b %d %H:%M:%S          -> syslog-style, year-less
//	%Y/%m/%d %H:%M:%S       -> slash-separated
var timestampLayouts = []string{
	"2006-01-02T15:04:05.000Z",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"Jan _2 15:04:05",
	"2006/01/02 15:04:05",
}

// parseTimestamp tries each layout in declared order and keeps the first
// successful parse, re-expressed in UTC. A year-less match (the syslog
// layout) is stamped with the current year, since that's the only
// information missing from the source line.
func parseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			if t.Year() == 0 {
				t = t.AddDate(time.Now().Year(), 0, 0)
			}
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
