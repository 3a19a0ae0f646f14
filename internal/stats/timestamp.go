package stats

import (
	"fmt"
	"time"
)

// DateFormat is the timestamp layout of the history files and uptime marker.
const DateFormat = "2006/01/02 15:04:05"

// NotAvailable fills the signal columns when no reading exists.
const NotAvailable = "N/A"

// timestampColumns returns "zone;local;utc" for t.
func timestampColumns(t time.Time) string {
	zone, _ := t.Zone()
	return fmt.Sprintf("%s;%s;%s", zone, t.Format(DateFormat), t.UTC().Format(DateFormat))
}
