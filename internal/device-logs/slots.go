package devicelogs

import (
	"regexp"
	"strings"
)

// Slot is a device reported by lsscd.
type Slot struct {
	Number     string
	DeviceName string
	Serial     string
}

var (
	slotPattern = regexp.MustCompile(`Slot (\d+)\ndev_name *= (.*)\nfusion_id *= HL[0-9]{3}_[0-9]{5}_(.*)\nmodbus_adr *= .*\nlocation *= ".*"\n`)
	nonWord     = regexp.MustCompile(`\W+`)
	datePattern = regexp.MustCompile(`Local time:.*([0-9]{4})-([0-9]{2})-([0-9]{2}) ([0-9]{2}):([0-9]{2}):([0-9]{2})`)
)

// Slots without logs of their own: ModbusTCP and Prognosys.
var skippedSlots = map[string]bool{"18": true, "19": true}

// ParseSlots reads the lsscd listing.
func ParseSlots(lsscd string) []Slot {
	lsscd = strings.ReplaceAll(lsscd, "\r", "")
	var slots []Slot
	for _, m := range slotPattern.FindAllStringSubmatch(lsscd, -1) {
		if skippedSlots[m[1]] {
			continue
		}
		slots = append(slots, Slot{
			Number:     m[1],
			DeviceName: sanitizeName(m[2]),
			Serial:     m[3],
		})
	}
	return slots
}

func sanitizeName(name string) string {
	name = strings.NewReplacer("(", "", ")", "").Replace(name)
	return nonWord.ReplaceAllString(name, "_")
}

// parseDate returns the local time from timedatectl as YYYYMMDD_HHMM.
func parseDate(timedatectl string) (string, bool) {
	m := datePattern.FindStringSubmatch(timedatectl)
	if m == nil {
		return "", false
	}
	return m[1] + m[2] + m[3] + "_" + m[4] + m[5], true
}
