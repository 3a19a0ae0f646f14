package stats

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"strings"
	"time"

	"github.com/google/renameio/v2"
)

const DefaultUptimePath = "/tmp/cellular_data_supervisor_uptime"

// UptimeMarker holds the local time at which the cellular link was first seen
// working after a failure.
type UptimeMarker struct {
	Path string
	Now  func() time.Time
}

func NewUptimeMarker(path string) *UptimeMarker {
	return &UptimeMarker{Path: path, Now: time.Now}
}

// Mark writes the marker unless it already exists.
func (u *UptimeMarker) Mark() error {
	if _, err := os.Stat(u.Path); err == nil {
		return nil
	}
	return renameio.WriteFile(u.Path, []byte(u.now().Format(DateFormat)), 0644)
}

// Clear removes the marker. A missing marker is not an error.
func (u *UptimeMarker) Clear() {
	log.Infof("Remove uptime counter %q", u.Path)
	if err := os.Remove(u.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Debugf("failed to remove uptime marker: %v", err)
	}
}

// Hours returns the uptime as hours.minutes (1.30 is an hour and a half).
// It is 0 without a marker and -1 when the marker cannot be read.
func (u *UptimeMarker) Hours() float64 {
	data, err := os.ReadFile(u.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0
	}
	if err != nil {
		return -1
	}
	line := strings.SplitN(string(data), "\n", 2)[0]
	start, err := time.ParseInLocation(DateFormat, strings.TrimSpace(line), time.Local)
	if err != nil {
		return -1
	}
	hoursDecimal := round2(u.now().Sub(start).Hours())
	hours := math.Trunc(hoursDecimal)
	minutes := (hoursDecimal - hours) * 0.6
	return round2(hours + minutes)
}

func (u *UptimeMarker) now() time.Time {
	if u.Now == nil {
		return time.Now()
	}
	return u.Now()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
