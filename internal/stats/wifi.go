package stats

import (
	"fmt"
	"time"
)

const (
	DefaultWiFiStatsPath = "/media/persistent/system/wifi_stats.csv"
	wifiHeader           = "Time zone;Local time;UTC time;WiFi Info"
)

// WiFiLog is the Wi-Fi history file.
type WiFiLog struct {
	File *RotatingFile
	Now  func() time.Time
}

func NewWiFiLog(path string) *WiFiLog {
	return &WiFiLog{File: NewRotatingFile(path, wifiHeader), Now: time.Now}
}

// LogInfo appends one row and returns it.
func (w *WiFiLog) LogInfo(info string) (string, error) {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	line := fmt.Sprintf("%s;%s", timestampColumns(now()), info)
	if err := w.File.Append(line); err != nil {
		return "", fmt.Errorf("failed to add Wi-Fi stats: %w", err)
	}
	return line, nil
}
