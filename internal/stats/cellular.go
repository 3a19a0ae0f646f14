package stats

import (
	"fmt"
	"time"

	"github.com/TheCacophonyProject/netsupervisor/internal/logging"
	"github.com/TheCacophonyProject/netsupervisor/internal/modem"
)

const (
	DefaultCellularStatsPath = "/media/persistent/system/cellular_data_supervisor_stats.csv"
	cellularHeader           = "Time zone;Local time;UTC time;Stat code; signal_strength (dBm); technology"
)

var log = logging.NewLogger("info")

func SetLogger(l *logging.Logger) { log = l }

// CellularLog is the cellular history file read by the stats spreadsheet.
type CellularLog struct {
	File   *RotatingFile
	Uptime *UptimeMarker
	Now    func() time.Time
}

func NewCellularLog(path string, uptime *UptimeMarker) *CellularLog {
	return &CellularLog{
		File:   NewRotatingFile(path, cellularHeader),
		Uptime: uptime,
		Now:    time.Now,
	}
}

// LogModemDiagnostic records a diagnostic result. The first good result
// starts the uptime marker and any failure clears it.
func (c *CellularLog) LogModemDiagnostic(code modem.DiagnosticCode, strength, tech string) error {
	if c.Uptime != nil {
		if code == modem.WellConfigured {
			if err := c.Uptime.Mark(); err != nil {
				log.Errorf("failed to mark uptime start: %v", err)
			}
		} else {
			c.Uptime.Clear()
		}
	}
	return c.logStatCode(code, strength, tech)
}

// LogModemDetection records that udev saw a modem appear.
func (c *CellularLog) LogModemDetection() error {
	return c.logStatCode(modem.ModemDetection, NotAvailable, NotAvailable)
}

// LogForcedModemReboot records a hard modem reboot done by remediation.
func (c *CellularLog) LogForcedModemReboot() error {
	return c.logStatCode(modem.ForcedModemReboot, NotAvailable, NotAvailable)
}

func (c *CellularLog) logStatCode(code modem.DiagnosticCode, strength, tech string) error {
	if strength == "" {
		strength = NotAvailable
	}
	if tech == "" {
		tech = NotAvailable
	}
	line := fmt.Sprintf("%s;%d;%s;%s", timestampColumns(c.now()), int(code), strength, tech)
	if err := c.File.Append(line); err != nil {
		return fmt.Errorf("failed to add cellular stats: %w", err)
	}
	log.Infof("%q added to cellular CSV stats", line)
	return nil
}

func (c *CellularLog) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
