package devicelogs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/TheCacophonyProject/netsupervisor/internal/system"
)

const (
	DefaultPidevExportPath = "/mnt/fcc/pidev/export/"

	testClient = "TestClientII"
	pidevSlot  = "20"
	noDate     = "no_date"
)

// Service logger file number per device with one.
var loggerFiles = map[string]int{"NT3100sc": 24, "NT3200sc": 24}

var serialPrefix = regexp.MustCompile(`HL\d\d\d_\d\d\d\d\d`)

var errDestinationGone = errors.New("export destination is gone")

type logType struct {
	name string
	code int
}

var logTypes = []logType{{"Data", 2}, {"Event", 1}}

// Exporter copies the data and event logs of every device to a folder,
// typically on a USB stick.
type Exporter struct {
	Runner    system.Runner
	Sync      func()
	PidevPath string
	// LoggerDir enables the service logger export for devices with one.
	LoggerDir string
}

func NewExporter() *Exporter {
	return &Exporter{
		Runner:    system.ExecRunner{},
		Sync:      system.Sync,
		PidevPath: DefaultPidevExportPath,
	}
}

func (e *Exporter) date() string {
	out, err := e.Runner.Output("timedatectl")
	if err != nil {
		log.Errorf("Getting system time for file export: %v", err)
		return noDate
	}
	date, ok := parseDate(string(out))
	if !ok {
		log.Warnf("No local time in %q", out)
		return noDate
	}
	log.Debugf("system date: %s", date)
	return date
}

// Export writes one folder per device under dest.
func (e *Exporter) Export(dest string) error {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}
	out, err := e.Runner.Output("lsscd")
	if err != nil {
		return fmt.Errorf("listing slots: %w", err)
	}
	slots := ParseSlots(string(out))
	date := e.date()

	pidevExported := false
	for _, slot := range slots {
		// The destination disappears when the USB stick is pulled.
		if _, err := os.Stat(dest); err != nil {
			return errDestinationGone
		}
		folder := filepath.Join(dest, slot.DeviceName+"_"+slot.Serial)
		if err := os.MkdirAll(folder, 0755); err != nil {
			return err
		}

		if slot.Number != pidevSlot {
			if err := e.exportLogs(slot, folder, date); err != nil {
				return err
			}
		} else if !pidevExported {
			log.Infof("Export Pidev settings, slot number: %s", slot.Number)
			if err := e.exportPidev(slot, folder, date); err != nil {
				return err
			}
			pidevExported = true
		}

		if err := e.exportServiceLogger(slot, folder, date); err != nil {
			return err
		}
		if e.Sync != nil {
			e.Sync()
		}
	}
	return nil
}

func (e *Exporter) exportLogs(slot Slot, folder, date string) error {
	for _, t := range logTypes {
		name := strings.ReplaceAll(fmt.Sprintf("%s_%s_%s_log_%s.csv", slot.DeviceName, slot.Serial, t.name, date), " ", "_")
		path := filepath.Join(folder, name)
		typeArg := "-Y" + strconv.Itoa(t.code)

		log.Debugf("Read %ss for slot %s", t.name, slot.Number)
		if _, err := e.Runner.Output(testClient, "-Lrd0", typeArg, "-h"+slot.Number); err != nil {
			return fmt.Errorf("reading %ss of slot %s: %w", t.name, slot.Number, err)
		}
		log.Infof("Create file %s", path)
		if _, err := e.Runner.Output(testClient, "-Lpr", typeArg, "-h"+slot.Number, "-z"+path); err != nil {
			return fmt.Errorf("exporting %ss of slot %s: %w", t.name, slot.Number, err)
		}
	}
	return nil
}

// exportPidev copies the plugin device exports, renamed with the date and
// the controller serial.
func (e *Exporter) exportPidev(slot Slot, folder, date string) error {
	matches, err := filepath.Glob(filepath.Join(e.PidevPath, "*", "*HL???_?????_*.csv"))
	if err != nil {
		return err
	}
	for _, src := range matches {
		ext := filepath.Ext(src)
		base := strings.TrimSuffix(filepath.Base(src), ext)
		name := serialPrefix.ReplaceAllString(base+"_"+date+ext, slot.Serial)
		dst := filepath.Join(folder, name)
		log.Infof("copy file to %s", dst)
		if err := copyFile(src, dst); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) exportServiceLogger(slot Slot, folder, date string) error {
	number, ok := loggerFiles[slot.DeviceName]
	if e.LoggerDir == "" || !ok {
		return nil
	}
	dir := folder
	if !filepath.IsAbs(folder) {
		dir = filepath.Join(e.LoggerDir, folder)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	name := strings.ReplaceAll(fmt.Sprintf("%s_%s_service_logger_%s", slot.DeviceName, slot.Serial, date), " ", "_")
	path := filepath.Join(dir, name)
	log.Infof("Create specific logger file %s", path)
	if _, err := e.Runner.Output(testClient, "-h"+slot.Number, "-f"+strconv.Itoa(number), "-z", path, "-p"); err != nil {
		return fmt.Errorf("exporting service logger of slot %s: %w", slot.Number, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
