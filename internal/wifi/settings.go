package wifi

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"gopkg.in/ini.v1"
)

// EnabledStatus is the Wi-Fi state recorded in the connman settings file.
type EnabledStatus string

const (
	StatusEnabled  EnabledStatus = "enabled"
	StatusDisabled EnabledStatus = "disabled"
	StatusError    EnabledStatus = "error"
)

const wifiSection = "WiFi"

func (m *Manager) settingsPath() string {
	return filepath.Join(m.ConnmanDir, settingsFile)
}

func (m *Manager) loadSettings() (*ini.File, error) {
	return ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, m.settingsPath())
}

// EnabledStatus reads whether connman keeps Wi-Fi enabled. Only an explicit
// Enable=true in the [WiFi] section counts as enabled.
func (m *Manager) EnabledStatus() EnabledStatus {
	f, err := m.loadSettings()
	if err != nil {
		log.Errorf("Reading %s: %v", m.settingsPath(), err)
		return StatusError
	}
	section, err := f.GetSection(wifiSection)
	if err != nil {
		return StatusDisabled
	}
	if section.Key("Enable").String() == "true" {
		return StatusEnabled
	}
	return StatusDisabled
}

// EnableWiFi powers the Wi-Fi technology on or off. When enabling, entries
// renamed by DisableViaConfigFile get their names back so connman finds the
// registered service again.
func (m *Manager) EnableWiFi(enable bool) error {
	action := "Disabling"
	if enable {
		action = "Enabling"
	}
	log.Infof("%s Wi-Fi...", action)
	err := m.Connman.SetTechnologyPowered(technology, enable)
	alreadyEnabled := err != nil && strings.Contains(err.Error(), "Already enabled")
	if (err == nil && enable) || alreadyEnabled {
		if rerr := m.restoreEntries(); rerr != nil {
			return rerr
		}
	}
	if err != nil {
		err = fmt.Errorf("%s Wi-Fi: %w", strings.ToLower(action), err)
		log.Error(err)
		return err
	}
	log.Infof("Wi-Fi %s", map[bool]string{true: "enabled", false: "disabled"}[enable])
	return nil
}

// DisableViaConfigFile disables Wi-Fi by editing the connman settings file,
// for when the dongle is gone and connman cannot be asked. The Wi-Fi entries
// are renamed to _name_ so connman does not reconnect if the dongle comes
// back.
func (m *Manager) DisableViaConfigFile() error {
	f, err := m.loadSettings()
	if err != nil {
		return fmt.Errorf("unable to disable Wi-Fi via config file %s: %w", m.settingsPath(), err)
	}
	section, err := f.GetSection(wifiSection)
	if err != nil {
		log.Info("No [WiFi] section, Wi-Fi is already disabled")
		return nil
	}
	if !section.HasKey("Enable") {
		return fmt.Errorf("unable to disable Wi-Fi via config file %s", m.settingsPath())
	}
	if section.Key("Enable").String() == "false" {
		log.Infof("Wi-Fi already disabled in config file %s", m.settingsPath())
	} else {
		section.Key("Enable").SetValue("false")
		if err := m.saveSettings(f); err != nil {
			return err
		}
		log.Infof("Successfully disabled Wi-Fi via config file %s", m.settingsPath())
	}
	return m.hideEntries()
}

func (m *Manager) saveSettings(f *ini.File) error {
	ini.PrettyFormat = false
	ini.PrettyEqual = false
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return err
	}
	mode := os.FileMode(0600)
	if fi, err := os.Stat(m.settingsPath()); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := renameio.WriteFile(m.settingsPath(), buf.Bytes(), mode); err != nil {
		return fmt.Errorf("writing %s: %w", m.settingsPath(), err)
	}
	m.sync()
	return nil
}

// hideEntries renames wifi_x to _wifi_x_. Directories go first so connman
// never sees a configuration file without its state.
func (m *Manager) hideEntries() error {
	entries, err := m.glob("wifi_*")
	if err != nil {
		return err
	}
	return renameEntries(entries, func(base string) string { return "_" + base + "_" })
}

// restoreEntries undoes hideEntries.
func (m *Manager) restoreEntries() error {
	entries, err := m.glob("_wifi_*")
	if err != nil {
		return err
	}
	return renameEntries(entries, func(base string) string {
		if len(base) < 2 {
			return base
		}
		return base[1 : len(base)-1]
	})
}

func renameEntries(entries []string, rename func(string) string) error {
	var configs []string
	for _, e := range entries {
		if strings.Contains(filepath.Base(e), ".config") {
			configs = append(configs, e)
			continue
		}
		if err := renameEntry(e, rename); err != nil {
			return err
		}
	}
	for _, e := range configs {
		if err := renameEntry(e, rename); err != nil {
			return err
		}
	}
	return nil
}

func renameEntry(path string, rename func(string) string) error {
	target := filepath.Join(filepath.Dir(path), rename(filepath.Base(path)))
	if err := os.Rename(path, target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("renaming %s: %w", path, err)
	}
	return nil
}
