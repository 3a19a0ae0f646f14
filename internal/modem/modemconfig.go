package modem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/TheCacophonyProject/netsupervisor/internal/system"
)

const (
	DefaultConfigPath = "/media/persistent/system/config_modem"
	DefaultStatePath  = "/media/persistent/system/modem_state"

	// DefaultFirmwareMode is used for North America modems when no mode is given.
	DefaultFirmwareMode = "att"
)

var (
	ErrNotConfigured = errors.New("no modem configuration")
	ErrCorruptConfig = errors.New("modem configuration file content is corrupted")
)

// ModemConfig is what an operator enters to set up the modem. FirmwareMode
// only applies to North America modems.
type ModemConfig struct {
	PIN          string
	APN          string
	Username     string
	Password     string
	FirmwareMode string
}

// ConfigStore keeps the modem configuration as one value per line.
type ConfigStore struct {
	Path string
}

func NewConfigStore(path string) *ConfigStore {
	return &ConfigStore{Path: path}
}

func (s *ConfigStore) Exists() bool {
	_, err := os.Stat(s.Path)
	return err == nil
}

// Load reads four or five lines. A missing fifth line leaves FirmwareMode empty.
func (s *ConfigStore) Load() (ModemConfig, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return ModemConfig{}, ErrNotConfigured
	}
	if err != nil {
		return ModemConfig{}, fmt.Errorf("reading %s: %w", s.Path, err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) < 4 {
		return ModemConfig{}, ErrCorruptConfig
	}
	cfg := ModemConfig{
		PIN:      lines[0],
		APN:      lines[1],
		Username: lines[2],
		Password: lines[3],
	}
	if len(lines) >= 5 {
		cfg.FirmwareMode = lines[4]
	}
	return cfg, nil
}

func (s *ConfigStore) Save(cfg ModemConfig) error {
	content := fmt.Sprintf("%s\n%s\n%s\n%s\n", cfg.PIN, cfg.APN, cfg.Username, cfg.Password)
	if cfg.FirmwareMode != "" {
		content += cfg.FirmwareMode + "\n"
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return err
	}
	if err := renameio.WriteFile(s.Path, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing %s: %w", s.Path, err)
	}
	return nil
}

func (s *ConfigStore) Remove() error {
	err := os.Remove(s.Path)
	if err == nil {
		log.Infof("Removed config file %s", s.Path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	system.Sync()
	return nil
}

// StateMarker is a flag file; the modem is enabled while it exists.
type StateMarker struct {
	Path string
}

func NewStateMarker(path string) *StateMarker {
	return &StateMarker{Path: path}
}

func (m *StateMarker) Set() error {
	if err := os.MkdirAll(filepath.Dir(m.Path), 0755); err != nil {
		return err
	}
	return renameio.WriteFile(m.Path, nil, 0644)
}

func (m *StateMarker) Clear() error {
	if err := os.Remove(m.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (m *StateMarker) IsSet() bool {
	_, err := os.Stat(m.Path)
	return err == nil
}
