package wifi

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/renameio/v2"
)

// RegisteredService is the network whose configuration file connman keeps.
// Only one may exist at a time.
type RegisteredService struct {
	SSID        string
	EncodedSSID string
}

// serviceName is a connman service name such as
// wifi_001122334455_6f6666696365_managed_psk.
type serviceName struct {
	full        string
	technology  string
	mac         string
	encodedSSID string
	security    string
}

func parseServiceName(name string) (serviceName, error) {
	parts := strings.Split(name, "_")
	if len(parts) < 5 {
		return serviceName{}, fmt.Errorf("%w: %s", ErrBadServiceName, name)
	}
	return serviceName{
		full:        name,
		technology:  parts[0],
		mac:         parts[1],
		encodedSSID: parts[2],
		security:    parts[4],
	}, nil
}

func (s serviceName) configFile() string {
	return s.technology + "_" + s.mac + "_" + s.encodedSSID + ".config"
}

func EncodeSSID(ssid string) string {
	return hex.EncodeToString([]byte(ssid))
}

func DecodeSSID(encoded string) (string, error) {
	b, err := hex.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// renderConfig renders the connman provisioning file for a service.
// Parameters are written in key order.
func renderConfig(name serviceName, ssid string, params map[string]string) string {
	var b strings.Builder
	b.WriteString("[global]\nDescription = Wi-Fi service configuration file. Generated by config-wifi. Do not edit manually\n\n")
	fmt.Fprintf(&b, "[service_%s]\n", name.full)
	b.WriteString("Type = wifi\n")
	fmt.Fprintf(&b, "Name = %s\n", ssid)
	fmt.Fprintf(&b, "SSID = %s\n", name.encodedSSID)
	fmt.Fprintf(&b, "Security = %s\n", name.security)
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s = %s\n", k, params[k])
	}
	return b.String()
}

func (m *Manager) writeConfig(name serviceName, ssid string, params map[string]string) error {
	path := filepath.Join(m.ConnmanDir, name.configFile())
	log.Infof("Create configuration file %s", path)
	if err := renameio.WriteFile(path, []byte(renderConfig(name, ssid, params)), 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	m.sync()
	return nil
}

func (m *Manager) glob(pattern string) ([]string, error) {
	return filepath.Glob(filepath.Join(m.ConnmanDir, pattern))
}

// Remove deletes the configuration file of ssid. connman then drops the
// matching state directory by itself.
func (m *Manager) Remove(ssid string) error {
	log.Infof("Removing %s...", ssid)
	files, err := m.glob(fmt.Sprintf("wifi_*_%s.config", EncodeSSID(ssid)))
	if err != nil {
		return err
	}
	for _, f := range files {
		log.Infof("Removing file %s", f)
		if err := os.Remove(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", ssid, err)
		}
	}
	m.sync()
	log.Infof("Service %s has been removed", ssid)
	return nil
}

// RemoveAll deletes every Wi-Fi configuration file and state directory,
// including the ones renamed while Wi-Fi was force disabled.
func (m *Manager) RemoveAll() error {
	log.Info("Removing all services...")
	for _, pattern := range []string{"wifi_*_*_managed_*", "_wifi_*_*_managed_*"} {
		dirs, err := m.glob(pattern)
		if err != nil {
			return err
		}
		for _, d := range dirs {
			log.Infof("Removing folder %s", d)
			if err := os.RemoveAll(d); err != nil {
				return fmt.Errorf("removing all services: %w", err)
			}
		}
	}
	for _, pattern := range []string{"wifi_*_*.config", "_wifi_*_*.config_"} {
		files, err := m.glob(pattern)
		if err != nil {
			return err
		}
		for _, f := range files {
			log.Infof("Removing file %s", f)
			if err := os.Remove(f); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("removing all services: %w", err)
			}
		}
	}
	m.sync()
	log.Info("All services have been removed")
	return nil
}

// RegisteredService returns the service with a configuration file, if any.
func (m *Manager) RegisteredService() (RegisteredService, bool, error) {
	files, err := m.glob("wifi_*_*.config")
	if err != nil {
		return RegisteredService{}, false, err
	}
	var found RegisteredService
	for _, f := range files {
		parts := strings.Split(strings.TrimSuffix(filepath.Base(f), ".config"), "_")
		if len(parts) < 3 {
			continue
		}
		ssid, err := DecodeSSID(parts[2])
		if err != nil {
			return RegisteredService{}, false, fmt.Errorf("getting registered service: %w", err)
		}
		found = RegisteredService{SSID: ssid, EncodedSSID: parts[2]}
	}
	if found.EncodedSSID == "" {
		log.Info("There is no registered service")
		return found, false, nil
	}
	log.Infof("Registered service: %s %s", found.SSID, found.EncodedSSID)
	return found, true, nil
}
