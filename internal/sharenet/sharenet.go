// Package sharenet configures connection sharing on the controller: which
// Ethernet ports are bridged, tethering of the cellular connection and the
// DHCP server on the bridge. The settings live in systemd-networkd files
// and are mirrored on the persistent partition so they survive updates.
package sharenet

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/ini.v1"

	"github.com/TheCacophonyProject/netsupervisor/internal/bus"
	"github.com/TheCacophonyProject/netsupervisor/internal/logging"
	"github.com/TheCacophonyProject/netsupervisor/internal/system"
)

var log = logging.NewLogger("info")

func SetLogger(l *logging.Logger) { log = l }

const (
	DefaultNetworkFile = "/etc/systemd/network/br0.network"
	DefaultBridgedFile = "/etc/systemd/network/bridged.network"
	DefaultPersistDir  = "/media/persistent/system/sharenet"

	BridgedNetworkPath = "/org/freedesktop/network1/network/bridged"

	LoaderUnit   = "sharenet_configuration_loader.service"
	networkdUnit = "systemd-networkd.service"

	// noInterface matches nothing; an empty Name would make networkd
	// bridge every interface it can.
	noInterface = "!*"

	lanServerAddress = "172.16.0.3/16"
)

var networkUnits = []string{"iptables.service", "ip6tables.service", networkdUnit}

// TetheringMode is either TetheringNone or TetheringCellular.
type TetheringMode string

const (
	TetheringNone     TetheringMode = "none"
	TetheringCellular TetheringMode = "cellular"
)

var ErrUnknownMode = errors.New("unknown tethering mode")

func ParseTetheringMode(s string) (TetheringMode, error) {
	switch m := TetheringMode(strings.TrimSpace(s)); m {
	case TetheringNone, TetheringCellular:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

type Networkd interface {
	MatchName(networkPath string) ([]string, error)
}

type ServiceController interface {
	Restart(unit string) error
	Disable(unit string) error
}

type Sharenet struct {
	Networkd Networkd
	Services ServiceController

	NetworkFile string
	BridgedFile string
	PersistDir  string
}

func New(networkd Networkd) *Sharenet {
	return &Sharenet{
		Networkd:    networkd,
		Services:    system.NewSystemd(),
		NetworkFile: DefaultNetworkFile,
		BridgedFile: DefaultBridgedFile,
		PersistDir:  DefaultPersistDir,
	}
}

// Open returns a Sharenet reading the bridge state from networkd on the
// system bus.
func Open() (*Sharenet, error) {
	conn, err := bus.SystemBus()
	if err != nil {
		return nil, err
	}
	return New(bus.NewNetworkd(conn)), nil
}

func (s *Sharenet) persisted(name string) string {
	return filepath.Join(s.PersistDir, name)
}

// BridgedInterfaces lists the interfaces networkd attached to the bridge.
func (s *Sharenet) BridgedInterfaces() ([]string, error) {
	names, err := s.Networkd.MatchName(BridgedNetworkPath)
	if err != nil {
		return nil, fmt.Errorf("cannot get the list of bridged interfaces: %w", err)
	}
	bridged := []string{}
	for _, n := range names {
		if n != noInterface {
			bridged = append(bridged, n)
		}
	}
	return bridged, nil
}

// ConfigureBridge bridges the listed interfaces together.
func (s *Sharenet) ConfigureBridge(ifaces []string, restart bool) error {
	f, err := loadNetworkFile(s.BridgedFile)
	if err != nil {
		return fmt.Errorf("could not configure the network bridge: %w", err)
	}
	name := noInterface
	if len(ifaces) > 0 {
		name = strings.Join(ifaces, " ")
	}
	f.Section("Match").Key("Name").SetValue(name)
	if err := saveNetworkFile(f, s.BridgedFile); err != nil {
		return fmt.Errorf("could not configure the network bridge: %w", err)
	}
	if err := s.save(s.persisted("bridged"), name); err != nil {
		return err
	}
	log.Infof("Bridged interfaces set to %q", name)
	if restart {
		return s.Services.Restart(networkdUnit)
	}
	return nil
}

// Tethering reads the tethering mode from the bridge network file.
func (s *Sharenet) Tethering() (TetheringMode, error) {
	f, err := loadNetworkFile(s.NetworkFile)
	if err != nil {
		return TetheringNone, fmt.Errorf("could not read tethering configuration: %w", err)
	}
	if networkBool(f.Section("Network").Key("IPMasquerade").String()) {
		return TetheringCellular, nil
	}
	return TetheringNone, nil
}

// ConfigureTethering turns tethering of the cellular connection on or off.
// Tethering needs the LAN server, so enabling it also enables the server
// without making that permanent.
func (s *Sharenet) ConfigureTethering(mode TetheringMode, restart bool) error {
	if mode == TetheringCellular {
		if err := s.ConfigureLANServer(true, false, false); err != nil {
			return err
		}
	}

	f, err := loadNetworkFile(s.NetworkFile)
	if err != nil {
		return fmt.Errorf("could not configure tethering mode to %q: %w", mode, err)
	}
	network := f.Section("Network")
	switch mode {
	case TetheringNone:
		network.Key("IPMasquerade").SetValue("no")
		if dhcp, err := f.GetSection("DHCPServer"); err == nil {
			dhcp.DeleteKey("DNS")
		}
		if err := removeFile(s.persisted("tethering")); err != nil {
			return err
		}
	case TetheringCellular:
		// The bridge address is advertised as DNS server so the controller
		// resolves names for the tethered devices.
		ip, _, err := net.ParseCIDR(network.Key("Address").String())
		if err != nil {
			return fmt.Errorf("invalid configuration key Address in %s: %w", s.NetworkFile, err)
		}
		network.Key("IPMasquerade").SetValue("yes")
		f.Section("DHCPServer").Key("DNS").SetValue(ip.String())
		if err := s.save(s.persisted("tethering"), string(mode)); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	if err := saveNetworkFile(f, s.NetworkFile); err != nil {
		return fmt.Errorf("could not configure tethering mode to %q: %w", mode, err)
	}

	if mode == TetheringNone {
		if err := s.ConfigureLANServer(false, false, false); err != nil {
			return err
		}
	}
	log.Infof("Tethering mode set to %s", mode)
	if restart {
		return s.RestartNetwork()
	}
	return nil
}

// LANServerEnabled reads whether the bridge runs a DHCP server.
func (s *Sharenet) LANServerEnabled() (bool, error) {
	f, err := loadNetworkFile(s.NetworkFile)
	if err != nil {
		return false, fmt.Errorf("failed to read the LAN server configuration: %w", err)
	}
	return networkBool(f.Section("Network").Key("DHCPServer").String()), nil
}

// ConfigureLANServer turns the DHCP server on the bridge on or off. A
// permanent change is remembered across updates. The server stays on while
// it is permanently enabled or tethering needs it.
func (s *Sharenet) ConfigureLANServer(enable, permanent, restart bool) error {
	flag := s.persisted("lanserver")
	if permanent {
		var err error
		if enable {
			err = s.save(flag, "")
		} else {
			err = removeFile(flag)
		}
		if err != nil {
			return err
		}
	}

	f, err := loadNetworkFile(s.NetworkFile)
	if err != nil {
		return fmt.Errorf("could not configure the LAN server: %w", err)
	}
	network := f.Section("Network")
	if enable {
		network.Key("DHCPServer").SetValue("yes")
		setKey(network, "Address", lanServerAddress)
		network.Key("LinkLocalAddressing").SetValue("no")
		network.DeleteKey("DHCP")
		network.DeleteKey("Gateway")
		network.DeleteKey("DNS")
	} else {
		keep, err := s.lanServerRequired(f)
		if err != nil {
			return err
		}
		if keep {
			log.Info("LAN server kept enabled")
		} else {
			network.Key("DHCPServer").SetValue("no")
			network.Key("DHCP").SetValue("ipv4")
			network.Key("LinkLocalAddressing").SetValue("yes")
			network.DeleteKey("Address")
		}
	}
	if err := saveNetworkFile(f, s.NetworkFile); err != nil {
		return fmt.Errorf("could not configure the LAN server: %w", err)
	}
	if restart {
		return s.RestartNetwork()
	}
	return nil
}

func (s *Sharenet) lanServerRequired(f *ini.File) (bool, error) {
	_, err := os.Stat(s.persisted("lanserver"))
	switch {
	case err == nil:
		return true, nil
	case !errors.Is(err, os.ErrNotExist):
		return false, err
	}
	return networkBool(f.Section("Network").Key("IPMasquerade").String()), nil
}

// LoadConfiguration applies the settings saved on the persistent partition,
// then disables the loader unit that runs it after an update.
func (s *Sharenet) LoadConfiguration() error {
	var result *multierror.Error

	if data, err := os.ReadFile(s.persisted("bridged")); err == nil {
		result = multierror.Append(result, s.ConfigureBridge(strings.Fields(string(data)), false))
	} else if !errors.Is(err, os.ErrNotExist) {
		result = multierror.Append(result, err)
	}

	if data, err := os.ReadFile(s.persisted("tethering")); err == nil {
		line, _, _ := strings.Cut(string(data), "\n")
		mode, err := ParseTetheringMode(line)
		if err == nil {
			err = s.ConfigureTethering(mode, false)
		}
		result = multierror.Append(result, err)
	} else if !errors.Is(err, os.ErrNotExist) {
		result = multierror.Append(result, err)
	}

	if _, err := os.Stat(s.persisted("lanserver")); err == nil {
		result = multierror.Append(result, s.ConfigureLANServer(true, true, false))
	}

	result = multierror.Append(result, s.Services.Disable(LoaderUnit))
	return result.ErrorOrNil()
}

// RestartNetwork reloads the firewall rules and networkd so changes apply
// now. Every unit is restarted even if an earlier one fails.
func (s *Sharenet) RestartNetwork() error {
	var result *multierror.Error
	for _, unit := range networkUnits {
		if err := s.Services.Restart(unit); err != nil {
			log.Errorf("Failed to restart %s; some network features might not work properly: %v", unit, err)
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (s *Sharenet) save(path, value string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to save configuration into %s: %w", path, err)
	}
	if err := renameio.WriteFile(path, []byte(value), 0644); err != nil {
		return fmt.Errorf("failed to save configuration into %s: %w", path, err)
	}
	return nil
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// networkBool parses a systemd boolean.
func networkBool(v string) bool {
	switch strings.ToLower(v) {
	case "yes", "true", "on", "1":
		return true
	}
	return false
}
