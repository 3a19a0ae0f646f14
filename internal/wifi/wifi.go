// Package wifi manages the single Wi-Fi network the controller may join,
// through connman and wpa_supplicant.
package wifi

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/TheCacophonyProject/netsupervisor/internal/bus"
	"github.com/TheCacophonyProject/netsupervisor/internal/logging"
	"github.com/TheCacophonyProject/netsupervisor/internal/system"
	"github.com/TheCacophonyProject/netsupervisor/internal/usb"
)

var log = logging.NewLogger("info")

func SetLogger(l *logging.Logger) { log = l }

const (
	DefaultInterface    = "wlan0"
	DefaultConnmanDir   = "/var/lib/connman"
	DefaultLockPath     = "/tmp/wifi_lock"
	settingsFile        = "settings"
	technology          = "wifi"
	scanTimeout         = 15 * time.Second
	connectTimeout      = 30 * time.Second
	connectCallTimeout  = 10000 * time.Millisecond
	passphraseMinLength = 8
	passphraseMaxLength = 64
)

// ConnectionError classifies why a connection attempt failed.
type ConnectionError int

const (
	ErrorNone ConnectionError = iota
	ErrorUnknown
	ErrorInvalidKey
	ErrorAuthentication
)

func (e ConnectionError) String() string {
	switch e {
	case ErrorNone:
		return "none"
	case ErrorInvalidKey:
		return "invalid-key"
	case ErrorAuthentication:
		return "authentication"
	default:
		return "unknown"
	}
}

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrScanFailed      = errors.New("scanning error")
	ErrScanTimeout     = errors.New("scanning error. Timeout")
	ErrConnectTimeout  = errors.New("timeout while connecting")
	ErrBadServiceName  = errors.New("unexpected connman service name")
)

// Supplicant is the part of wpa_supplicant the manager uses.
type Supplicant interface {
	GetInterface(name string) (string, error)
	Scan(ifacePath string, args map[string]interface{}) error
	InterfaceProperties(ifacePath string) (map[string]interface{}, error)
	BSSProperties(bssPath string) (map[string]interface{}, error)
	Subscribe(member string) (<-chan bus.Signal, func(), error)
}

// Connman is the part of connman the manager uses.
type Connman interface {
	GetServices() ([]bus.Object, error)
	GetServiceProperties(path string) (map[string]interface{}, error)
	SetServiceProperty(path, name string, value interface{}) error
	Connect(path string, timeout time.Duration) error
	Disconnect(path string) error
	SetTechnologyPowered(technology string, powered bool) error
}

type DeviceLister interface {
	Present(devices []usb.Device) ([]usb.Device, error)
}

// Manager drives connman and wpa_supplicant for the Wi-Fi interface.
// Callers that change the configuration must hold the Wi-Fi lock.
type Manager struct {
	Supplicant Supplicant
	Connman    Connman
	Runner     system.Runner
	USB        DeviceLister

	Interface  string
	ConnmanDir string

	ScanTimeout    time.Duration
	ConnectTimeout time.Duration

	// Progress receives the connection state lines read by the web UI.
	Progress io.Writer
	Sync     func()

	ifacePath string
}

func NewManager(supplicant Supplicant, connman Connman) *Manager {
	return &Manager{
		Supplicant:     supplicant,
		Connman:        connman,
		Runner:         system.ExecRunner{},
		USB:            usb.NewLister(),
		Interface:      DefaultInterface,
		ConnmanDir:     DefaultConnmanDir,
		ScanTimeout:    scanTimeout,
		ConnectTimeout: connectTimeout,
		Progress:       os.Stdout,
		Sync:           system.Sync,
	}
}

// Open connects to the system bus and returns a manager bound to it.
func Open() (*Manager, error) {
	conn, err := bus.SystemBus()
	if err != nil {
		return nil, err
	}
	return NewManager(bus.NewSupplicant(conn), bus.NewConnman(conn)), nil
}

func (m *Manager) sync() {
	if m.Sync != nil {
		m.Sync()
	}
}

// interfacePath returns the supplicant object of the Wi-Fi interface. The
// path changes whenever Wi-Fi is disabled and enabled again, so force looks
// it up again.
func (m *Manager) interfacePath(force bool) (string, error) {
	if m.ifacePath != "" && !force {
		return m.ifacePath, nil
	}
	path, err := m.Supplicant.GetInterface(m.Interface)
	if err != nil {
		m.ifacePath = ""
		return "", fmt.Errorf("binding wpa_supplicant to %s: %w", m.Interface, err)
	}
	log.Debugf("Path to Wi-Fi interface %s: %s", m.Interface, path)
	m.ifacePath = path
	return path, nil
}

// Dongles lists the supported Wi-Fi dongles plugged in.
func (m *Manager) Dongles() ([]usb.Device, error) {
	return m.USB.Present(usb.WiFiDongles)
}
