package modem

import (
	"time"

	"github.com/TheCacophonyProject/netsupervisor/internal/bus"
	"github.com/TheCacophonyProject/netsupervisor/internal/logging"
)

var log = logging.NewLogger("info")

func SetLogger(l *logging.Logger) { log = l }

const (
	OfonoService                 = "ofono.service"
	ConnmanService               = "connman.service"
	SupervisorTimer              = "cellular_data_supervisor.timer"
	SupervisorService            = "cellular_data_supervisor.service"
	SignalMonitorService         = "cellular_signal_strength_monitor.service"
	ConfigurationLoaderService   = "modem_configuration_loader.service"
	daemonProcess                = "ofonod"
	CellularInterface            = "ppp0"
	connectTimeout               = 10 * time.Second
	defaultRetryDelay            = 5 * time.Second
	cellularServicePathFragment  = "cellular_"
	connectionManagerInterface   = "org.ofono.ConnectionManager"
	simManagerInterface          = "org.ofono.SimManager"
	networkRegistrationInterface = "org.ofono.NetworkRegistration"
	connectionContextInterface   = "org.ofono.ConnectionContext"
	telitProviderInterface       = "org.ofono.TelitProvider"
	radioSettingsInterface       = "org.ofono.RadioSettings"
	modemInterface               = "org.ofono.Modem"
	wrongPinErrorName            = "org.ofono.Error.Failed"
	invalidArgumentsErrorName    = "org.ofono.Error.InvalidArguments"
)

// Ofono is the part of the ofono bus API the tools use.
type Ofono interface {
	GetModems() ([]bus.Object, error)
	GetProperties(path, iface string) (map[string]interface{}, error)
	SetProperty(path, iface, name string, value interface{}) error
	EnterPin(path, pinType, pin string) error
	UnlockPin(path, pinType, pin string) error
	GetContexts(path string) ([]bus.Object, error)
	AddContext(path, contextType string) (string, error)
	RemoveContext(path, context string) error
	GetRFStatus(path string) (map[string]interface{}, error)
}

// Connman is the part of the connman bus API the cellular tools use.
type Connman interface {
	GetServices() ([]bus.Object, error)
	SetServiceProperty(path, name string, value interface{}) error
	Connect(path string, timeout time.Duration) error
}
