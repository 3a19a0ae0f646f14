package configwifi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	arg "github.com/alexflint/go-arg"

	"github.com/TheCacophonyProject/netsupervisor/internal/bus"
	"github.com/TheCacophonyProject/netsupervisor/internal/logging"
	"github.com/TheCacophonyProject/netsupervisor/internal/wifi"
)

var log = logging.NewLogger("info")
var version = "<not set>"

type Args struct {
	Connect      *connectSubcommand `arg:"subcommand:connect" help:"register a network and connect to it"`
	Reconnect    *ssidSubcommand    `arg:"subcommand:reconnect" help:"connect again to the registered network"`
	Disconnect   *ssidSubcommand    `arg:"subcommand:disconnect" help:"disconnect, keeping the registration"`
	Remove       *ssidSubcommand    `arg:"subcommand:remove" help:"forget a network"`
	RemoveAll    *subcommand        `arg:"subcommand:remove-all" help:"forget every network"`
	List         *listSubcommand    `arg:"subcommand:list" help:"list visible networks as JSON"`
	Registered   *subcommand        `arg:"subcommand:registered" help:"print the registered network as JSON"`
	Status       *subcommand        `arg:"subcommand:status" help:"print the Wi-Fi status as JSON"`
	Enable       *subcommand        `arg:"subcommand:enable" help:"power Wi-Fi on"`
	Disable      *subcommand        `arg:"subcommand:disable" help:"power Wi-Fi off"`
	ForceDisable *subcommand        `arg:"subcommand:force-disable" help:"disable Wi-Fi in the connman settings file"`
	LockFile     string             `arg:"--lock-file" help:"path to the Wi-Fi configuration lock"`
	LockTimeout  int                `arg:"--lock-timeout" help:"seconds to wait for the lock, negative waits forever"`
	logging.LogArgs
}

type connectSubcommand struct {
	SSID   string   `arg:"--ssid,required" help:"network name"`
	Params []string `arg:"--param,separate" help:"provisioning key as Key=Value, e.g. Passphrase=secret"`
}

type ssidSubcommand struct {
	SSID string `arg:"--ssid,required" help:"network name"`
}

type listSubcommand struct {
	Hidden bool `arg:"--hidden" help:"include hidden networks"`
	NoScan bool `arg:"--no-scan" help:"list known networks without scanning first"`
}

type subcommand struct {
}

func (Args) Version() string {
	return version
}

var defaultArgs = Args{
	LockFile:    wifi.DefaultLockPath,
	LockTimeout: -1,
}

func procArgs(input []string) (Args, error) {
	args := defaultArgs

	parser, err := arg.NewParser(arg.Config{}, &args)
	if err != nil {
		return Args{}, err
	}
	err = parser.Parse(input)
	if errors.Is(err, arg.ErrHelp) {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if errors.Is(err, arg.ErrVersion) {
		fmt.Println(version)
		os.Exit(0)
	}
	if err == nil && parser.Subcommand() == nil {
		parser.WriteUsage(os.Stdout)
		return args, errors.New("no command given")
	}
	return args, err
}

// ConnectError is returned when a connection attempt failed. Code is also
// printed as a "wifi_conn_error:" line for the web UI.
type ConnectError struct {
	Code wifi.ConnectionError
	Err  error
}

func (e *ConnectError) Error() string {
	return e.Err.Error()
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// ExitCode is 1 for every failed connection.
func (e *ConnectError) ExitCode() int {
	return 1
}

// parseParams turns Key=Value pairs into the provisioning map.
func parseParams(pairs []string) (map[string]string, error) {
	params := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected Key=Value", p)
		}
		params[key] = value
	}
	return params, nil
}

type WiFi interface {
	Connect(ssid string, params map[string]string) (wifi.ConnectionError, error)
	Reconnect(ssid string) error
	Disconnect(ssid string) error
	Remove(ssid string) error
	RemoveAll() error
	Services(hidden, scan bool) ([]wifi.Service, error)
	RegisteredService() (wifi.RegisteredService, bool, error)
	EnabledStatus() wifi.EnabledStatus
	ConnectionStatus() (bool, error)
	EnableWiFi(enable bool) error
	DisableViaConfigFile() error
}

type Lock interface {
	Acquire(timeout int) error
	Release() error
}

// Tool runs one config-wifi command.
type Tool struct {
	WiFi        WiFi
	Lock        Lock
	LockTimeout int
	Out         io.Writer
}

type serviceJSON struct {
	SSID      string   `json:"ssid"`
	Security  []string `json:"security"`
	Secure    bool     `json:"secure"`
	Connected bool     `json:"connected"`
	Strength  int      `json:"strength"`
}

type registeredJSON struct {
	SSID        string `json:"ssid"`
	EncodedSSID string `json:"encodedSsid"`
}

type statusJSON struct {
	Enabled    string  `json:"enabled"`
	Connected  bool    `json:"connected"`
	Registered *string `json:"registered"`
}

// Execute runs the command selected in args.
func (t *Tool) Execute(args Args) error {
	switch {
	case args.List != nil:
		return t.list(args.List.Hidden, !args.List.NoScan)
	case args.Registered != nil:
		return t.registered()
	case args.Status != nil:
		return t.status()
	}
	return t.locked(func() error {
		switch {
		case args.Connect != nil:
			return t.connect(args.Connect)
		case args.Reconnect != nil:
			return t.WiFi.Reconnect(args.Reconnect.SSID)
		case args.Disconnect != nil:
			return t.WiFi.Disconnect(args.Disconnect.SSID)
		case args.Remove != nil:
			return t.WiFi.Remove(args.Remove.SSID)
		case args.RemoveAll != nil:
			return t.WiFi.RemoveAll()
		case args.Enable != nil:
			return t.WiFi.EnableWiFi(true)
		case args.Disable != nil:
			return t.WiFi.EnableWiFi(false)
		case args.ForceDisable != nil:
			return t.WiFi.DisableViaConfigFile()
		}
		return errors.New("no command given")
	})
}

// locked runs f holding the Wi-Fi configuration lock.
func (t *Tool) locked(f func() error) error {
	if err := t.Lock.Acquire(t.LockTimeout); err != nil {
		return err
	}
	defer func() {
		if err := t.Lock.Release(); err != nil {
			log.Error(err)
		}
	}()
	return f()
}

func (t *Tool) connect(c *connectSubcommand) error {
	params, err := parseParams(c.Params)
	if err != nil {
		return err
	}
	code, err := t.WiFi.Connect(c.SSID, params)
	if err != nil {
		if code == wifi.ErrorNone {
			code = wifi.ErrorUnknown
		}
		fmt.Fprintf(t.Out, "wifi_conn_error:%s\n", code)
		return &ConnectError{Code: code, Err: err}
	}
	return nil
}

func (t *Tool) list(hidden, scan bool) error {
	services, err := t.WiFi.Services(hidden, scan)
	if err != nil {
		return err
	}
	out := make([]serviceJSON, 0, len(services))
	for _, s := range services {
		out = append(out, serviceJSON{
			SSID:      s.Name,
			Security:  s.Security,
			Secure:    s.Secure,
			Connected: s.Connected,
			Strength:  s.Strength,
		})
	}
	return t.print(out)
}

func (t *Tool) registered() error {
	s, ok, err := t.WiFi.RegisteredService()
	if err != nil {
		return err
	}
	if !ok {
		return t.print(struct{}{})
	}
	return t.print(registeredJSON{SSID: s.SSID, EncodedSSID: s.EncodedSSID})
}

func (t *Tool) status() error {
	st := statusJSON{Enabled: string(t.WiFi.EnabledStatus())}
	if st.Enabled == string(wifi.StatusEnabled) {
		connected, err := t.WiFi.ConnectionStatus()
		if err != nil {
			log.Warn(err)
		}
		st.Connected = connected
	}
	s, ok, err := t.WiFi.RegisteredService()
	if err != nil {
		return err
	}
	if ok {
		st.Registered = &s.SSID
	}
	return t.print(st)
}

func (t *Tool) print(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(t.Out, string(b))
	return err
}

func Run(inputArgs []string, ver string) error {
	version = ver
	args, err := procArgs(inputArgs)
	if err != nil {
		return fmt.Errorf("failed to parse args: %v", err)
	}
	log = logging.NewLogger(args.LogLevel)
	wifi.SetLogger(log)
	bus.SetLogger(log)

	m, err := wifi.Open()
	if err != nil {
		return err
	}
	t := &Tool{
		WiFi:        m,
		Lock:        wifi.NewLock(args.LockFile),
		LockTimeout: args.LockTimeout,
		Out:         os.Stdout,
	}
	return t.Execute(args)
}
