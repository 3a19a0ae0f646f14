/*
netsupervisor - cellular and Wi-Fi connectivity tools
Copyright (C) 2019, The Cacophony Project

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package configmodem

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/TheCacophonyProject/event-reporter/v3/eventclient"
	"github.com/TheCacophonyProject/go-config"
	arg "github.com/alexflint/go-arg"
	"golang.org/x/sys/unix"

	"github.com/TheCacophonyProject/netsupervisor/internal/bus"
	"github.com/TheCacophonyProject/netsupervisor/internal/logging"
	"github.com/TheCacophonyProject/netsupervisor/internal/modem"
	"github.com/TheCacophonyProject/netsupervisor/internal/stats"
	"github.com/TheCacophonyProject/netsupervisor/internal/system"
	"github.com/TheCacophonyProject/netsupervisor/internal/usb"
)

var log = logging.NewLogger("info")
var version = "<not set>"

var (
	errDisabled      = errors.New("modem is disabled")
	errModemAbsent   = errors.New("modem is absent")
	errNotConfigured = errors.New("modem is not configured")
	errBadArgs       = errors.New("bad or missing argument")
)

type Args struct {
	Command   []string `arg:"positional" help:"PIN APN Username Password [att|verizon], or one of enable, disable, is_enabled, loadconf, clearconf, is_modem_present, get_modem_type, get_configuration"`
	ConfigDir string   `arg:"-c,--config" help:"path to configuration directory"`
	logging.LogArgs
}

func (Args) Version() string {
	return version
}

func (Args) Description() string {
	return `Configure the cellular modem, ofono and connman.

  config-modem 1234 gprs.swisscom.ch bob dylan
  config-modem 1234 gprs.swisscom.ch bob dylan verizon   (North America only)
  config-modem loadconf            load the saved configuration
  config-modem clearconf           clear any previous modem configuration
  config-modem enable              enable the modem if one is present
  config-modem disable             clear the configuration and disable the modem
  config-modem is_enabled          exit 0 when the modem is enabled
  config-modem get_modem_type      print "us" or "eu"
  config-modem get_configuration   print the saved configuration`
}

var defaultArgs = Args{
	ConfigDir: config.DefaultConfigDir,
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
	if err == nil && !validCommand(args.Command) {
		parser.WriteHelp(os.Stderr)
		err = errBadArgs
	}
	return args, err
}

func validCommand(command []string) bool {
	switch len(command) {
	case 1:
		switch command[0] {
		case "enable", "disable", "is_enabled", "loadconf", "clearconf",
			"is_modem_present", "get_modem_type", "get_configuration":
			return true
		}
		return false
	case 4, 5:
		return true
	default:
		return false
	}
}

func Run(inputArgs []string, ver string) error {
	version = ver
	args, err := procArgs(inputArgs)
	if err != nil {
		return fmt.Errorf("failed to parse args: %v", err)
	}
	log = logging.NewLogger(args.LogLevel)
	modem.SetLogger(log)
	stats.SetLogger(log)
	bus.SetLogger(log)

	log.Debugf("Cellular configuration start: %s", strings.Join(inputArgs, " "))

	settings, err := modem.LoadSettings(args.ConfigDir)
	if err != nil {
		return err
	}
	store := modem.NewConfigStore(settings.ConfigPath)
	state := modem.NewStateMarker(settings.StatePath)
	usbOnly := &modem.Prober{USB: usb.NewLister()}

	if len(args.Command) >= 4 {
		cfg := modem.ModemConfig{
			PIN:      args.Command[0],
			APN:      args.Command[1],
			Username: args.Command[2],
			Password: args.Command[3],
		}
		if len(args.Command) == 5 {
			cfg.FirmwareMode = args.Command[4]
		}
		return configure(settings, cfg, false)
	}

	switch args.Command[0] {
	case "enable", "disable", "clearconf":
		c, err := newConfigurator(settings, usbOnly)
		if err != nil {
			return err
		}
		switch args.Command[0] {
		case "enable":
			return c.Enable()
		case "disable":
			return c.Disable()
		default:
			c.ClearConfiguration(true)
			return nil
		}
	case "is_enabled":
		if !state.IsSet() {
			log.Info("Modem is disabled")
			return errDisabled
		}
		log.Info("Modem is enabled")
		return nil
	case "loadconf":
		cfg, err := store.Load()
		if err != nil {
			return fmt.Errorf("failed to load modem configuration: %w", err)
		}
		return configure(settings, cfg, true)
	case "is_modem_present":
		if count, _ := usbOnly.ListModems(); count == 0 {
			log.Info("Modem is absent")
			return errModemAbsent
		}
		log.Info("Modem is present")
		return nil
	case "get_modem_type":
		kind, err := getModemType(settings, usbOnly)
		if err != nil {
			return err
		}
		fmt.Println(kind)
		return nil
	case "get_configuration":
		if !store.Exists() {
			log.Info("Modem is not configured")
			return errNotConfigured
		}
		cfg, err := store.Load()
		if err != nil {
			return err
		}
		fmt.Print(formatConfiguration(cfg))
		return nil
	}
	return errBadArgs
}

func configure(settings *modem.Settings, cfg modem.ModemConfig, loaded bool) error {
	prober, err := modem.OpenProber(settings)
	if err != nil {
		return err
	}
	c, err := newConfigurator(settings, prober)
	if err != nil {
		return err
	}
	at := modem.OpenATClient(settings)
	c.Diagnostics = func() error {
		return at.LogDiagnostics(system.NewProcesses())
	}
	return c.Configure(cfg, loaded)
}

func newConfigurator(settings *modem.Settings, probes Probes) (*Configurator, error) {
	uptime := stats.NewUptimeMarker(stats.DefaultUptimePath)
	history := stats.NewCellularLog(stats.DefaultCellularStatsPath, uptime)
	remediator, err := modem.OpenRemediator(settings, history)
	if err != nil {
		return nil, err
	}
	return &Configurator{
		Probes:   probes,
		Services: system.NewSystemd(),
		Daemon:   remediator,
		Rebooter: remediator.Rebooter,
		Store:    modem.NewConfigStore(settings.ConfigPath),
		State:    modem.NewStateMarker(settings.StatePath),
		History:  history,
		Uptime:   uptime,
		AddEvent: eventclient.AddEvent,
		Restart:  restart,
		Sleep:    time.Sleep,

		Technologies: settings.Technologies,
		AllowRoaming: settings.AllowRoaming,
	}, nil
}

// getModemType asks ofono for the model when it runs, and the modem itself
// otherwise since ofono holds the AT port.
func getModemType(settings *modem.Settings, usbOnly *modem.Prober) (string, error) {
	if count, _ := usbOnly.ListModems(); count == 0 {
		log.Info("Modem is absent")
		return "", errModemAbsent
	}
	log.Info("Modem is present")

	var northAmerica bool
	running, err := system.NewProcesses().IsRunning("ofonod")
	if err != nil {
		return "", err
	}
	if running {
		prober, err := modem.OpenProber(settings)
		if err != nil {
			return "", err
		}
		northAmerica = prober.IsNorthAmericaModem()
	} else {
		northAmerica = modem.OpenATClient(settings).IsNorthAmerica()
	}
	return modemType(northAmerica), nil
}

func modemType(northAmerica bool) string {
	if northAmerica {
		return "us"
	}
	return "eu"
}

// formatConfiguration prints one value per line, the firmware mode only for
// North America modems.
func formatConfiguration(cfg modem.ModemConfig) string {
	lines := []string{cfg.PIN, cfg.APN, cfg.Username, cfg.Password}
	if cfg.FirmwareMode != "" {
		lines = append(lines, cfg.FirmwareMode)
	}
	return strings.Join(lines, "\n") + "\n"
}

func restart() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	log.Infof("Restarting %s", exe)
	return unix.Exec(exe, os.Args, os.Environ())
}
