package switchfirmware

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/TheCacophonyProject/go-config"
	arg "github.com/alexflint/go-arg"

	"github.com/TheCacophonyProject/netsupervisor/internal/bus"
	"github.com/TheCacophonyProject/netsupervisor/internal/logging"
	"github.com/TheCacophonyProject/netsupervisor/internal/modem"
	"github.com/TheCacophonyProject/netsupervisor/internal/system"
	"github.com/TheCacophonyProject/netsupervisor/internal/usb"
)

var log = logging.NewLogger("info")
var version = "<not set>"

const ofonoSettle = 20 * time.Second

type Args struct {
	Mode      string `arg:"positional,required" help:"firmware to switch to: att or verizon"`
	ConfigDir string `arg:"-c,--config" help:"path to configuration directory"`
	logging.LogArgs
}

func (Args) Version() string {
	return version
}

func (Args) Description() string {
	return "Switch the firmware of a North America modem, for example 'switch-firmware verizon'."
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
	return args, err
}

type Services interface {
	Start(unit string) error
	Stop(unit string) error
}

// Switcher changes the active firmware of a North America modem through
// ofono, which only has to run for the switch.
type Switcher struct {
	// NorthAmerica reports whether the plugged modem carries two firmwares.
	NorthAmerica func() bool
	Provider     interface {
		ConfigureProviderMode(mode string) (bool, string)
	}
	Services Services
	Sleep    func(time.Duration)
}

// Switch returns an *modem.ExitError with ModemAbsent when there is no North
// America modem and SwitchFirmwareFailed when ofono refused the switch.
func (s *Switcher) Switch(mode string) error {
	if !s.NorthAmerica() {
		log.Error("firmware switching is only available for North America modems")
		return &modem.ExitError{Code: modem.ModemAbsent}
	}

	if err := s.Services.Start(modem.OfonoService); err != nil {
		log.Warn(err)
	}
	if s.Sleep != nil {
		s.Sleep(ofonoSettle)
	}
	ok, msg := s.Provider.ConfigureProviderMode(mode)
	if err := s.Services.Stop(modem.OfonoService); err != nil {
		log.Warn(err)
	}

	if !ok {
		log.Errorf("Could not switch North America firmware mode, error: %s", msg)
		return &modem.ExitError{Code: modem.SwitchFirmwareFailed}
	}
	log.Infof("North America modem firmware switched to '%s'", mode)
	return nil
}

func Run(inputArgs []string, ver string) error {
	version = ver
	args, err := procArgs(inputArgs)
	if err != nil {
		return fmt.Errorf("failed to parse args: %v", err)
	}
	log = logging.NewLogger(args.LogLevel)
	modem.SetLogger(log)
	bus.SetLogger(log)

	settings, err := modem.LoadSettings(args.ConfigDir)
	if err != nil {
		return err
	}
	prober, err := modem.OpenProber(settings)
	if err != nil {
		return err
	}
	at := modem.OpenATClient(settings)
	s := &Switcher{
		NorthAmerica: func() bool {
			// The AT port is only free while ofono is stopped.
			present, _ := usb.NewLister().Present(usb.Modems)
			return len(present) > 0 && at.IsNorthAmerica()
		},
		Provider: prober,
		Services: system.NewSystemd(),
		Sleep:    time.Sleep,
	}
	return s.Switch(args.Mode)
}
