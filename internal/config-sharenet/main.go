package configsharenet

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	arg "github.com/alexflint/go-arg"

	"github.com/TheCacophonyProject/netsupervisor/internal/bus"
	"github.com/TheCacophonyProject/netsupervisor/internal/logging"
	"github.com/TheCacophonyProject/netsupervisor/internal/sharenet"
)

var log = logging.NewLogger("info")
var version = "<not set>"

const (
	settingBridge    = "bridge"
	settingTethering = "tethering"
	settingLANServer = "lanserver"
)

var errUnknownSetting = errors.New("unknown setting, expected bridge, tethering or lanserver")

type Args struct {
	Get  *getSubcommand  `arg:"subcommand:get" help:"print a setting as JSON"`
	Set  *setSubcommand  `arg:"subcommand:set" help:"change a setting and restart the network"`
	Load *loadSubcommand `arg:"subcommand:load" help:"apply the saved configuration ('load configuration')"`
	logging.LogArgs
}

type getSubcommand struct {
	Setting string `arg:"positional,required" help:"bridge, tethering or lanserver"`
}

type setSubcommand struct {
	Setting string   `arg:"positional,required" help:"bridge, tethering or lanserver"`
	Values  []string `arg:"positional" help:"interfaces to bridge, tethering mode (none|cellular) or lanserver yes|no"`
}

type loadSubcommand struct {
	What string `arg:"positional,required" help:"configuration"`
}

func (Args) Version() string {
	return version
}

func (Args) Description() string {
	return `Configure connection sharing.

  get bridge|tethering|lanserver
  set bridge [interface...]
  set tethering none|cellular
  set lanserver yes|no
  load configuration`
}

func procArgs(input []string) (Args, error) {
	var args Args

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
		parser.WriteHelp(os.Stderr)
		return args, errors.New("missing arguments")
	}
	return args, err
}

type Sharenet interface {
	BridgedInterfaces() ([]string, error)
	ConfigureBridge(ifaces []string, restart bool) error
	Tethering() (sharenet.TetheringMode, error)
	ConfigureTethering(mode sharenet.TetheringMode, restart bool) error
	LANServerEnabled() (bool, error)
	ConfigureLANServer(enable, permanent, restart bool) error
	LoadConfiguration() error
}

// Tool runs one config-sharenet command.
type Tool struct {
	Sharenet Sharenet
	Out      io.Writer
}

func (t *Tool) Execute(args Args) error {
	switch {
	case args.Get != nil:
		return t.get(args.Get.Setting)
	case args.Set != nil:
		return t.set(args.Set.Setting, args.Set.Values)
	case args.Load != nil:
		if args.Load.What != "configuration" && args.Load.What != "config" {
			return fmt.Errorf("cannot load %q", args.Load.What)
		}
		return t.Sharenet.LoadConfiguration()
	}
	return errors.New("missing arguments")
}

func (t *Tool) get(setting string) error {
	var result map[string]interface{}
	switch setting {
	case settingBridge:
		ifaces, err := t.Sharenet.BridgedInterfaces()
		if err != nil {
			return err
		}
		result = map[string]interface{}{settingBridge: ifaces}
	case settingTethering:
		mode, err := t.Sharenet.Tethering()
		if err != nil {
			return err
		}
		result = map[string]interface{}{settingTethering: mode}
	case settingLANServer:
		enabled, err := t.Sharenet.LANServerEnabled()
		if err != nil {
			return err
		}
		result = map[string]interface{}{settingLANServer: yesNo(enabled)}
	default:
		return errUnknownSetting
	}
	b, err := json.MarshalIndent(result, "", "    ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(t.Out, string(b))
	return err
}

func (t *Tool) set(setting string, values []string) error {
	switch setting {
	case settingBridge:
		return t.Sharenet.ConfigureBridge(values, true)
	case settingTethering, settingLANServer:
		if len(values) != 1 {
			return fmt.Errorf("set %s takes exactly one value", setting)
		}
	default:
		return errUnknownSetting
	}

	if setting == settingTethering {
		mode, err := sharenet.ParseTetheringMode(values[0])
		if err != nil {
			return err
		}
		return t.Sharenet.ConfigureTethering(mode, true)
	}
	return t.Sharenet.ConfigureLANServer(values[0] == "yes", true, true)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func Run(inputArgs []string, ver string) error {
	version = ver
	args, err := procArgs(inputArgs)
	if err != nil {
		return fmt.Errorf("failed to parse args: %v", err)
	}
	log = logging.NewLogger(args.LogLevel)
	sharenet.SetLogger(log)
	bus.SetLogger(log)

	s, err := sharenet.Open()
	if err != nil {
		return err
	}
	t := &Tool{Sharenet: s, Out: os.Stdout}
	return t.Execute(args)
}
