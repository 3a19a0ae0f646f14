package ethernetports

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	arg "github.com/alexflint/go-arg"
	"github.com/google/renameio/v2"

	"github.com/TheCacophonyProject/netsupervisor/internal/bus"
	"github.com/TheCacophonyProject/netsupervisor/internal/logging"
	"github.com/TheCacophonyProject/netsupervisor/internal/sharenet"
	"github.com/TheCacophonyProject/netsupervisor/internal/system"
)

var log = logging.NewLogger("info")
var version = "<not set>"

const DefaultModeFile = "/media/persistent/system/ethernet_ports_mode"

// Mode is how the two Ethernet ports are used.
type Mode string

const (
	// ModeNone uses no Ethernet port.
	ModeNone Mode = "none"
	// ModeChain bridges both ports on the main board to chain controllers.
	ModeChain Mode = "chain"
	// ModeSplit uses both ports separately on the main board.
	ModeSplit Mode = "split"
	// ModeMixIEP gives the second port to the IEP extension board.
	ModeMixIEP Mode = "mixIEP"
	// ModeIEPOnly bridges both ports on the IEP board for industrial protocols.
	ModeIEPOnly Mode = "IEPOnly"
)

var supportedModes = []Mode{ModeNone, ModeChain, ModeSplit, ModeMixIEP, ModeIEPOnly}

func parseMode(s string) (Mode, error) {
	for _, m := range supportedModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid ethernet ports mode %q", s)
}

type Args struct {
	Command  []string `arg:"positional" help:"get | set <mode> | update IEP module"`
	ModeFile string   `arg:"--mode-file" help:"where the mode is saved"`
	logging.LogArgs
}

func (Args) Version() string {
	return version
}

func (Args) Description() string {
	return `Configure the ethernet ports mode.

  get                print the current mode as JSON
  set <mode>         with mode one of:
      none           no ethernet port
      chain          both ports bridged by the main board to chain controllers
      split          both ports used separately by the main board
      mixIEP         one port on the main board, the second on the IEP board
      IEPOnly        both ports bridged by the IEP board for IEP protocols
  update IEP module  send the saved mode to the IEP module, after a module replacement`
}

var defaultArgs = Args{
	ModeFile: DefaultModeFile,
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
		return args, fmt.Errorf("invalid command %q", strings.Join(args.Command, " "))
	}
	return args, err
}

func validCommand(cmd []string) bool {
	switch {
	case len(cmd) == 1 && cmd[0] == "get":
		return true
	case len(cmd) == 2 && cmd[0] == "set":
		_, err := parseMode(cmd[1])
		return err == nil
	case len(cmd) == 3:
		return cmd[0] == "update" && cmd[1] == "IEP" && cmd[2] == "module"
	}
	return false
}

type Bridge interface {
	ConfigureBridge(ifaces []string, restart bool) error
}

type Module interface {
	Configure(mode Mode) (string, error)
}

// Ports applies and remembers the Ethernet ports mode.
type Ports struct {
	Bridge   Bridge
	Module   Module
	ModeFile string
	Out      io.Writer
}

// Mode returns the saved mode, ModeNone when nothing valid was saved.
func (p *Ports) Mode() Mode {
	data, err := os.ReadFile(p.ModeFile)
	if err != nil {
		log.Debugf("Reading %s: %v", p.ModeFile, err)
		return ModeNone
	}
	line, _, _ := strings.Cut(string(data), "\n")
	mode, err := parseMode(strings.TrimSpace(line))
	if err != nil {
		log.Warnf("%v in %s", err, p.ModeFile)
		return ModeNone
	}
	return mode
}

// Set bridges fec1, and fec0 too in chain mode, configures the IEP module
// and saves the mode.
func (p *Ports) Set(mode Mode) error {
	ifaces := []string{"fec1"}
	if mode == ModeChain {
		ifaces = append(ifaces, "fec0")
	}
	if err := p.Bridge.ConfigureBridge(ifaces, true); err != nil {
		return fmt.Errorf("configuring ports in system: %w", err)
	}
	if _, err := p.Module.Configure(mode); err != nil {
		return err
	}
	if err := renameio.WriteFile(p.ModeFile, []byte(mode), 0644); err != nil {
		return fmt.Errorf("failed to save configuration to %s: %w", p.ModeFile, err)
	}
	fmt.Fprintln(p.Out, "Configuration saved")
	return nil
}

// UpdateModule sends the saved mode to a replaced IEP module.
func (p *Ports) UpdateModule() error {
	msg, err := p.Module.Configure(p.Mode())
	if err != nil {
		return err
	}
	fmt.Fprintln(p.Out, msg)
	return nil
}

func (p *Ports) printMode() error {
	b, err := json.MarshalIndent(map[string]Mode{"ethernetPortsMode": p.Mode()}, "", "    ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.Out, string(b))
	return err
}

func (p *Ports) Execute(cmd []string) error {
	switch cmd[0] {
	case "get":
		return p.printMode()
	case "set":
		mode, err := parseMode(cmd[1])
		if err != nil {
			return err
		}
		return p.Set(mode)
	}
	return p.UpdateModule()
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

	p := &Ports{
		Module:   &IEPModule{Runner: system.ExecRunner{}},
		ModeFile: args.ModeFile,
		Out:      os.Stdout,
	}
	if args.Command[0] == "set" {
		s, err := sharenet.Open()
		if err != nil {
			return err
		}
		p.Bridge = s
	}
	return p.Execute(args.Command)
}
