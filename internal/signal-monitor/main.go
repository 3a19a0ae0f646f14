package signalmonitor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/TheCacophonyProject/go-config"
	arg "github.com/alexflint/go-arg"

	"github.com/TheCacophonyProject/netsupervisor/internal/bus"
	"github.com/TheCacophonyProject/netsupervisor/internal/logging"
	"github.com/TheCacophonyProject/netsupervisor/internal/modem"
)

var log = logging.NewLogger("info")
var version = "<not set>"

type Args struct {
	ConfigDir string `arg:"-c,--config" help:"path to configuration directory"`
	logging.LogArgs
}

func (Args) Version() string {
	return version
}

func (Args) Description() string {
	return "Publish the cellular signal strength on D-Bus until stopped."
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

func Run(inputArgs []string, ver string) error {
	version = ver
	args, err := procArgs(inputArgs)
	if err != nil {
		return fmt.Errorf("failed to parse args: %v", err)
	}
	log = logging.NewLogger(args.LogLevel)
	modem.SetLogger(log)
	bus.SetLogger(log)

	log.Info("Start cellular signal_strength monitor")
	settings, err := modem.LoadSettings(args.ConfigDir)
	if err != nil {
		return err
	}
	prober, err := modem.OpenProber(settings)
	if err != nil {
		return err
	}
	conn, err := bus.SystemBus()
	if err != nil {
		return err
	}
	log.Println("Starting dbus service.")
	s, err := startService(conn)
	if err != nil {
		return err
	}

	// Cellular being disabled stops this service.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	NewMonitor(prober, s.publish).Run(ctx)

	log.Info("End of cellular signal_strength monitor")
	return nil
}
