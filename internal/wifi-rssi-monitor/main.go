package wifirssimonitor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	arg "github.com/alexflint/go-arg"

	"github.com/TheCacophonyProject/netsupervisor/internal/bus"
	"github.com/TheCacophonyProject/netsupervisor/internal/logging"
	"github.com/TheCacophonyProject/netsupervisor/internal/wifi"
	"github.com/TheCacophonyProject/netsupervisor/statuslistener"
)

var log = logging.NewLogger("info")
var version = "<not set>"

type Args struct {
	LockFile string `arg:"--lock-file" help:"path to the Wi-Fi configuration lock"`
	logging.LogArgs
}

func (Args) Version() string {
	return version
}

func (Args) Description() string {
	return "Publish the Wi-Fi signal strength on D-Bus, reconnecting to the registered network if needed."
}

var defaultArgs = Args{
	LockFile: wifi.DefaultLockPath,
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
	wifi.SetLogger(log)
	bus.SetLogger(log)

	log.Info("Wi-Fi RSSI monitor start")
	conn, err := bus.SystemBus()
	if err != nil {
		return err
	}
	m, err := wifi.Open()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	monitor := &Monitor{
		WiFi: m,
		Lock: wifi.NewLock(args.LockFile),
		Publish: func(s statuslistener.WiFiStatus) error {
			return conn.Emit(statuslistener.DBusPath, statuslistener.DBusInterface+"."+statuslistener.WiFiStatusMember, s.Body()...)
		},
	}
	return monitor.Run(ctx)
}
