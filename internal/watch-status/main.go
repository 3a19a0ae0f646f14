package watchstatus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	arg "github.com/alexflint/go-arg"

	"github.com/TheCacophonyProject/netsupervisor/internal/logging"
	"github.com/TheCacophonyProject/netsupervisor/statusclient"
	"github.com/TheCacophonyProject/netsupervisor/statuslistener"
)

var log = logging.NewLogger("info")
var version = "<not set>"

type Args struct {
	Once bool `arg:"--once" help:"print the current cellular status and exit"`
	logging.LogArgs
}

func (Args) Version() string {
	return version
}

func (Args) Description() string {
	return "Print the cellular status, then every cellular and Wi-Fi status update."
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
	return args, err
}

func printCellular(w io.Writer, t time.Time, s statuslistener.CellularStatus) {
	fmt.Fprintf(w, "%s cellular: strength %d dBm, state %s, tech %s\n", t.Format("15:04:05"), s.Strength, s.State, s.Tech)
}

func printWiFi(w io.Writer, t time.Time, s statuslistener.WiFiStatus) {
	fmt.Fprintf(w, "%s wifi: rssi %d dBm, state %s, tech %s\n", t.Format("15:04:05"), s.RSSI, s.State, s.Tech)
}

// watch prints updates until ctx is done or updates is closed.
func watch(ctx context.Context, w io.Writer, updates <-chan statuslistener.Update, now func() time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			switch {
			case u.Cellular != nil:
				printCellular(w, now(), *u.Cellular)
			case u.WiFi != nil:
				printWiFi(w, now(), *u.WiFi)
			}
		}
	}
}

func Run(inputArgs []string, ver string) error {
	version = ver
	args, err := procArgs(inputArgs)
	if err != nil {
		return fmt.Errorf("failed to parse args: %v", err)
	}
	log = logging.NewLogger(args.LogLevel)

	status, err := statusclient.GetCellularStatus()
	if err != nil {
		log.Warnf("Cellular status not available: %v", err)
	} else {
		printCellular(os.Stdout, time.Now(), status)
	}
	if args.Once {
		return err
	}

	updates, err := statuslistener.GetStatusListener()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	watch(ctx, os.Stdout, updates, time.Now)
	return nil
}
