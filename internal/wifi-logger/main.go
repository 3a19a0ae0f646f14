package wifilogger

import (
	"errors"
	"fmt"
	"os"

	arg "github.com/alexflint/go-arg"

	"github.com/TheCacophonyProject/netsupervisor/internal/bus"
	"github.com/TheCacophonyProject/netsupervisor/internal/logging"
	"github.com/TheCacophonyProject/netsupervisor/internal/modem"
	"github.com/TheCacophonyProject/netsupervisor/internal/stats"
	"github.com/TheCacophonyProject/netsupervisor/internal/wifi"
)

var log = logging.NewLogger("info")
var version = "<not set>"

const (
	diagnosticMode = "diagonly"
	noDongle       = "No WiFi dongle"
	notAvailable   = "NA"
)

type Args struct {
	Mode      string `arg:"positional" help:"diagonly prints the Wi-Fi info without logging it"`
	StatsFile string `arg:"--stats-file" help:"path to the Wi-Fi stats CSV"`
	logging.LogArgs
}

func (Args) Version() string {
	return version
}

var defaultArgs = Args{
	StatsFile: stats.DefaultWiFiStatsPath,
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
	if err == nil && args.Mode != "" && args.Mode != diagnosticMode {
		parser.WriteUsage(os.Stdout)
		return args, fmt.Errorf("unknown mode %q", args.Mode)
	}
	return args, err
}

// WiFi is the part of the Wi-Fi manager the logger reads.
type WiFi interface {
	EnabledStatus() wifi.EnabledStatus
	RegisteredService() (wifi.RegisteredService, bool, error)
	Link() (string, error)
}

// Logger collects the Wi-Fi link report of a registered network.
type Logger struct {
	WiFi WiFi
	// Reachable reports whether a reference server answers over Wi-Fi.
	Reachable func() bool
	Log       interface {
		LogInfo(info string) (string, error)
	}
}

// Info returns the stats line for the current link.
func (l *Logger) Info() string {
	link, err := l.WiFi.Link()
	switch {
	case errors.Is(err, wifi.ErrNoDongle):
		return noDongle
	case err != nil:
		log.Error(err)
		return notAvailable
	}
	return wifi.LinkSummary(link, l.Reachable())
}

// Collect prints the link info and, unless diagnosticOnly, appends it to the
// stats file. Nothing is done while Wi-Fi is off or no network is registered.
func (l *Logger) Collect(diagnosticOnly bool) error {
	if l.WiFi.EnabledStatus() != wifi.StatusEnabled {
		log.Info("Wi-Fi is not enabled")
		return nil
	}
	_, registered, err := l.WiFi.RegisteredService()
	if err != nil {
		return err
	}
	if !registered {
		return nil
	}

	info := l.Info()
	fmt.Println(info)
	if diagnosticOnly {
		return nil
	}
	line, err := l.Log.LogInfo(info)
	if err != nil {
		return err
	}
	log.Infof("%q added to Wi-Fi CSV stats", line)
	return nil
}

// reachable tries the endpoints in order and stops at the first answer.
func reachable(r modem.Reacher, endpoints []modem.Endpoint) func() bool {
	return func() bool {
		for _, e := range endpoints {
			if err := r.Reach(e); err != nil {
				log.Debugf("Impossible to contact %s: %v", e.Host, err)
				continue
			}
			log.Debugf("Contact to %s successful", e.Host)
			return true
		}
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
	wifi.SetLogger(log)
	stats.SetLogger(log)
	bus.SetLogger(log)

	m, err := wifi.Open()
	if err != nil {
		return err
	}
	l := &Logger{
		WiFi:      m,
		Reachable: reachable(modem.NewContacter(m.Interface), modem.DefaultEndpoints),
		Log:       stats.NewWiFiLog(args.StatsFile),
	}
	return l.Collect(args.Mode == diagnosticMode)
}
