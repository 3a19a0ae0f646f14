package modemdetection

import (
	"errors"
	"fmt"
	"os"

	arg "github.com/alexflint/go-arg"

	"github.com/TheCacophonyProject/netsupervisor/internal/logging"
	"github.com/TheCacophonyProject/netsupervisor/internal/stats"
)

var log = logging.NewLogger("info")
var version = "<not set>"

type Args struct {
	StatsFile string `arg:"--stats-file" help:"cellular stats CSV file"`
	logging.LogArgs
}

func (Args) Version() string {
	return version
}

func (Args) Description() string {
	return "Record a modem detection in the cellular stats. Run by udev when a modem shows up."
}

var defaultArgs = Args{
	StatsFile: stats.DefaultCellularStatsPath,
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
	stats.SetLogger(log)

	return stats.NewCellularLog(args.StatsFile, nil).LogModemDetection()
}
