package devicelogs

import (
	"errors"
	"fmt"
	"os"

	arg "github.com/alexflint/go-arg"

	"github.com/TheCacophonyProject/netsupervisor/internal/logging"
)

var log = logging.NewLogger("info")
var version = "<not set>"

type Args struct {
	ExportTo           string `arg:"--export-to" help:"export all device logs to this directory"`
	LoggerFile         string `arg:"--logger-file" help:"also export the service logger file of NT3x devices, relative paths are under this folder"`
	GetPidevExportPath bool   `arg:"--get-pidev-export-path" help:"print where plugin devices export their data"`
	logging.LogArgs
}

func (Args) Version() string {
	return version
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
	if err == nil && args.ExportTo == "" && !args.GetPidevExportPath {
		parser.WriteHelp(os.Stdout)
		return args, errors.New("nothing to do")
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

	if args.GetPidevExportPath {
		fmt.Println(DefaultPidevExportPath)
		return nil
	}
	e := NewExporter()
	e.LoggerDir = args.LoggerFile
	return e.Export(args.ExportTo)
}
