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

package cellularsupervisor

import (
	"errors"
	"fmt"
	"os"

	"github.com/TheCacophonyProject/event-reporter/v3/eventclient"
	"github.com/TheCacophonyProject/go-config"
	arg "github.com/alexflint/go-arg"

	"github.com/TheCacophonyProject/netsupervisor/internal/bus"
	"github.com/TheCacophonyProject/netsupervisor/internal/logging"
	"github.com/TheCacophonyProject/netsupervisor/internal/modem"
	"github.com/TheCacophonyProject/netsupervisor/internal/stats"
)

const (
	modeDiagnosticOnly = "diagonly"
	modeStats          = "stats"
)

var log = logging.NewLogger("info")
var version = "<not set>"

type Args struct {
	Mode      string `arg:"positional" help:"diagonly: only show the diagnostic, stats: only show uptime and failure counters"`
	ConfigDir string `arg:"-c,--config" help:"path to configuration directory"`
	logging.LogArgs
}

func (Args) Version() string {
	return version
}

func (Args) Description() string {
	return "Check the cellular data connection and recover from failures."
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
	if err == nil {
		switch args.Mode {
		case "", modeDiagnosticOnly, modeStats:
		default:
			parser.WriteUsage(os.Stderr)
			err = fmt.Errorf("bad argument %q, use %q or %q", args.Mode, modeDiagnosticOnly, modeStats)
		}
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
	stats.SetLogger(log)
	bus.SetLogger(log)

	uptime := stats.NewUptimeMarker(stats.DefaultUptimePath)
	s := &Supervisor{
		Failures: stats.FailureCounter{Path: stats.DefaultFailureCounterPath},
		Uptime:   uptime,
		AddEvent: eventclient.AddEvent,
	}
	if args.Mode == modeStats {
		s.ShowStats()
		return nil
	}

	settings, err := modem.LoadSettings(args.ConfigDir)
	if err != nil {
		return err
	}
	prober, err := modem.OpenProber(settings)
	if err != nil {
		return err
	}
	history := stats.NewCellularLog(stats.DefaultCellularStatsPath, uptime)
	remediator, err := modem.OpenRemediator(settings, history)
	if err != nil {
		return err
	}
	s.Checks = prober
	s.History = history
	s.Remediator = remediator

	_, err = s.Supervise(args.Mode == modeDiagnosticOnly)
	return err
}
