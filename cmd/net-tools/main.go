package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	cellularsupervisor "github.com/TheCacophonyProject/netsupervisor/internal/cellular-supervisor"
	configmodem "github.com/TheCacophonyProject/netsupervisor/internal/config-modem"
	configsharenet "github.com/TheCacophonyProject/netsupervisor/internal/config-sharenet"
	configwifi "github.com/TheCacophonyProject/netsupervisor/internal/config-wifi"
	devicelogs "github.com/TheCacophonyProject/netsupervisor/internal/device-logs"
	ethernetports "github.com/TheCacophonyProject/netsupervisor/internal/ethernet-ports"
	"github.com/TheCacophonyProject/netsupervisor/internal/logging"
	modemdetection "github.com/TheCacophonyProject/netsupervisor/internal/modem-detection"
	signalmonitor "github.com/TheCacophonyProject/netsupervisor/internal/signal-monitor"
	switchfirmware "github.com/TheCacophonyProject/netsupervisor/internal/switch-firmware"
	watchstatus "github.com/TheCacophonyProject/netsupervisor/internal/watch-status"
	wifilogger "github.com/TheCacophonyProject/netsupervisor/internal/wifi-logger"
	wifirssimonitor "github.com/TheCacophonyProject/netsupervisor/internal/wifi-rssi-monitor"
)

var log *logging.Logger

var version = "<not set>"

const multiplexer = "net-tools"

var tools = map[string]func(args []string, version string) error{
	"cellular-supervisor": cellularsupervisor.Run,
	"config-modem":        configmodem.Run,
	"config-sharenet":     configsharenet.Run,
	"config-wifi":         configwifi.Run,
	"device-logs":         devicelogs.Run,
	"ethernet-ports":      ethernetports.Run,
	"modem-detection":     modemdetection.Run,
	"signal-monitor":      signalmonitor.Run,
	"switch-firmware":     switchfirmware.Run,
	"watch-status":        watchstatus.Run,
	"wifi-logger":         wifilogger.Run,
	"wifi-rssi-monitor":   wifirssimonitor.Run,
}

// exitCoder is an error that selects the process exit status, such as a
// diagnostic code.
type exitCoder interface {
	ExitCode() int
}

func main() {
	err := runMain()
	if err == nil {
		return
	}
	if code, ok := exitCode(err); ok {
		log.Info(err)
		os.Exit(code)
	}
	log.Fatal(err)
}

// exitCode returns the status selected by err, if it selects one.
func exitCode(err error) (int, bool) {
	var exit exitCoder
	if errors.As(err, &exit) {
		return exit.ExitCode(), true
	}
	return 0, false
}

// runMain runs the tool named by the first argument, or by the name the
// binary was invoked as when it is a link to a tool.
func runMain() error {
	log = logging.NewLogger("info")

	subcommand := filepath.Base(os.Args[0])
	args := os.Args[1:]
	if _, ok := tools[subcommand]; !ok {
		if len(os.Args) < 2 {
			log.Infof("Usage: %s <subcommand> [args]", multiplexer)
			log.Infof("Subcommands: %s", strings.Join(toolNames(), ", "))
			return fmt.Errorf("no subcommand given")
		}
		subcommand = os.Args[1]
		args = os.Args[2:]
	}

	run, ok := tools[subcommand]
	if !ok {
		return fmt.Errorf("unknown subcommand: %s", subcommand)
	}
	return run(args, version)
}

func toolNames() []string {
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
