// Package system wraps the few host tools the connectivity tools drive:
// systemctl, the process table and filesystem sync.
package system

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Runner executes external commands.
type Runner interface {
	Run(name string, args ...string) error
	Output(name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func (ExecRunner) Output(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// Systemd controls units through systemctl.
type Systemd struct {
	Runner Runner
}

func NewSystemd() *Systemd {
	return &Systemd{Runner: ExecRunner{}}
}

func (s *Systemd) Start(unit string) error   { return s.systemctl("start", unit) }
func (s *Systemd) Stop(unit string) error    { return s.systemctl("stop", unit) }
func (s *Systemd) Restart(unit string) error { return s.systemctl("restart", unit) }
func (s *Systemd) Enable(unit string) error  { return s.systemctl("enable", unit) }
func (s *Systemd) Disable(unit string) error { return s.systemctl("disable", unit) }

// IsActive reports whether the unit is active. systemctl exits non zero for
// inactive units so that is not an error.
func (s *Systemd) IsActive(unit string) (bool, error) {
	out, err := s.Runner.Output("systemctl", "is-active", unit)
	state := strings.TrimSpace(string(out))
	if err != nil {
		if state != "" || ExitCode(err) >= 0 {
			return false, nil
		}
		return false, fmt.Errorf("failed to query %s: %w", unit, err)
	}
	return state == "active", nil
}

func (s *Systemd) systemctl(action, unit string) error {
	if err := s.Runner.Run("systemctl", action, unit); err != nil {
		return fmt.Errorf("failed to %s %s: %w", action, unit, err)
	}
	return nil
}

// Processes looks up running processes in a proc filesystem.
type Processes struct {
	Root string
}

func NewProcesses() Processes {
	return Processes{Root: "/proc"}
}

// IsRunning reports whether a process whose command name is name exists.
func (p Processes) IsRunning(name string) (bool, error) {
	root := p.Root
	if root == "" {
		root = "/proc"
	}
	comms, err := filepath.Glob(filepath.Join(root, "[0-9]*", "comm"))
	if err != nil {
		return false, err
	}
	for _, comm := range comms {
		data, err := os.ReadFile(comm)
		if err != nil {
			// Process exited while scanning.
			continue
		}
		if string(bytes.TrimSpace(data)) == name {
			return true, nil
		}
	}
	return false, nil
}

// ExitCode returns the exit status of a failed command, or -1 when err does
// not come from a command that ran to completion.
func ExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Sync flushes filesystem buffers.
func Sync() {
	unix.Sync()
}
