package system

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	commands []string
	output   []byte
	err      error
}

func (f *fakeRunner) Run(name string, args ...string) error {
	f.commands = append(f.commands, name+" "+strings.Join(args, " "))
	return f.err
}

func (f *fakeRunner) Output(name string, args ...string) ([]byte, error) {
	f.commands = append(f.commands, name+" "+strings.Join(args, " "))
	return f.output, f.err
}

func TestSystemdCommands(t *testing.T) {
	r := &fakeRunner{}
	s := &Systemd{Runner: r}
	require.NoError(t, s.Stop("ofono.service"))
	require.NoError(t, s.Restart("connman.service"))
	require.NoError(t, s.Enable("cellular_data_supervisor.timer"))
	assert.Equal(t, []string{
		"systemctl stop ofono.service",
		"systemctl restart connman.service",
		"systemctl enable cellular_data_supervisor.timer",
	}, r.commands)
}

func TestSystemdErrorNamesUnit(t *testing.T) {
	s := &Systemd{Runner: &fakeRunner{err: errors.New("boom")}}
	err := s.Start("ofono.service")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start ofono.service")
}

func TestIsActive(t *testing.T) {
	active, err := (&Systemd{Runner: &fakeRunner{output: []byte("active\n")}}).IsActive("a")
	require.NoError(t, err)
	assert.True(t, active)

	active, err = (&Systemd{Runner: &fakeRunner{output: []byte("inactive\n"), err: errors.New("exit status 3")}}).IsActive("a")
	require.NoError(t, err)
	assert.False(t, active)

	_, err = (&Systemd{Runner: &fakeRunner{err: errors.New("not found")}}).IsActive("a")
	assert.Error(t, err)
}

func TestProcessesIsRunning(t *testing.T) {
	root := t.TempDir()
	for pid, comm := range map[string]string{"1": "systemd\n", "42": "ofonod\n", "self": "x\n"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, pid), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(root, pid, "comm"), []byte(comm), 0644))
	}
	p := Processes{Root: root}

	running, err := p.IsRunning("ofonod")
	require.NoError(t, err)
	assert.True(t, running)

	running, err = p.IsRunning("connmand")
	require.NoError(t, err)
	assert.False(t, running)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, -1, ExitCode(errors.New("plain")))
	assert.Equal(t, -1, ExitCode(nil))
}
