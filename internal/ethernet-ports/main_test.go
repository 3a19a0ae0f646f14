package ethernetports

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClientRunner answers TestClientII calls from canned outputs keyed by
// the joined arguments.
type testClientRunner struct {
	outputs map[string]string
	fail    map[string]bool
	calls   []string
}

func (r *testClientRunner) Run(name string, args ...string) error {
	key := strings.Join(args, " ")
	r.calls = append(r.calls, key)
	if r.fail[key] {
		return errors.New("exit status 1")
	}
	return nil
}

func (r *testClientRunner) Output(name string, args ...string) ([]byte, error) {
	key := strings.Join(args, " ")
	r.calls = append(r.calls, key)
	if r.fail[key] {
		return nil, errors.New("exit status 1")
	}
	return []byte(r.outputs[key]), nil
}

const profinetSlot = "slot 11\n  fusion_id : HL001_53251_0123456789ab\n  version : 2\n"

func TestIEPModuleAbsent(t *testing.T) {
	for _, r := range []*testClientRunner{
		{outputs: map[string]string{"-d -h11": "slot 11\n  fusion_id : HL002_00000_0123456789ab\n"}},
		{fail: map[string]bool{"-d -h11": true}},
		{outputs: map[string]string{"-d -h11": "serial : HL001_53251_0123456789ab\n"}},
	} {
		msg, err := (&IEPModule{Runner: r}).Configure(ModeIEPOnly)
		require.NoError(t, err)
		assert.Equal(t, "No IEP module connected", msg)
		assert.Equal(t, []string{"-d -h11"}, r.calls)
	}
}

func TestIEPModuleConfigure(t *testing.T) {
	r := &testClientRunner{outputs: map[string]string{
		"-d -h11":     profinetSlot,
		"-h11 -p -x2": "read\nreg 2 : 0x0001\n",
	}}
	msg, err := (&IEPModule{Runner: r}).Configure(ModeIEPOnly)
	require.NoError(t, err)
	assert.Equal(t, "Configuration sent to IEP module", msg)
	assert.Equal(t, []string{"-d -h11", "-h11 -F25", "-h11 -p -x2"}, r.calls)

	r.calls = nil
	_, err = (&IEPModule{Runner: r}).Configure(ModeMixIEP)
	assert.ErrorIs(t, err, errRegisterWrite)
	assert.Equal(t, []string{"-d -h11", "-h11 -F20", "-h11 -p -x2"}, r.calls)
}

func TestRegisterValue(t *testing.T) {
	v, err := registerValue("reg  2:  0x1A\n")
	require.NoError(t, err)
	assert.Equal(t, 26, v)

	_, err = registerValue("request failed with code 4\nreg 2 : 0x0\n")
	assert.ErrorIs(t, err, errRegisterRead)

	_, err = registerValue("garbage")
	assert.ErrorIs(t, err, errRegisterRead)
}

type fakeBridge struct {
	ifaces []string
}

func (b *fakeBridge) ConfigureBridge(ifaces []string, restart bool) error {
	b.ifaces = ifaces
	return nil
}

type fakeModule struct {
	modes []Mode
	err   error
}

func (m *fakeModule) Configure(mode Mode) (string, error) {
	m.modes = append(m.modes, mode)
	return "No IEP module connected", m.err
}

func newTestPorts(t *testing.T) (*Ports, *fakeBridge, *fakeModule, *bytes.Buffer) {
	b := &fakeBridge{}
	m := &fakeModule{}
	out := &bytes.Buffer{}
	return &Ports{
		Bridge:   b,
		Module:   m,
		ModeFile: filepath.Join(t.TempDir(), "ethernet_ports_mode"),
		Out:      out,
	}, b, m, out
}

func TestGetDefaultsToNone(t *testing.T) {
	p, _, _, out := newTestPorts(t)
	require.NoError(t, p.Execute([]string{"get"}))
	assert.Equal(t, "{\n    \"ethernetPortsMode\": \"none\"\n}\n", out.String())

	require.NoError(t, os.WriteFile(p.ModeFile, []byte("bogus\n"), 0644))
	assert.Equal(t, ModeNone, p.Mode())
}

func TestSetChainBridgesBothPorts(t *testing.T) {
	p, b, m, _ := newTestPorts(t)
	require.NoError(t, p.Execute([]string{"set", "chain"}))
	assert.Equal(t, []string{"fec1", "fec0"}, b.ifaces)
	assert.Equal(t, []Mode{ModeChain}, m.modes)
	assert.Equal(t, ModeChain, p.Mode())

	require.NoError(t, p.Execute([]string{"set", "IEPOnly"}))
	assert.Equal(t, []string{"fec1"}, b.ifaces)
	assert.Equal(t, ModeIEPOnly, p.Mode())
}

func TestSetModuleFailureKeepsMode(t *testing.T) {
	p, _, m, _ := newTestPorts(t)
	require.NoError(t, p.Set(ModeSplit))
	m.err = errRegisterWrite

	assert.ErrorIs(t, p.Set(ModeIEPOnly), errRegisterWrite)
	assert.Equal(t, ModeSplit, p.Mode())
}

func TestUpdateModuleSendsSavedMode(t *testing.T) {
	p, _, m, out := newTestPorts(t)
	require.NoError(t, os.WriteFile(p.ModeFile, []byte("mixIEP"), 0644))

	require.NoError(t, p.Execute([]string{"update", "IEP", "module"}))
	assert.Equal(t, []Mode{ModeMixIEP}, m.modes)
	assert.Equal(t, "No IEP module connected\n", out.String())
}

func TestValidCommand(t *testing.T) {
	assert.True(t, validCommand([]string{"get"}))
	assert.True(t, validCommand([]string{"set", "split"}))
	assert.True(t, validCommand([]string{"update", "IEP", "module"}))
	assert.False(t, validCommand([]string{"set", "both"}))
	assert.False(t, validCommand([]string{"update"}))
	assert.False(t, validCommand(nil))
}
