package configsharenet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/netsupervisor/internal/sharenet"
)

type fakeSharenet struct {
	bridged   []string
	tethering sharenet.TetheringMode
	lanServer bool
	calls     []string
	loaded    bool
}

func (f *fakeSharenet) BridgedInterfaces() ([]string, error) { return f.bridged, nil }

func (f *fakeSharenet) ConfigureBridge(ifaces []string, restart bool) error {
	f.bridged = ifaces
	f.calls = append(f.calls, "bridge")
	return nil
}

func (f *fakeSharenet) Tethering() (sharenet.TetheringMode, error) { return f.tethering, nil }

func (f *fakeSharenet) ConfigureTethering(mode sharenet.TetheringMode, restart bool) error {
	f.tethering = mode
	f.calls = append(f.calls, "tethering")
	return nil
}

func (f *fakeSharenet) LANServerEnabled() (bool, error) { return f.lanServer, nil }

func (f *fakeSharenet) ConfigureLANServer(enable, permanent, restart bool) error {
	f.lanServer = enable
	f.calls = append(f.calls, "lanserver")
	return nil
}

func (f *fakeSharenet) LoadConfiguration() error {
	f.loaded = true
	return nil
}

func execute(t *testing.T, s *fakeSharenet, input ...string) (string, error) {
	t.Helper()
	args, err := procArgs(input)
	require.NoError(t, err)
	out := &bytes.Buffer{}
	err = (&Tool{Sharenet: s, Out: out}).Execute(args)
	return out.String(), err
}

func TestGet(t *testing.T) {
	s := &fakeSharenet{bridged: []string{"fec0", "fec1"}, tethering: sharenet.TetheringCellular, lanServer: true}

	out, err := execute(t, s, "get", "bridge")
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"bridge\": [\n        \"fec0\",\n        \"fec1\"\n    ]\n}\n", out)

	out, err = execute(t, s, "get", "tethering")
	require.NoError(t, err)
	assert.JSONEq(t, `{"tethering":"cellular"}`, out)

	out, err = execute(t, s, "get", "lanserver")
	require.NoError(t, err)
	assert.JSONEq(t, `{"lanserver":"yes"}`, out)

	_, err = execute(t, s, "get", "routes")
	assert.ErrorIs(t, err, errUnknownSetting)
}

func TestSet(t *testing.T) {
	s := &fakeSharenet{}

	_, err := execute(t, s, "set", "bridge", "fec0", "fec1")
	require.NoError(t, err)
	assert.Equal(t, []string{"fec0", "fec1"}, s.bridged)

	_, err = execute(t, s, "set", "tethering", "cellular")
	require.NoError(t, err)
	assert.Equal(t, sharenet.TetheringCellular, s.tethering)

	_, err = execute(t, s, "set", "lanserver", "yes")
	require.NoError(t, err)
	assert.True(t, s.lanServer)

	assert.Equal(t, []string{"bridge", "tethering", "lanserver"}, s.calls)
}

func TestSetRejectsBadValues(t *testing.T) {
	s := &fakeSharenet{}

	_, err := execute(t, s, "set", "tethering", "wifi")
	assert.ErrorIs(t, err, sharenet.ErrUnknownMode)

	_, err = execute(t, s, "set", "lanserver")
	assert.Error(t, err)
	assert.Empty(t, s.calls)
}

func TestLoad(t *testing.T) {
	s := &fakeSharenet{}
	_, err := execute(t, s, "load", "config")
	require.NoError(t, err)
	assert.True(t, s.loaded)

	_, err = execute(t, &fakeSharenet{}, "load", "everything")
	assert.Error(t, err)
}
