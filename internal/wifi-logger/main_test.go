package wifilogger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/netsupervisor/internal/modem"
	"github.com/TheCacophonyProject/netsupervisor/internal/wifi"
)

type fakeWiFi struct {
	status     wifi.EnabledStatus
	registered bool
	link       string
	linkErr    error
}

func (f *fakeWiFi) EnabledStatus() wifi.EnabledStatus { return f.status }

func (f *fakeWiFi) RegisteredService() (wifi.RegisteredService, bool, error) {
	return wifi.RegisteredService{SSID: "farm"}, f.registered, nil
}

func (f *fakeWiFi) Link() (string, error) { return f.link, f.linkErr }

type rows struct {
	infos []string
}

func (r *rows) LogInfo(info string) (string, error) {
	r.infos = append(r.infos, info)
	return "UTC;" + info, nil
}

func newTestLogger(w *fakeWiFi, reach bool) (*Logger, *rows) {
	r := &rows{}
	return &Logger{WiFi: w, Reachable: func() bool { return reach }, Log: r}, r
}

func TestCollectLogsLinkSummary(t *testing.T) {
	w := &fakeWiFi{status: wifi.StatusEnabled, registered: true, link: "Connected to aa:bb\n\tSSID: farm\n"}
	l, r := newTestLogger(w, true)

	require.NoError(t, l.Collect(false))
	assert.Equal(t, []string{"Connected to aa:bb;\tSSID: farm; Internet access: YES;"}, r.infos)
}

func TestCollectDiagnosticOnlyDoesNotLog(t *testing.T) {
	w := &fakeWiFi{status: wifi.StatusEnabled, registered: true, link: "Not connected.\n"}
	l, r := newTestLogger(w, false)

	require.NoError(t, l.Collect(true))
	assert.Empty(t, r.infos)
}

func TestCollectSkipsWhenNothingToReport(t *testing.T) {
	for _, w := range []*fakeWiFi{
		{status: wifi.StatusDisabled, registered: true},
		{status: wifi.StatusError, registered: true},
		{status: wifi.StatusEnabled, registered: false},
	} {
		l, r := newTestLogger(w, true)
		require.NoError(t, l.Collect(false))
		assert.Empty(t, r.infos)
	}
}

func TestInfoLinkErrors(t *testing.T) {
	l, _ := newTestLogger(&fakeWiFi{linkErr: wifi.ErrNoDongle}, true)
	assert.Equal(t, "No WiFi dongle", l.Info())

	l, _ = newTestLogger(&fakeWiFi{linkErr: errors.New("iw failed")}, true)
	assert.Equal(t, "NA", l.Info())
}

type reacher struct {
	up    map[string]bool
	tried []string
}

func (r *reacher) Reach(e modem.Endpoint) error {
	r.tried = append(r.tried, e.Host)
	if r.up[e.Host] {
		return nil
	}
	return errors.New("unreachable")
}

func TestReachableFirstSuccessWins(t *testing.T) {
	endpoints := []modem.Endpoint{{Host: "a"}, {Host: "b"}, {Host: "c"}}

	r := &reacher{up: map[string]bool{"b": true, "c": true}}
	assert.True(t, reachable(r, endpoints)())
	assert.Equal(t, []string{"a", "b"}, r.tried)

	r = &reacher{}
	assert.False(t, reachable(r, endpoints)())
	assert.Len(t, r.tried, 3)
}

func TestProcArgs(t *testing.T) {
	args, err := procArgs([]string{"diagonly"})
	require.NoError(t, err)
	assert.Equal(t, "diagonly", args.Mode)

	_, err = procArgs([]string{"bogus"})
	assert.Error(t, err)
}
