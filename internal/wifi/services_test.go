package wifi

import (
	"os/exec"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/netsupervisor/internal/bus"
)

func TestSSIDString(t *testing.T) {
	assert.Equal(t, "office", SSIDString([]byte("office")))
	assert.Equal(t, "a%0Ab", SSIDString([]byte{'a', '\n', 'b'}))
	assert.Equal(t, "%C3%83%C2%A9", SSIDString([]byte("é")))
	assert.Equal(t, "AA:0B:01", BSSIDString([]byte{0xaa, 0x0b, 0x01}))
}

func servicesManager(t *testing.T) (*Manager, *fakeSupplicant, *fakeConnman) {
	m, s, c := newTestManager(t)
	s.props = map[string]interface{}{"BSSs": []string{"/bss/1", "/bss/2", "/bss/3"}}
	s.bss = map[string]map[string]interface{}{
		"/bss/1": {"SSID": []byte("office"), "BSSID": []byte{1, 2, 3, 4, 5, 6}, "Signal": int16(-70),
			"RSN": map[string]interface{}{"KeyMgmt": []string{"wpa-psk"}}},
		"/bss/2": {"SSID": []byte("office"), "BSSID": []byte{1, 2, 3, 4, 5, 7}, "Signal": int16(-50),
			"RSN": map[string]interface{}{"KeyMgmt": []string{}}},
	}
	c.services = append(c.services,
		bus.Object{Path: "/net/connman/service/wifi_001122334455_63616665_managed_none", Properties: map[string]interface{}{
			"Name": "cafe", "Type": "wifi", "State": "online", "Security": []string{"none"}, "Strength": uint8(50),
		}},
		bus.Object{Path: "/net/connman/service/wifi_001122334455_hidden_managed_psk", Properties: map[string]interface{}{
			"Type": "wifi", "State": "idle", "Security": []string{"psk"}, "Strength": uint8(30),
		}},
		bus.Object{Path: "/net/connman/service/ethernet_0011", Properties: map[string]interface{}{
			"Name": "Wired", "Type": "ethernet", "State": "online",
		}},
	)
	return m, s, c
}

func TestServices(t *testing.T) {
	m, s, _ := servicesManager(t)

	got, err := m.Services(false, true)
	require.NoError(t, err)
	want := []Service{
		{Name: "office", Security: []string{"psk"}, Secure: true, Strength: -50},
		{Name: "cafe", Security: []string{"none"}, Connected: true, Strength: -70},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Services() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, s.scans)
}

func TestServicesHidden(t *testing.T) {
	m, _, _ := servicesManager(t)

	got, err := m.Services(true, false)
	require.NoError(t, err)
	require.Len(t, got, 3)
	if diff := cmp.Diff(Service{Security: []string{"psk"}, Strength: -90}, got[2]); diff != "" {
		t.Errorf("hidden service mismatch (-want +got):\n%s", diff)
	}
}

func TestConnectedService(t *testing.T) {
	m, _, _ := servicesManager(t)

	s, ok, err := m.ConnectedService(false, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "cafe", s.Name)
}

func TestConnectionStatus(t *testing.T) {
	m, s, _ := newTestManager(t)
	s.interfaceErrs = 1
	s.props = map[string]interface{}{
		"CurrentBSS": "/fi/w1/wpa_supplicant1/Interfaces/1/BSSs/3", "DisconnectReason": int32(0), "State": "completed",
	}

	connected, err := m.ConnectionStatus()
	require.NoError(t, err)
	assert.True(t, connected)

	s.props["DisconnectReason"] = int32(-3)
	connected, err = m.ConnectionStatus()
	require.NoError(t, err)
	assert.False(t, connected)

	delete(s.props, "CurrentBSS")
	_, err = m.ConnectionStatus()
	assert.Error(t, err)
}

type iwRunner struct {
	out []byte
	err error
}

func (r iwRunner) Run(name string, args ...string) error { return r.err }

func (r iwRunner) Output(name string, args ...string) ([]byte, error) { return r.out, r.err }

const iwLink = `Connected to 00:11:22:33:44:55 (on wlan0)
	SSID: office
	freq: 2437
	RX: 1234 bytes (10 packets)
	signal: -61 dBm
	tx bitrate: 72.2 MBit/s
`

func TestRSSI(t *testing.T) {
	m, _, _ := newTestManager(t)
	m.Runner = iwRunner{out: []byte(iwLink)}

	rssi, freq, err := m.RSSI()
	require.NoError(t, err)
	assert.Equal(t, "-61", rssi)
	assert.Equal(t, "2437", freq)

	m.Runner = iwRunner{out: []byte("Not connected.\n")}
	_, _, err = m.RSSI()
	assert.ErrorIs(t, err, ErrNoSignal)
}

func TestLinkWithoutDongle(t *testing.T) {
	m, _, _ := newTestManager(t)
	exitErr := exec.Command("sh", "-c", "exit 237").Run()
	require.Error(t, exitErr)
	m.Runner = iwRunner{err: exitErr}

	_, err := m.Link()
	assert.ErrorIs(t, err, ErrNoDongle)
}

func TestLinkSummary(t *testing.T) {
	assert.Equal(t, "Connected;\tfreq: 2437; Internet access: YES;", LinkSummary("Connected\n\tfreq: 2437\n", true))
	assert.Equal(t, "Not connected.; Internet access: NO;", LinkSummary("Not connected.\n", false))
}
