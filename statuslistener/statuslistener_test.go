package statuslistener

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignal(t *testing.T) {
	u, ok := ParseSignal(&dbus.Signal{
		Path: DBusPath,
		Name: DBusInterface + ".CellularStatus",
		Body: CellularStatus{Strength: -95, State: StateEnabled, Tech: "4G"}.Body(),
	})
	require.True(t, ok)
	require.NotNil(t, u.Cellular)
	assert.Nil(t, u.WiFi)
	assert.Equal(t, CellularStatus{Strength: -95, State: StateEnabled, Tech: "4G"}, *u.Cellular)

	u, ok = ParseSignal(&dbus.Signal{
		Path: DBusPath,
		Name: DBusInterface + ".WiFiStatus",
		Body: WiFiStatus{RSSI: -1, State: StateError, Tech: "wifi"}.Body(),
	})
	require.True(t, ok)
	require.NotNil(t, u.WiFi)
	assert.Equal(t, -1, u.WiFi.RSSI)
}

func TestParseSignalIgnoresOthers(t *testing.T) {
	for _, s := range []*dbus.Signal{
		nil,
		{Path: "/other", Name: DBusInterface + ".CellularStatus", Body: CellularStatus{}.Body()},
		{Path: DBusPath, Name: DBusInterface + ".Other", Body: CellularStatus{}.Body()},
		{Path: DBusPath, Name: DBusInterface + ".CellularStatus", Body: []interface{}{"x", "y", "z"}},
		{Path: DBusPath, Name: DBusInterface + ".CellularStatus", Body: []interface{}{int32(1)}},
	} {
		_, ok := ParseSignal(s)
		assert.False(t, ok)
	}
}
