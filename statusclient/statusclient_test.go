package statusclient

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/netsupervisor/statuslistener"
)

func TestCellularStatus(t *testing.T) {
	s, err := cellularStatus(map[string]dbus.Variant{
		"strength": dbus.MakeVariant(int32(-87)),
		"state":    dbus.MakeVariant("enabled"),
		"tech":     dbus.MakeVariant("3G"),
	})
	require.NoError(t, err)
	assert.Equal(t, statuslistener.CellularStatus{Strength: -87, State: "enabled", Tech: "3G"}, s)

	_, err = cellularStatus(map[string]dbus.Variant{"state": dbus.MakeVariant("enabled")})
	assert.Error(t, err)
}
