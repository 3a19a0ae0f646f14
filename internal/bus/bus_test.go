package bus

import (
	"errors"
	"fmt"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestPlain(t *testing.T) {
	in := map[string]dbus.Variant{
		"Name":       dbus.MakeVariant("office"),
		"Strength":   dbus.MakeVariant(uint8(70)),
		"Security":   dbus.MakeVariant([]string{"psk", "wps"}),
		"CurrentBSS": dbus.MakeVariant(dbus.ObjectPath("/fi/w1/wpa_supplicant1/Interfaces/0/BSSs/3")),
		"BSSs":       dbus.MakeVariant([]dbus.ObjectPath{"/a", "/b"}),
		"SSID":       dbus.MakeVariant([]byte("net")),
		"IPv4": dbus.MakeVariant(map[string]dbus.Variant{
			"Method": dbus.MakeVariant("dhcp"),
		}),
	}
	want := map[string]interface{}{
		"Name":       "office",
		"Strength":   uint8(70),
		"Security":   []string{"psk", "wps"},
		"CurrentBSS": "/fi/w1/wpa_supplicant1/Interfaces/0/BSSs/3",
		"BSSs":       []string{"/a", "/b"},
		"SSID":       []byte("net"),
		"IPv4":       map[string]interface{}{"Method": "dhcp"},
	}
	if diff := cmp.Diff(want, Plain(in)); diff != "" {
		t.Errorf("Plain mismatch (-want +got):\n%s", diff)
	}
}

func TestPlainSignalBody(t *testing.T) {
	body := []interface{}{map[string]dbus.Variant{"State": dbus.MakeVariant("completed")}}
	got := Plain(body).([]interface{})
	assert.Equal(t, map[string]interface{}{"State": "completed"}, got[0])
}

func TestErrorName(t *testing.T) {
	err := dbus.Error{Name: "org.ofono.Error.Failed", Body: []interface{}{"Operation failed"}}
	assert.Equal(t, "org.ofono.Error.Failed", ErrorName(err))
	assert.Equal(t, "org.ofono.Error.Failed", ErrorName(fmt.Errorf("enter pin: %w", err)))
	assert.Equal(t, "net.connman.Error.InProgress", ErrorName(&dbus.Error{Name: "net.connman.Error.InProgress"}))
	assert.Equal(t, "", ErrorName(errors.New("plain")))
}
