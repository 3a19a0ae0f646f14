package statuslistener

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	DBusName      = "org.cacophony.netsupervisor"
	DBusPath      = "/org/cacophony/netsupervisor"
	DBusInterface = "org.cacophony.netsupervisor"

	CellularStatusMember = "CellularStatus"
	WiFiStatusMember     = "WiFiStatus"

	StateEnabled  = "enabled"
	StateDisabled = "disabled"
	StateError    = "error"
)

// CellularStatus is published by the signal monitor. Strength is in dBm,
// -1 when it could not be read.
type CellularStatus struct {
	Strength int
	State    string
	Tech     string
}

// WiFiStatus is published by the Wi-Fi RSSI monitor. RSSI is in dBm, -1
// when it could not be read.
type WiFiStatus struct {
	RSSI  int
	State string
	Tech  string
}

// Body is the signal body for s.
func (s CellularStatus) Body() []interface{} {
	return []interface{}{int32(s.Strength), s.State, s.Tech}
}

func (s WiFiStatus) Body() []interface{} {
	return []interface{}{int32(s.RSSI), s.State, s.Tech}
}

// Update holds the status carried by one signal; exactly one field is set.
type Update struct {
	Cellular *CellularStatus
	WiFi     *WiFiStatus
}

// ParseSignal converts a status signal. It reports false for any other
// signal or a malformed body.
func ParseSignal(s *dbus.Signal) (Update, bool) {
	if s == nil || s.Path != dbus.ObjectPath(DBusPath) || len(s.Body) != 3 {
		return Update{}, false
	}
	value, ok := s.Body[0].(int32)
	if !ok {
		return Update{}, false
	}
	state, ok1 := s.Body[1].(string)
	tech, ok2 := s.Body[2].(string)
	if !ok1 || !ok2 {
		return Update{}, false
	}
	switch s.Name {
	case DBusInterface + "." + CellularStatusMember:
		return Update{Cellular: &CellularStatus{Strength: int(value), State: state, Tech: tech}}, true
	case DBusInterface + "." + WiFiStatusMember:
		return Update{WiFi: &WiFiStatus{RSSI: int(value), State: state, Tech: tech}}, true
	}
	return Update{}, false
}

// GetStatusListener returns a channel receiving every cellular and Wi-Fi
// status signal on the system bus.
func GetStatusListener() (chan Update, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, err
	}

	rule := fmt.Sprintf("type='signal',interface='%s',path='%s'", DBusInterface, DBusPath)
	call := conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, rule)
	if call.Err != nil {
		return nil, call.Err
	}

	signals := make(chan *dbus.Signal, 10)
	conn.Signal(signals)

	updates := make(chan Update, 10)
	go func() {
		defer close(updates)
		for s := range signals {
			if u, ok := ParseSignal(s); ok {
				updates <- u
			}
		}
	}()
	return updates, nil
}
