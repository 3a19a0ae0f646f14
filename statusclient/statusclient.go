package statusclient

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/TheCacophonyProject/netsupervisor/statuslistener"
)

const methodBase = statuslistener.DBusInterface

// GetCellularStatus asks the signal monitor for the last status it published.
func GetCellularStatus() (statuslistener.CellularStatus, error) {
	obj, err := getDbusObj()
	if err != nil {
		return statuslistener.CellularStatus{}, err
	}
	status := make(map[string]dbus.Variant)
	if err := obj.Call(methodBase+".GetCellularStatus", 0).Store(&status); err != nil {
		return statuslistener.CellularStatus{}, err
	}
	return cellularStatus(status)
}

func cellularStatus(m map[string]dbus.Variant) (statuslistener.CellularStatus, error) {
	var s statuslistener.CellularStatus
	strength, ok := m["strength"].Value().(int32)
	if !ok {
		return s, fmt.Errorf("unexpected cellular status %v", m)
	}
	s.Strength = int(strength)
	s.State, _ = m["state"].Value().(string)
	s.Tech, _ = m["tech"].Value().(string)
	return s, nil
}

func getDbusObj() (dbus.BusObject, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, err
	}
	return conn.Object(statuslistener.DBusName, statuslistener.DBusPath), nil
}
