/*
netsupervisor - cellular and Wi-Fi connectivity tools
Copyright (C) 2019, The Cacophony Project

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package signalmonitor

import (
	"errors"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/TheCacophonyProject/netsupervisor/statuslistener"
)

const (
	dbusName = statuslistener.DBusName
	dbusPath = statuslistener.DBusPath
)

type service struct {
	conn *dbus.Conn

	mu     sync.Mutex
	status statuslistener.CellularStatus
}

func startService(conn *dbus.Conn) (*service, error) {
	reply, err := conn.RequestName(dbusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return nil, err
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return nil, errors.New("name already taken")
	}

	s := &service{
		conn:   conn,
		status: statuslistener.CellularStatus{Strength: -1, State: statuslistener.StateError, Tech: "none"},
	}
	if err := conn.Export(s, dbusPath, dbusName); err != nil {
		return nil, err
	}
	if err := conn.Export(genIntrospectable(s), dbusPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return nil, err
	}
	return s, nil
}

func genIntrospectable(v interface{}) introspect.Introspectable {
	node := &introspect.Node{
		Interfaces: []introspect.Interface{{
			Name:    dbusName,
			Methods: introspect.Methods(v),
		}},
	}
	return introspect.NewIntrospectable(node)
}

// GetCellularStatus returns the last published status.
func (s *service) GetCellularStatus() (map[string]interface{}, *dbus.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]interface{}{
		"strength": int32(s.status.Strength),
		"state":    s.status.State,
		"tech":     s.status.Tech,
	}, nil
}

// publish records status and emits it as a CellularStatus signal.
func (s *service) publish(status statuslistener.CellularStatus) error {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	return s.conn.Emit(dbusPath, dbusName+"."+statuslistener.CellularStatusMember, status.Body()...)
}
