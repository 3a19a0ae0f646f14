package bus

import (
	"github.com/godbus/dbus/v5"
)

const networkdService = "org.freedesktop.network1"

// Networkd binds systemd-networkd.
type Networkd struct {
	conn *dbus.Conn
}

func NewNetworkd(conn *dbus.Conn) *Networkd {
	return &Networkd{conn: conn}
}

// MatchName returns the [Match] Name list networkd loaded for a network file.
// networkPath is the object path of the network, for example
// /org/freedesktop/network1/network/bridged.
func (n *Networkd) MatchName(networkPath string) ([]string, error) {
	v, err := n.conn.Object(networkdService, dbus.ObjectPath(networkPath)).
		GetProperty(networkdService + ".Network.MatchName")
	if err != nil {
		return nil, err
	}
	var names []string
	if err := v.Store(&names); err != nil {
		return nil, err
	}
	return names, nil
}
