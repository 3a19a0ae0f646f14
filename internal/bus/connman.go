package bus

import (
	"context"
	"time"

	"github.com/godbus/dbus/v5"
)

const connmanService = "net.connman"

// Connman binds the net.connman network manager.
type Connman struct {
	conn *dbus.Conn
}

func NewConnman(conn *dbus.Conn) *Connman {
	return &Connman{conn: conn}
}

func (c *Connman) object(path string) dbus.BusObject {
	return c.conn.Object(connmanService, dbus.ObjectPath(path))
}

func (c *Connman) GetServices() ([]Object, error) {
	var raw []rawObject
	if err := c.object("/").Call("net.connman.Manager.GetServices", 0).Store(&raw); err != nil {
		return nil, err
	}
	return plainObjects(raw), nil
}

func (c *Connman) GetServiceProperties(path string) (map[string]interface{}, error) {
	var props map[string]dbus.Variant
	if err := c.object(path).Call("net.connman.Service.GetProperties", 0).Store(&props); err != nil {
		return nil, err
	}
	return plainMap(props), nil
}

func (c *Connman) SetServiceProperty(path, name string, value interface{}) error {
	return c.object(path).Call("net.connman.Service.SetProperty", 0, name, dbus.MakeVariant(value)).Err
}

// Connect asks connman to connect the service, waiting at most timeout for
// the method reply.
func (c *Connman) Connect(path string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return c.object(path).CallWithContext(ctx, "net.connman.Service.Connect", 0).Err
}

func (c *Connman) Disconnect(path string) error {
	return c.object(path).Call("net.connman.Service.Disconnect", 0).Err
}

// SetTechnologyPowered powers a technology such as "wifi" on or off.
func (c *Connman) SetTechnologyPowered(technology string, powered bool) error {
	return c.object("/net/connman/technology/"+technology).
		Call("net.connman.Technology.SetProperty", 0, "Powered", dbus.MakeVariant(powered)).Err
}
