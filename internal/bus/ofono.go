package bus

import (
	"github.com/godbus/dbus/v5"
)

const ofonoService = "org.ofono"

// Ofono binds the org.ofono modem manager.
type Ofono struct {
	conn *dbus.Conn
}

func NewOfono(conn *dbus.Conn) *Ofono {
	return &Ofono{conn: conn}
}

func (o *Ofono) object(path string) dbus.BusObject {
	return o.conn.Object(ofonoService, dbus.ObjectPath(path))
}

func (o *Ofono) GetModems() ([]Object, error) {
	var raw []rawObject
	if err := o.object("/").Call("org.ofono.Manager.GetModems", 0).Store(&raw); err != nil {
		return nil, err
	}
	return plainObjects(raw), nil
}

// GetProperties calls GetProperties on iface of the object at path.
func (o *Ofono) GetProperties(path, iface string) (map[string]interface{}, error) {
	var props map[string]dbus.Variant
	if err := o.object(path).Call(iface+".GetProperties", 0).Store(&props); err != nil {
		return nil, err
	}
	return plainMap(props), nil
}

func (o *Ofono) SetProperty(path, iface, name string, value interface{}) error {
	return o.object(path).Call(iface+".SetProperty", 0, name, dbus.MakeVariant(value)).Err
}

func (o *Ofono) EnterPin(path, pinType, pin string) error {
	return o.object(path).Call("org.ofono.SimManager.EnterPin", 0, pinType, pin).Err
}

func (o *Ofono) UnlockPin(path, pinType, pin string) error {
	return o.object(path).Call("org.ofono.SimManager.UnlockPin", 0, pinType, pin).Err
}

func (o *Ofono) GetContexts(path string) ([]Object, error) {
	var raw []rawObject
	if err := o.object(path).Call("org.ofono.ConnectionManager.GetContexts", 0).Store(&raw); err != nil {
		return nil, err
	}
	return plainObjects(raw), nil
}

func (o *Ofono) AddContext(path, contextType string) (string, error) {
	var context dbus.ObjectPath
	err := o.object(path).Call("org.ofono.ConnectionManager.AddContext", 0, contextType).Store(&context)
	return string(context), err
}

func (o *Ofono) RemoveContext(path, context string) error {
	return o.object(path).Call("org.ofono.ConnectionManager.RemoveContext", 0, dbus.ObjectPath(context)).Err
}

// GetRFStatus calls the Telit specific RF status method.
func (o *Ofono) GetRFStatus(path string) (map[string]interface{}, error) {
	var status map[string]dbus.Variant
	if err := o.object(path).Call("org.ofono.TelitDataNetwork.GetRFStatus", 0).Store(&status); err != nil {
		return nil, err
	}
	return plainMap(status), nil
}
