// Package bus holds the godbus bindings for the system daemons the tools talk
// to: ofono, connman, wpa_supplicant and systemd-networkd. Values coming off
// the bus are converted into plain Go values so callers never see variants.
package bus

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const propertiesInterface = "org.freedesktop.DBus.Properties"

// Object is an object path with its property map, the shape returned by the
// GetModems, GetContexts and GetServices calls.
type Object struct {
	Path       string
	Properties map[string]interface{}
}

type rawObject struct {
	Path       dbus.ObjectPath
	Properties map[string]dbus.Variant
}

func SystemBus() (*dbus.Conn, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	return conn, nil
}

// ErrorName returns the D-Bus error name carried by err, or "".
func ErrorName(err error) string {
	var value dbus.Error
	if errors.As(err, &value) {
		return value.Name
	}
	var ptr *dbus.Error
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Name
	}
	return ""
}

// Plain converts a value received from godbus into plain Go values.
func Plain(v interface{}) interface{} {
	switch t := v.(type) {
	case dbus.Variant:
		return Plain(t.Value())
	case dbus.ObjectPath:
		return string(t)
	case []dbus.ObjectPath:
		paths := make([]string, len(t))
		for i, p := range t {
			paths[i] = string(p)
		}
		return paths
	case map[string]dbus.Variant:
		return plainMap(t)
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, v := range t {
			m[k] = Plain(v)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(t))
		for i, e := range t {
			s[i] = Plain(e)
		}
		return s
	case []dbus.Variant:
		s := make([]interface{}, len(t))
		for i, e := range t {
			s[i] = Plain(e)
		}
		return s
	default:
		return v
	}
}

func plainMap(m map[string]dbus.Variant) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = Plain(v)
	}
	return out
}

func plainObjects(raw []rawObject) []Object {
	objects := make([]Object, len(raw))
	for i, r := range raw {
		objects[i] = Object{Path: string(r.Path), Properties: plainMap(r.Properties)}
	}
	return objects
}

func variants(m map[string]interface{}) map[string]dbus.Variant {
	out := make(map[string]dbus.Variant, len(m))
	for k, v := range m {
		out[k] = dbus.MakeVariant(v)
	}
	return out
}

func getAll(conn *dbus.Conn, dest string, path string, iface string) (map[string]interface{}, error) {
	var props map[string]dbus.Variant
	err := conn.Object(dest, dbus.ObjectPath(path)).
		Call(propertiesInterface+".GetAll", 0, iface).Store(&props)
	if err != nil {
		return nil, err
	}
	return plainMap(props), nil
}
