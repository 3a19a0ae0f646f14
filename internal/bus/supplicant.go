package bus

import (
	"github.com/godbus/dbus/v5"
)

const (
	SupplicantService   = "fi.w1.wpa_supplicant1"
	SupplicantPath      = "/fi/w1/wpa_supplicant1"
	SupplicantInterface = "fi.w1.wpa_supplicant1.Interface"
	supplicantBSS       = "fi.w1.wpa_supplicant1.BSS"
)

// Supplicant binds wpa_supplicant.
type Supplicant struct {
	conn *dbus.Conn
}

func NewSupplicant(conn *dbus.Conn) *Supplicant {
	return &Supplicant{conn: conn}
}

// GetInterface returns the object path of the named network interface.
func (s *Supplicant) GetInterface(name string) (string, error) {
	var path dbus.ObjectPath
	err := s.conn.Object(SupplicantService, SupplicantPath).
		Call(SupplicantService+".GetInterface", 0, name).Store(&path)
	return string(path), err
}

// Scan requests a scan; completion is reported by the ScanDone signal.
func (s *Supplicant) Scan(ifacePath string, args map[string]interface{}) error {
	return s.conn.Object(SupplicantService, dbus.ObjectPath(ifacePath)).
		Call(SupplicantInterface+".Scan", 0, variants(args)).Err
}

func (s *Supplicant) InterfaceProperties(ifacePath string) (map[string]interface{}, error) {
	return getAll(s.conn, SupplicantService, ifacePath, SupplicantInterface)
}

func (s *Supplicant) BSSProperties(bssPath string) (map[string]interface{}, error) {
	return getAll(s.conn, SupplicantService, bssPath, supplicantBSS)
}

// Subscribe delivers member signals of the supplicant interface.
func (s *Supplicant) Subscribe(member string) (<-chan Signal, func(), error) {
	return Subscribe(s.conn, SupplicantInterface, member)
}
