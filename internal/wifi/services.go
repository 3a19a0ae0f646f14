package wifi

import (
	"fmt"
	"net/url"
	"strings"
)

// Service is one Wi-Fi network as shown to the user.
type Service struct {
	Name      string
	Security  []string
	Secure    bool
	Connected bool
	// Strength is the signal in dBm.
	Strength int
}

// bssInfo is what the supplicant scan results add to the connman view.
type bssInfo struct {
	signal map[string]int
	secure map[string]bool
}

// SSIDString renders raw SSID bytes, percent encoding anything outside
// printable ASCII.
func SSIDString(raw []byte) string {
	var b strings.Builder
	for _, c := range raw {
		if c >= 32 && c < 127 {
			b.WriteByte(c)
			continue
		}
		b.WriteString(url.PathEscape(string(rune(c))))
	}
	return b.String()
}

// BSSIDString renders a hardware address as colon separated upper case hex.
func BSSIDString(raw []byte) string {
	parts := make([]string, len(raw))
	for i, c := range raw {
		parts[i] = fmt.Sprintf("%02X", c)
	}
	return strings.Join(parts, ":")
}

// Services lists the Wi-Fi networks connman knows. Hidden networks are
// left out unless hidden is set. With scan the supplicant scans first.
func (m *Manager) Services(hidden, scan bool) ([]Service, error) {
	log.Info("Searching Wi-Fi services...")
	if scan {
		if err := m.Scan(); err != nil {
			return nil, err
		}
	}
	info, err := m.scanResults()
	if err != nil {
		return nil, err
	}
	objects, err := m.Connman.GetServices()
	if err != nil {
		return nil, fmt.Errorf("searching Wi-Fi services: %w", err)
	}

	var services []Service
	for _, o := range objects {
		if t, _ := o.Properties["Type"].(string); t != technology {
			continue
		}
		name, named := o.Properties["Name"].(string)
		if !named && !hidden {
			continue
		}
		s := Service{
			Name:      name,
			Security:  stringList(o.Properties["Security"]),
			Secure:    info.secure[name],
			Connected: connectedState(o.Properties),
		}
		if dbm, ok := info.signal[name]; ok {
			s.Strength = dbm
		} else {
			strength, _ := intValue(o.Properties["Strength"])
			s.Strength = strength - 120
		}
		services = append(services, s)
		if s.Connected {
			log.Infof("Connected to %s. Properties: %v", name, o.Properties)
		}
	}
	log.Infof("Wi-Fi available network list: %v", services)
	return services, nil
}

// ConnectedService returns the service connman reports as connected.
func (m *Manager) ConnectedService(hidden, scan bool) (Service, bool, error) {
	services, err := m.Services(hidden, scan)
	if err != nil {
		return Service{}, false, err
	}
	for _, s := range services {
		if s.Connected {
			log.Infof("Current connected service is: %v", s)
			return s, true, nil
		}
	}
	log.Info("No connected service found")
	return Service{}, false, nil
}

// scanResults reads the strongest signal and RSN security per SSID from the
// supplicant BSS list. A BSS whose properties cannot be read is skipped; its
// network falls back to the connman strength and counts as open.
func (m *Manager) scanResults() (bssInfo, error) {
	info := bssInfo{signal: map[string]int{}, secure: map[string]bool{}}
	iface, err := m.interfacePath(false)
	if err != nil {
		return info, err
	}
	props, err := m.Supplicant.InterfaceProperties(iface)
	if err != nil {
		return info, fmt.Errorf("reading Wi-Fi interface properties: %w", err)
	}
	for _, bssPath := range stringList(props["BSSs"]) {
		bss, err := m.Supplicant.BSSProperties(bssPath)
		if err != nil {
			log.Warnf("Skipping network %s: %v", bssPath, err)
			continue
		}
		raw, _ := bss["SSID"].([]byte)
		ssid := SSIDString(raw)
		bssid, _ := bss["BSSID"].([]byte)
		log.Debugf("SSID: %s BSSID: %s", ssid, BSSIDString(bssid))
		if signal, ok := intValue(bss["Signal"]); ok {
			if prev, seen := info.signal[ssid]; !seen || signal > prev {
				info.signal[ssid] = signal
			}
		}
		rsn, ok := bss["RSN"].(map[string]interface{})
		if !ok {
			continue
		}
		if len(stringList(rsn["KeyMgmt"])) > 0 {
			info.secure[ssid] = true
		}
	}
	return info, nil
}

// ConnectionStatus tells whether the supplicant is associated. The interface
// is looked up again once if its properties cannot be read, since its path
// changes when Wi-Fi is toggled.
func (m *Manager) ConnectionStatus() (bool, error) {
	var props map[string]interface{}
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		var iface string
		iface, err = m.interfacePath(attempt > 0)
		if err != nil {
			continue
		}
		props, err = m.Supplicant.InterfaceProperties(iface)
		if err == nil {
			break
		}
		log.Errorf("Retry to get interface properties. Attempt #%d", attempt+2)
	}
	if err != nil {
		return false, fmt.Errorf("unable to read Wi-Fi interface properties: %w", err)
	}

	currentBSS, okBSS := props["CurrentBSS"].(string)
	reason, okReason := intValue(props["DisconnectReason"])
	if !okBSS || !okReason {
		return false, fmt.Errorf("unable to read Wi-Fi interface properties")
	}
	state, _ := props["State"].(string)
	connected := currentBSS != "/" && reason >= 0 && state == "completed"
	log.Debugf("Wi-Fi connected: %t. CurrentBSS: %s DisconnectReason: %d State: %s", connected, currentBSS, reason, state)
	return connected, nil
}

func intValue(v interface{}) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int8:
		return int(t), true
	case int16:
		return int(t), true
	case int32:
		return int(t), true
	case int64:
		return int(t), true
	case uint8:
		return int(t), true
	case uint16:
		return int(t), true
	case uint32:
		return int(t), true
	case uint64:
		return int(t), true
	}
	return 0, false
}
