package wifi

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// findService returns the connman path and properties of the service named
// ssid.
func (m *Manager) findService(ssid string) (string, map[string]interface{}, error) {
	log.Infof("Searching service %s...", ssid)
	services, err := m.Connman.GetServices()
	if err != nil {
		return "", nil, fmt.Errorf("searching Wi-Fi service: %w", err)
	}
	for _, s := range services {
		if name, ok := s.Properties["Name"].(string); ok && name == ssid {
			log.Infof("Service %s found at path: %s", ssid, s.Path)
			log.Debugf("Properties of service %s: %v", ssid, s.Properties)
			return s.Path, s.Properties, nil
		}
	}
	return "", nil, fmt.Errorf("%w: %s", ErrServiceNotFound, ssid)
}

// lookupService finds the service, scanning once if it is not listed yet.
func (m *Manager) lookupService(ssid string) (string, map[string]interface{}, error) {
	p, props, err := m.findService(ssid)
	if err == nil {
		return p, props, nil
	}
	log.Info(err)
	if err := m.Scan(); err != nil {
		return "", nil, err
	}
	return m.findService(ssid)
}

// Scan asks the supplicant for an active scan and waits for its result.
func (m *Manager) Scan() error {
	log.Info("Scanning Wi-Fi...")
	iface, err := m.interfacePath(false)
	if err != nil {
		return err
	}
	var success bool
	received, err := waitForSignal(m.Supplicant, "ScanDone", m.ScanTimeout,
		func() error {
			return m.Supplicant.Scan(iface, map[string]interface{}{"Type": "active"})
		},
		scanDone(&success))
	switch {
	case err != nil:
		return fmt.Errorf("scanning Wi-Fi services: %w", err)
	case !received:
		return ErrScanTimeout
	case !success:
		return ErrScanFailed
	}
	log.Info("Scanning complete")
	return nil
}

// Connect registers ssid as the only Wi-Fi service and connects to it.
// params are the extra keys of the provisioning file, for example
// Passphrase for psk networks or EAP, Identity and Passphrase for 802.1x.
// The returned ConnectionError tells why a failed attempt failed.
func (m *Manager) Connect(ssid string, params map[string]string) (ConnectionError, error) {
	log.Infof("Connecting to %s...", ssid)
	servicePath, _, err := m.lookupService(ssid)
	if err != nil {
		return ErrorUnknown, err
	}
	name, err := parseServiceName(path.Base(servicePath))
	if err != nil {
		return ErrorUnknown, err
	}

	if name.security == "psk" && !validPassphrase(params["Passphrase"]) {
		err := fmt.Errorf("connecting to %s: passphrase length out of bounds (%d--%d)", ssid, passphraseMinLength, passphraseMaxLength)
		log.Error(err)
		return ErrorInvalidKey, err
	}

	if err := m.disconnectActive(); err != nil {
		return ErrorUnknown, err
	}
	if err := m.RemoveAll(); err != nil {
		return ErrorUnknown, err
	}
	if err := m.writeConfig(name, ssid, params); err != nil {
		return ErrorUnknown, err
	}

	attempt := &connectAttempt{security: name.security, progress: m.Progress}
	if err := m.connectService(servicePath, attempt); err != nil {
		code := m.classify(servicePath, attempt, params, err)
		err = fmt.Errorf("connecting to %s: %w (auth errors %d, error code %s)", ssid, err, attempt.authErrors, code)
		log.Error(err)
		return code, err
	}
	log.Infof("Connected to %s", ssid)
	return ErrorNone, nil
}

// Reconnect connects to an already registered service.
func (m *Manager) Reconnect(ssid string) error {
	log.Infof("Reconnecting to %s...", ssid)
	servicePath, props, err := m.lookupService(ssid)
	if err != nil {
		return err
	}
	attempt := &connectAttempt{progress: m.Progress}
	if sec := stringList(props["Security"]); len(sec) > 0 {
		attempt.security = sec[0]
	}
	if err := m.connectService(servicePath, attempt); err != nil {
		err = fmt.Errorf("reconnecting to %s: %w", ssid, err)
		log.Error(err)
		return err
	}
	log.Infof("Reconnected to %s", ssid)
	return nil
}

// Disconnect drops the connection to ssid but keeps its configuration, so
// connman may connect again on its own.
func (m *Manager) Disconnect(ssid string) error {
	log.Infof("Disconnecting from %s...", ssid)
	servicePath, _, err := m.findService(ssid)
	if err != nil {
		return err
	}
	if err := m.Connman.Disconnect(servicePath); err != nil {
		return fmt.Errorf("disconnecting from %s: %w", ssid, err)
	}
	log.Infof("Disconnected from %s", ssid)
	return nil
}

// SecurityType returns the security protocols the network supports.
func (m *Manager) SecurityType(ssid string) ([]string, error) {
	_, props, err := m.findService(ssid)
	if err != nil {
		return nil, err
	}
	security := stringList(props["Security"])
	log.Infof("Security type of %s is %v", ssid, security)
	return security, nil
}

// connectService calls connman Connect and waits for the supplicant to
// report a completed association. AutoConnect is turned on once connected.
func (m *Manager) connectService(servicePath string, attempt *connectAttempt) error {
	if _, err := m.interfacePath(false); err != nil {
		return err
	}
	received, err := waitForSignal(m.Supplicant, "PropertiesChanged", m.ConnectTimeout,
		func() error { return m.Connman.Connect(servicePath, connectCallTimeout) },
		attempt.handle)
	if err != nil {
		return err
	}
	if !received {
		return ErrConnectTimeout
	}
	return m.Connman.SetServiceProperty(servicePath, "AutoConnect", true)
}

// disconnectActive disconnects every connected Wi-Fi service. AutoConnect
// is cleared first, otherwise connman answers "In progress" to the next
// Connect after a failed one.
func (m *Manager) disconnectActive() error {
	services, err := m.Connman.GetServices()
	if err != nil {
		return fmt.Errorf("listing services: %w", err)
	}
	for _, s := range services {
		if t, _ := s.Properties["Type"].(string); t != technology {
			continue
		}
		if !connectedState(s.Properties) {
			continue
		}
		name, _ := s.Properties["Name"].(string)
		log.Infof("Connected to %s. Disconnect before creating configuration file", name)
		if err := m.Connman.SetServiceProperty(s.Path, "AutoConnect", false); err != nil {
			return fmt.Errorf("disabling AutoConnect on %s: %w", name, err)
		}
		if err := m.Connman.Disconnect(s.Path); err != nil {
			return fmt.Errorf("disconnecting from %s: %w", name, err)
		}
	}
	return nil
}

// classify maps a failed attempt to a ConnectionError using the error
// connman recorded on the service.
func (m *Manager) classify(servicePath string, attempt *connectAttempt, params map[string]string, cause error) ConnectionError {
	if errors.Is(cause, ErrConnectTimeout) {
		return ErrorUnknown
	}
	if attempt.security == "psk" && !validPassphrase(params["Passphrase"]) {
		return ErrorInvalidKey
	}
	props, err := m.Connman.GetServiceProperties(servicePath)
	if err != nil {
		log.Debugf("Reading service error: %v", err)
		return ErrorUnknown
	}
	serviceError, _ := props["Error"].(string)
	switch {
	case strings.Contains(serviceError, "invalid-key"):
		return ErrorInvalidKey
	case strings.Contains(serviceError, "connect-failed") && attempt.authErrors > 0:
		return ErrorAuthentication
	default:
		return ErrorUnknown
	}
}

func validPassphrase(p string) bool {
	return len(p) >= passphraseMinLength && len(p) <= passphraseMaxLength
}

func connectedState(props map[string]interface{}) bool {
	state, _ := props["State"].(string)
	return state == "ready" || state == "online"
}

func stringList(v interface{}) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{t}
	}
	return nil
}
