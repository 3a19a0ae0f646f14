package modem

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/TheCacophonyProject/netsupervisor/internal/bus"
	"github.com/TheCacophonyProject/netsupervisor/internal/retry"
	"github.com/TheCacophonyProject/netsupervisor/internal/usb"
)

// Prober runs the individual cellular checks. Every check converts bus and
// tool failures into a negative result with a message; none of them panic or
// return errors.
type Prober struct {
	Ofono     Ofono
	Connman   Connman
	USB       DeviceLister
	Processes ProcessChecker
	Reacher   Reacher
	Endpoints []Endpoint

	RetryDelay time.Duration
	Sleep      func(time.Duration)
}

func (p *Prober) retry(attempts int, probe retry.Probe) (bool, string) {
	delay := p.RetryDelay
	if delay == 0 {
		delay = defaultRetryDelay
	}
	return retryPolicy(attempts, delay, p.Sleep).Run(probe)
}

func retryPolicy(attempts int, delay time.Duration, sleep func(time.Duration)) retry.Policy {
	p := retry.New(attempts, delay)
	p.Sleep = sleep
	return p
}

func (p *Prober) sleep(d time.Duration) {
	if p.Sleep != nil {
		p.Sleep(d)
		return
	}
	time.Sleep(d)
}

// ListModems counts the supported modems plugged in.
func (p *Prober) ListModems() (int, string) {
	found, err := p.USB.Present(usb.Modems)
	msg := "No modem found"
	if len(found) > 0 {
		msg = fmt.Sprintf("Modem '%s' is detected", found[len(found)-1].Name)
	}
	if err != nil {
		log.Errorf("failed to list USB modems: %v", err)
	}
	if len(found) > 1 {
		msg = "Several modems are installed"
	}
	return len(found), msg
}

func (p *Prober) IsDaemonRunning() (bool, string) {
	running, err := p.Processes.IsRunning(daemonProcess)
	if err != nil {
		return false, fmt.Sprintf("failed to look for %s: %v", daemonProcess, err)
	}
	if running {
		return true, daemonProcess + " is running"
	}
	return false, daemonProcess + " is not running"
}

// modems returns the modems ofono knows about, nil with a message if none.
func (p *Prober) modems() ([]bus.Object, string) {
	modems, err := p.Ofono.GetModems()
	if err != nil {
		return nil, fmt.Sprintf("DBus exception while getting modems on DBus: %v", err)
	}
	if len(modems) == 0 {
		return nil, "No modem found on DBus"
	}
	return modems, fmt.Sprintf("%d modem(s) found on DBus", len(modems))
}

// firstModem returns the path of the first modem. Only one modem is supported.
func (p *Prober) firstModem() (string, string, bool) {
	modems, msg := p.modems()
	if modems == nil {
		return "", msg, false
	}
	return modems[0].Path, msg, true
}

func (p *Prober) IsModemOnBus(attempts int) (bool, string) {
	return p.retry(attempts, func() (bool, string) {
		_, msg, ok := p.firstModem()
		return ok, msg
	})
}

func (p *Prober) IsSimPresent(attempts int) (bool, string) {
	return p.retry(attempts, func() (bool, string) {
		props, msg, ok := p.modemProperties(simManagerInterface)
		if !ok {
			return false, msg
		}
		present, err := boolProperty(props, "Present")
		if err != nil {
			return false, err.Error()
		}
		if present {
			return true, "Sim is present"
		}
		return false, "Sim is absent"
	})
}

func (p *Prober) PinStatus() (PinStatus, string) {
	props, msg, ok := p.modemProperties(simManagerInterface)
	if !ok {
		return PinUnknown, msg
	}
	required, err := stringProperty(props, "PinRequired")
	if err != nil {
		return PinUnknown, err.Error()
	}
	switch required {
	case "none":
		return PinValidOrNotRequired, "Pin is valid or not required"
	case "puk":
		return PukRequired, "A Puk is required"
	default:
		return PinRequired, "A Pin is required"
	}
}

// DisablePin enters pin and removes the PIN lock from the SIM.
func (p *Prober) DisablePin(pin string) (DisablePinAnswer, string) {
	path, msg, ok := p.firstModem()
	if !ok {
		return DisablePinUnknown, msg
	}
	err := p.Ofono.EnterPin(path, "pin", pin)
	if err == nil {
		err = p.Ofono.UnlockPin(path, "pin", pin)
	}
	switch {
	case err == nil:
		return DisablePinSuccess, "Pin entered and disabled"
	case bus.ErrorName(err) == wrongPinErrorName:
		return DisablePinWrongPin, "Wrong Pin"
	default:
		return DisablePinUnknown, fmt.Sprintf("DBus exception while entering/disabling pin: %v", err)
	}
}

// ServiceProviderName retries until a name is available. A SIM that does not
// publish the property (seen on Verizon LTE) is reported as "Unknown".
func (p *Prober) ServiceProviderName(attempts int) (string, string) {
	var name string
	_, msg := p.retry(attempts, func() (bool, string) {
		props, msg, ok := p.modemProperties(simManagerInterface)
		if !ok {
			return false, msg
		}
		var err error
		name, err = stringProperty(props, "ServiceProviderName")
		if err != nil {
			name = "Unknown"
			return true, "Service Provider Name is 'Unknown' (most likely Verizon)"
		}
		return name != "", fmt.Sprintf("Service Provider Name is '%s'", name)
	})
	return name, msg
}

// IsNetworkRegistered accepts a registered or roaming status, or a native LTE
// attachment through the connection manager when the registration interface
// lags behind.
func (p *Prober) IsNetworkRegistered(attempts int) (bool, string) {
	return p.retry(attempts, p.isNetworkRegistered)
}

func (p *Prober) isNetworkRegistered() (bool, string) {
	path, msg, ok := p.firstModem()
	if !ok {
		return false, msg
	}
	props, err := p.Ofono.GetProperties(path, networkRegistrationInterface)
	if err != nil {
		return false, fmt.Sprintf("DBus exception while checking for network registration: %v", err)
	}
	status, err := stringProperty(props, "Status")
	if err != nil {
		return false, err.Error()
	}
	msg = "Cellular network is " + status
	if status == "registered" || status == "roaming" {
		return true, msg
	}

	cm, err := p.Ofono.GetProperties(path, connectionManagerInterface)
	if err != nil {
		return false, fmt.Sprintf("DBus exception while checking for network registration: %v", err)
	}
	bearer, berr := stringProperty(cm, "Bearer")
	attached, aerr := boolProperty(cm, "Attached")
	if berr == nil && aerr == nil && strings.EqualFold(bearer, "lte") && attached {
		return true, "Cellular network is registered via native LTE"
	}
	return false, msg
}

func (p *Prober) IsDataNetworkRegistered(attempts int) (bool, string) {
	return p.retry(attempts, func() (bool, string) {
		props, msg, ok := p.modemProperties(connectionManagerInterface)
		if !ok {
			return false, msg
		}
		attached, err := boolProperty(props, "Attached")
		if err != nil {
			return false, err.Error()
		}
		if attached {
			return true, "Attached to GPRS/3G/4G network"
		}
		return false, "Not attached to any GPRS/3G/4G network"
	})
}

func (p *Prober) IsRoamingAllowed() (bool, string) {
	props, msg, ok := p.modemProperties(connectionManagerInterface)
	if !ok {
		return false, msg
	}
	allowed, err := boolProperty(props, "RoamingAllowed")
	if err != nil {
		return false, err.Error()
	}
	if allowed {
		return true, "Roaming is allowed"
	}
	return false, "Roaming is not allowed"
}

// SetRoamingAllowed switches data roaming. Registration reports "roaming"
// as soon as the SIM is used outside its provider's country, and no data
// context comes up then unless roaming is allowed.
func (p *Prober) SetRoamingAllowed(allowed bool) (bool, string) {
	path, msg, ok := p.firstModem()
	if !ok {
		return false, msg
	}
	if err := p.Ofono.SetProperty(path, connectionManagerInterface, "RoamingAllowed", allowed); err != nil {
		return false, fmt.Sprintf("DBus exception while setting RoamingAllowed: %v", err)
	}
	if allowed {
		return true, "Data roaming enabled"
	}
	return true, "Data roaming disabled"
}

// SignalStrength returns the strength in dBm and the technology. RSRP is used
// on 4G and RSSI otherwise. The modem must be registered for the Telit RF
// status to be readable; -1 and "none" mean no reading.
func (p *Prober) SignalStrength() (int, string, string) {
	rssi, rsrp, tech := -1, -1, "none"
	registered, msg := p.isNetworkRegistered()
	if registered {
		path, m, ok := p.firstModem()
		msg = m
		if ok {
			status, err := p.Ofono.GetRFStatus(path)
			if err != nil {
				msg = fmt.Sprintf("DBus exception while getting signal strength: %v", err)
			} else {
				if v, ok := intValue(status["RSSI"]); ok {
					rssi = v
				}
				if v, ok := intValue(status["RSRP"]); ok {
					rsrp = v
				}
				if v, ok := status["Tech"].(string); ok {
					tech = v
				}
				msg = fmt.Sprintf("Signal strength read (tech %s)", tech)
			}
		}
	}
	if tech == "4G" {
		return rsrp, msg, tech
	}
	return rssi, msg, tech
}

// IsInternetContextActive checks the first context of the connection
// manager. An active context means ppp0 is up.
func (p *Prober) IsInternetContextActive(attempts int) (bool, string) {
	return p.retry(attempts, func() (bool, string) {
		path, msg, ok := p.firstModem()
		if !ok {
			return false, msg
		}
		contexts, err := p.Ofono.GetContexts(path)
		if err != nil {
			return false, fmt.Sprintf("DBus exception while checking Internet context status: %v", err)
		}
		if len(contexts) == 0 {
			return false, "No Internet context found"
		}
		props, err := p.Ofono.GetProperties(contexts[0].Path, connectionContextInterface)
		if err != nil {
			return false, fmt.Sprintf("DBus exception while checking Internet context status: %v", err)
		}
		active, err := boolProperty(props, "Active")
		if err != nil {
			return false, err.Error()
		}
		if active {
			return true, "Internet context is active"
		}
		return false, "Internet context is not active"
	})
}

// ContactServer tries the endpoints in order and stops at the first one
// reached.
func (p *Prober) ContactServer(attempts int) (bool, string) {
	return p.retry(attempts, func() (bool, string) {
		var msgs []string
		for _, e := range p.Endpoints {
			if err := p.Reacher.Reach(e); err != nil {
				log.Debugf("contact %s failed: %v", e.Host, err)
				msgs = append(msgs, "Impossible to contact "+e.Host)
				continue
			}
			msgs = append(msgs, fmt.Sprintf("Contact to %s successful", e.Host))
			return true, strings.Join(msgs, ", ")
		}
		return false, strings.Join(msgs, ", ")
	})
}

// CellularService waits for connman to list the cellular service ofono
// creates and returns its path.
func (p *Prober) CellularService(attempts int) (string, bool, string) {
	var path string
	ok, msg := p.retry(attempts, func() (bool, string) {
		services, err := p.Connman.GetServices()
		if err != nil {
			return false, fmt.Sprintf("DBus exception while waiting for cellular service in Connman: %v", err)
		}
		for _, s := range services {
			if strings.Contains(s.Path, cellularServicePathFragment) {
				path = s.Path
				// Listed is not yet connectable; the delay depends on the provider.
				p.sleep(5 * time.Second)
				return true, s.Path
			}
		}
		return false, "No cellular service seen by Connman"
	})
	return path, ok, msg
}

// ConnectCellularService connects the service and sets AutoConnect so it
// comes back after a reboot.
func (p *Prober) ConnectCellularService(path string, attempts int) (bool, string) {
	return p.retry(attempts, func() (bool, string) {
		if err := p.Connman.Connect(path, connectTimeout); err != nil {
			return false, fmt.Sprintf("DBus exception while connecting to cellular service in Connman: %v", err)
		}
		if err := p.Connman.SetServiceProperty(path, "AutoConnect", true); err != nil {
			return false, fmt.Sprintf("DBus exception while setting AutoConnect: %v", err)
		}
		return true, "Successful connection"
	})
}

// ClearInternetContexts removes every context so a fresh one gets created.
func (p *Prober) ClearInternetContexts() {
	log.Info("-Clear existing internet context")
	modems, msg := p.modems()
	if modems == nil {
		log.Info(msg)
		return
	}
	for _, m := range modems {
		if !hasInterface(m, connectionManagerInterface) {
			continue
		}
		contexts, err := p.Ofono.GetContexts(m.Path)
		if err != nil {
			log.Errorf("DBus exception while clearing internet contexts: %v", err)
			return
		}
		for _, c := range contexts {
			if err := p.Ofono.RemoveContext(m.Path, c.Path); err != nil {
				log.Errorf("DBus exception while clearing internet contexts: %v", err)
				return
			}
			log.Infof("Removed: [ %s ]", c.Path)
		}
	}
}

// SetInternetContext creates or updates the "internet" context with the APN
// credentials. Empty values are left untouched.
func (p *Prober) SetInternetContext(apn, username, password string) {
	if apn != "" {
		log.Infof("-Configure internet context using %s", apn)
	} else {
		log.Info("-Configure internet context without any apn")
	}
	modems, msg := p.modems()
	if modems == nil {
		log.Info(msg)
		return
	}
	for _, m := range modems {
		if !hasInterface(m, connectionManagerInterface) {
			continue
		}
		if err := p.setInternetContext(m.Path, apn, username, password); err != nil {
			log.Errorf("DBus exception while setting internet contexts: %v", err)
			return
		}
	}
}

func (p *Prober) setInternetContext(modemPath, apn, username, password string) error {
	contexts, err := p.Ofono.GetContexts(modemPath)
	if err != nil {
		return err
	}
	var context string
	for _, c := range contexts {
		if t, _ := c.Properties["Type"].(string); t == "internet" {
			context = c.Path
			break
		}
	}
	if context == "" {
		if context, err = p.Ofono.AddContext(modemPath, "internet"); err != nil {
			return err
		}
		log.Infof("Created new context %s", context)
	} else {
		log.Infof("Found context %s", context)
	}

	for _, setting := range []struct{ name, value string }{
		{"AccessPointName", apn},
		{"Username", username},
		{"Password", password},
	} {
		if setting.value == "" {
			continue
		}
		if err := p.Ofono.SetProperty(context, connectionContextInterface, setting.name, setting.value); err != nil {
			return err
		}
		log.Infof("Setting %s to %s", setting.name, setting.value)
	}
	// ofono needs a moment after creating a context.
	p.sleep(3 * time.Second)
	return nil
}

// ProviderMode returns "att", "verizon" or "unknown" for North America modems.
func (p *Prober) ProviderMode() string {
	props, _, ok := p.modemProperties(telitProviderInterface)
	if !ok {
		return "unknown"
	}
	verizon, err := boolProperty(props, "VerizonMode")
	if err != nil {
		if v, ok := intValue(props["VerizonMode"]); ok {
			verizon, err = v != 0, nil
		}
	}
	if err != nil {
		return "unknown"
	}
	if verizon {
		return "verizon"
	}
	return "att"
}

// ConfigureProviderMode switches the firmware of a North America modem. The
// modem reboots on its own afterwards.
func (p *Prober) ConfigureProviderMode(mode string) (bool, string) {
	path, msg, ok := p.firstModem()
	if !ok {
		return false, msg
	}
	var verizon bool
	switch mode {
	case "verizon":
		verizon = true
	case "att":
	default:
		return false, "Unsupported mode"
	}
	if mode == p.ProviderMode() {
		return true, "Already in the selected mode"
	}
	if err := p.Ofono.SetProperty(path, telitProviderInterface, "VerizonMode", verizon); err != nil {
		return false, fmt.Sprintf("DBus exception while configuring provider mode: %v", err)
	}
	return true, "Success"
}

// IsNorthAmericaModem reports whether the first modem is an NA model
// (LE910-NA as opposed to LE910-EU).
func (p *Prober) IsNorthAmericaModem() bool {
	props, _, ok := p.modemProperties(modemInterface)
	if !ok {
		return false
	}
	model, err := stringProperty(props, "Model")
	return err == nil && strings.Contains(model, "NA")
}

// ConfigureTechnologyPreference restricts the radio technologies, "any",
// "gsm", "umts", "lte" or a pair such as "umts-lte". A SIM must be present.
func (p *Prober) ConfigureTechnologyPreference(technologies string) (bool, string) {
	path, msg, ok := p.firstModem()
	if !ok {
		return false, msg
	}
	err := p.Ofono.SetProperty(path, radioSettingsInterface, "TechnologyPreference", technologies)
	switch {
	case err == nil:
		return true, fmt.Sprintf("Cellular technology preferences set to '%s'", technologies)
	case bus.ErrorName(err) == invalidArgumentsErrorName:
		return false, fmt.Sprintf("'%s' is not a valid cellular technology name", technologies)
	default:
		return false, fmt.Sprintf("DBus error while trying to configure ofono technology preferences: %v", err)
	}
}

// EnumerateModems logs everything ofono publishes about the modems.
func (p *Prober) EnumerateModems() {
	log.Info("-Enumerate modems")
	modems, msg := p.modems()
	if modems == nil {
		log.Info(msg)
		return
	}
	for _, m := range modems {
		log.Infof("[ %s ]", m.Path)
		logProperties("    ", m.Properties)
		for _, iface := range stringSlice(m.Properties["Interfaces"]) {
			// Call* interfaces are slow to answer.
			if strings.Contains(iface, "Call") {
				continue
			}
			props, err := p.Ofono.GetProperties(m.Path, iface)
			if err != nil {
				continue
			}
			log.Infof("    [ %s ]", iface)
			logProperties("        ", props)
		}
	}
}

func (p *Prober) modemProperties(iface string) (map[string]interface{}, string, bool) {
	path, msg, ok := p.firstModem()
	if !ok {
		return nil, msg, false
	}
	props, err := p.Ofono.GetProperties(path, iface)
	if err != nil {
		return nil, fmt.Sprintf("DBus exception while reading %s: %v", iface, err), false
	}
	return props, msg, true
}

func logProperties(indent string, props map[string]interface{}) {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := props[k]
		if list := stringSlice(v); list != nil {
			v = strings.Join(list, " ")
		}
		log.Infof("%s%s = %v", indent, k, v)
	}
}

func hasInterface(modem bus.Object, iface string) bool {
	for _, i := range stringSlice(modem.Properties["Interfaces"]) {
		if i == iface {
			return true
		}
	}
	return false
}
