package configmodem

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TheCacophonyProject/event-reporter/v3/eventclient"

	"github.com/TheCacophonyProject/netsupervisor/internal/modem"
	"github.com/TheCacophonyProject/netsupervisor/internal/system"
)

const (
	defaultConnmanDir = "/var/lib/connman"
	defaultOfonoDir   = "/var/lib/ofono"

	ofonoSettle          = 10 * time.Second
	enumerationDuration  = time.Minute
	firmwareSwitchSettle = 30 * time.Second
)

// Probes are the cellular checks and actions used while configuring.
type Probes interface {
	ListModems() (int, string)
	IsDaemonRunning() (bool, string)
	IsModemOnBus(attempts int) (bool, string)
	EnumerateModems()
	IsNorthAmericaModem() bool
	ProviderMode() string
	ConfigureProviderMode(mode string) (bool, string)
	IsSimPresent(attempts int) (bool, string)
	PinStatus() (modem.PinStatus, string)
	DisablePin(pin string) (modem.DisablePinAnswer, string)
	ServiceProviderName(attempts int) (string, string)
	IsNetworkRegistered(attempts int) (bool, string)
	IsDataNetworkRegistered(attempts int) (bool, string)
	ClearInternetContexts()
	SetInternetContext(apn, username, password string)
	CellularService(attempts int) (string, bool, string)
	ConnectCellularService(path string, attempts int) (bool, string)
	IsInternetContextActive(attempts int) (bool, string)
	ConfigureTechnologyPreference(technologies string) (bool, string)
	IsRoamingAllowed() (bool, string)
	SetRoamingAllowed(allowed bool) (bool, string)
}

type Services interface {
	Start(unit string) error
	Stop(unit string) error
	Enable(unit string) error
	Disable(unit string) error
}

type History interface {
	LogModemDiagnostic(code modem.DiagnosticCode, strength, tech string) error
}

type Uptime interface {
	Clear()
}

// Configurator sets up the modem, ofono and connman from a PIN and APN
// settings, and tears that setup down again.
type Configurator struct {
	Probes   Probes
	Services Services
	// Daemon stops ofono and waits for ofonod to exit.
	Daemon interface{ StopDaemon() error }
	// Diagnostics logs modem information over the AT port.
	Diagnostics func() error
	Rebooter    modem.Rebooter
	Store       *modem.ConfigStore
	State       *modem.StateMarker
	History     History
	Uptime      Uptime
	AddEvent    func(eventclient.Event) error
	// Restart runs the tool again with the same arguments after a firmware
	// switch. It does not return on success.
	Restart func() error

	// Technologies restricts the radio technologies once the SIM is unlocked.
	Technologies string
	// AllowRoaming, when set, replaces ofono's data roaming default.
	AllowRoaming *bool

	ConnmanDir string
	OfonoDir   string
	Sleep      func(time.Duration)
	Now        func() time.Time
}

// Configure applies cfg. With loaded set, cfg comes from the saved
// configuration and the saved file is kept if configuring fails. A failure is
// returned as an *modem.ExitError carrying the diagnostic code.
func (c *Configurator) Configure(cfg modem.ModemConfig, loaded bool) error {
	if cfg.FirmwareMode == "" {
		cfg.FirmwareMode = modem.DefaultFirmwareMode
	}
	log.Infof("PIN: %q", cfg.PIN)
	log.Infof("APN: %q", cfg.APN)
	log.Infof("Username: %q", cfg.Username)
	log.Infof("password: %q", cfg.Password)

	if err := c.State.Set(); err != nil {
		log.Errorf("failed to save modem state: %v", err)
	}
	c.ClearConfiguration(!loaded)

	fail := func(code modem.DiagnosticCode) error {
		return c.fail(code, loaded)
	}

	count, msg := c.Probes.ListModems()
	log.Info(msg)
	switch {
	case count == 0:
		return fail(modem.ModemAbsent)
	case count > 1:
		return fail(modem.SeveralModemsPresent)
	}

	if c.Diagnostics != nil {
		if err := c.Diagnostics(); err != nil {
			log.Warnf("failed to collect modem diagnostic information: %v", err)
		}
	}

	log.Info("-Enable and start ofono service")
	c.enableAndStart(modem.OfonoService)
	// ofono takes a while to discover modems, longer right after an OS upgrade.
	c.sleep(ofonoSettle)

	log.Info("-Check if ofonod process is running")
	running, msg := c.Probes.IsDaemonRunning()
	log.Info(msg)
	if !running {
		return fail(modem.DaemonNotRunning)
	}

	if ok, msg := c.Probes.IsModemOnBus(5); !ok {
		log.Info(msg)
		return fail(modem.ModemNotRecognized)
	}

	// SimManager and NetworkRegistration show up on the bus some time after
	// the modem itself.
	start := c.now()
	c.Probes.EnumerateModems()
	if elapsed := c.now().Sub(start); elapsed < enumerationDuration {
		wait := (enumerationDuration - elapsed).Round(time.Second)
		log.Infof("-Sleep for %s", wait)
		c.sleep(wait)
	}

	if c.Probes.IsNorthAmericaModem() {
		log.Info("This is North America modem")
		current := c.Probes.ProviderMode()
		log.Infof("North America modem firmware mode currently enabled: '%s'", current)
		if cfg.FirmwareMode != current {
			log.Infof("Switching the North America modem firmware to: '%s'", cfg.FirmwareMode)
			ok, msg := c.Probes.ConfigureProviderMode(cfg.FirmwareMode)
			log.Info(msg)
			if !ok {
				return fail(modem.SwitchFirmwareFailed)
			}
			// The modem reboots by itself after a switch, usually within 15 seconds.
			c.sleep(firmwareSwitchSettle)
			if c.Restart == nil {
				return errNoRestart
			}
			return c.Restart()
		}
	} else {
		log.Info("This is European modem")
		cfg.FirmwareMode = ""
	}

	if ok, msg := c.Probes.IsSimPresent(5); !ok {
		log.Info(msg)
		return fail(modem.SimAbsent)
	}

	status, msg := c.Probes.PinStatus()
	log.Info(msg)
	switch status {
	case modem.PinUnknown:
		return fail(modem.SimError)
	case modem.PukRequired:
		return fail(modem.SimPukLocked)
	case modem.PinRequired:
		if cfg.PIN == "" {
			return fail(modem.SimPinLocked)
		}
		answer, msg := c.Probes.DisablePin(cfg.PIN)
		log.Info(msg)
		switch answer {
		case modem.DisablePinUnknown:
			return fail(modem.SimError)
		case modem.DisablePinWrongPin:
			return fail(modem.SimPinLocked)
		}
	}

	// Both need a SIM. Roaming also has to be allowed before registration.
	if c.Technologies != "" {
		ok, msg := c.Probes.ConfigureTechnologyPreference(c.Technologies)
		log.Info(msg)
		if !ok {
			return fail(modem.ConfigureTechnologyFailed)
		}
	}
	if c.AllowRoaming != nil {
		c.setRoaming(*c.AllowRoaming)
	}

	// May take a couple of seconds after unlocking the PIN.
	_, msg = c.Probes.ServiceProviderName(5)
	log.Info(msg)

	if ok, msg := c.Probes.IsNetworkRegistered(10); !ok {
		log.Info(msg)
		return fail(modem.NetworkUnregistered)
	}
	if ok, msg := c.Probes.IsDataNetworkRegistered(20); !ok {
		log.Info(msg)
		return fail(modem.DataNetworkUnregistered)
	}

	c.Probes.ClearInternetContexts()
	c.Probes.SetInternetContext(cfg.APN, cfg.Username, cfg.Password)

	// A listed service does not mean the APN settings are valid.
	path, ok, msg := c.Probes.CellularService(3)
	log.Info(msg)
	if !ok {
		return fail(modem.APNConnectionFailed)
	}
	// A wrong APN fails here with an input/output error from connman.
	if ok, msg := c.Probes.ConnectCellularService(path, 2); !ok {
		log.Info(msg)
		return fail(modem.APNConnectionFailed)
	}
	if ok, msg := c.Probes.IsInternetContextActive(3); !ok {
		log.Info(msg)
		return fail(modem.InternetContextFailed)
	}

	log.Info("-Enable and start cellular data supervisor service")
	c.enableAndStart(modem.SupervisorTimer)
	system.Sync()
	log.Info("-Enable and start cellular SignalStrength monitor service")
	c.enableAndStart(modem.SignalMonitorService)
	system.Sync()

	return c.succeed(cfg)
}

// setRoaming only logs a failure, registration reports whether it mattered.
func (c *Configurator) setRoaming(allowed bool) {
	current, msg := c.Probes.IsRoamingAllowed()
	log.Info(msg)
	if current == allowed {
		return
	}
	if ok, msg := c.Probes.SetRoamingAllowed(allowed); ok {
		log.Info(msg)
	} else {
		log.Warn(msg)
	}
}

func (c *Configurator) succeed(cfg modem.ModemConfig) error {
	if err := c.Store.Save(cfg); err != nil {
		log.Errorf("failed to save modem configuration: %v", err)
	} else {
		log.Infof("Modem configuration saved in %s", c.Store.Path)
	}
	log.Info("---Configuration successful---")
	if err := c.History.LogModemDiagnostic(modem.WellConfigured, "", ""); err != nil {
		log.Error(err)
	}
	// ofono keeps the configuration from now on.
	if err := c.Services.Disable(modem.ConfigurationLoaderService); err != nil {
		log.Warn(err)
	}
	c.report("modemConfigured", map[string]interface{}{"apn": cfg.APN})
	return nil
}

func (c *Configurator) fail(code modem.DiagnosticCode, loaded bool) error {
	// A saved configuration is kept for the next attempt.
	c.ClearConfiguration(!loaded)

	// Power cycle so the next attempt starts from a fresh modem.
	if code != modem.SeveralModemsPresent {
		if err := c.Rebooter.Reboot(); err != nil {
			log.Warn(err)
		}
	}

	log.Errorf("---Finishing in Error with code %d---", int(code))
	if err := c.History.LogModemDiagnostic(code, "", ""); err != nil {
		log.Error(err)
	}
	c.report("modemConfigurationFailed", map[string]interface{}{
		"code":       int(code),
		"diagnostic": code.String(),
	})
	return &modem.ExitError{Code: code}
}

// ClearConfiguration stops cellular data and removes the state ofono and
// connman keep about it. removeFile also deletes the saved configuration.
func (c *Configurator) ClearConfiguration(removeFile bool) {
	log.Info("-Stops cellular data connectivity")
	c.Uptime.Clear()

	if removeFile {
		if err := c.Store.Remove(); err != nil {
			log.Warnf("failed to remove modem configuration: %v", err)
		}
	}

	c.stopAndDisable(modem.SupervisorTimer)
	c.stopAndDisable(modem.SignalMonitorService)

	if err := c.Daemon.StopDaemon(); err != nil {
		log.Warn(err)
	}
	if err := c.Services.Disable(modem.OfonoService); err != nil {
		log.Warn(err)
	}

	c.removeConnmanServices()
	if _, err := os.Stat(c.ofonoDir()); err == nil {
		if err := os.RemoveAll(c.ofonoDir()); err != nil {
			log.Warnf("Failed to clear ofono configuration files: %v", err)
		} else {
			log.Infof("Removed dir %s", c.ofonoDir())
		}
	}
	system.Sync()
}

func (c *Configurator) removeConnmanServices() {
	dir := c.ConnmanDir
	if dir == "" {
		dir = defaultConnmanDir
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warnf("Failed to clear connman configuration files: %v", err)
		return
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "cellular_") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(path); err == nil {
			log.Infof("Removed dir %s", path)
		}
	}
}

func (c *Configurator) ofonoDir() string {
	if c.OfonoDir == "" {
		return defaultOfonoDir
	}
	return c.OfonoDir
}

// Enable marks the modem as enabled when one is plugged in.
func (c *Configurator) Enable() error {
	log.Info("Enable modem")
	if count, _ := c.Probes.ListModems(); count == 0 {
		log.Error("Failed to enable modem")
		return &modem.ExitError{Code: modem.ModemAbsent}
	}
	if err := c.State.Set(); err != nil {
		return err
	}
	log.Info("Modem enabled successfully")
	return nil
}

// Disable clears the enabled marker and any configuration.
func (c *Configurator) Disable() error {
	log.Info("Disable modem")
	if err := c.State.Clear(); err != nil {
		return err
	}
	if c.Store.Exists() {
		c.ClearConfiguration(true)
	}
	log.Info("Modem is disabled")
	return nil
}

func (c *Configurator) enableAndStart(unit string) {
	if err := c.Services.Enable(unit); err != nil {
		log.Warn(err)
	}
	if err := c.Services.Start(unit); err != nil {
		log.Warn(err)
	}
}

func (c *Configurator) stopAndDisable(unit string) {
	if err := c.Services.Stop(unit); err != nil {
		log.Warn(err)
	}
	if err := c.Services.Disable(unit); err != nil {
		log.Warn(err)
	}
}

func (c *Configurator) report(eventType string, details map[string]interface{}) {
	if c.AddEvent == nil {
		return
	}
	err := c.AddEvent(eventclient.Event{
		Timestamp: c.now(),
		Type:      eventType,
		Details:   details,
	})
	if err != nil {
		log.Errorf("Failed to make %s event: %v", eventType, err)
	}
}

func (c *Configurator) sleep(d time.Duration) {
	if c.Sleep != nil {
		c.Sleep(d)
	}
}

func (c *Configurator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

var errNoRestart = errors.New("cannot restart after firmware switch")
