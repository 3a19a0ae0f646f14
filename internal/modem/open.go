package modem

import (
	"time"

	"github.com/TheCacophonyProject/netsupervisor/internal/bus"
	"github.com/TheCacophonyProject/netsupervisor/internal/system"
	"github.com/TheCacophonyProject/netsupervisor/internal/usb"
)

// OpenProber connects to the system bus and returns a Prober talking to the
// running ofono and connman daemons.
func OpenProber(settings *Settings) (*Prober, error) {
	conn, err := bus.SystemBus()
	if err != nil {
		return nil, err
	}
	return &Prober{
		Ofono:      bus.NewOfono(conn),
		Connman:    bus.NewConnman(conn),
		USB:        usb.NewLister(),
		Processes:  system.NewProcesses(),
		Reacher:    NewContacter(settings.Interface),
		Endpoints:  settings.Endpoints,
		RetryDelay: settings.RetryDelay,
		Sleep:      time.Sleep,
	}, nil
}

// OpenRemediator returns a Remediator driving systemd and the configured
// modem reboot method.
func OpenRemediator(settings *Settings, recorder RebootRecorder) (*Remediator, error) {
	rebooter, err := NewRebooter(settings.RebootMethod, settings.PowerPin, system.ExecRunner{})
	if err != nil {
		return nil, err
	}
	return NewRemediator(system.NewSystemd(), system.NewProcesses(), usb.NewLister(), rebooter, recorder), nil
}

// OpenATClient returns a client on the configured modem serial port.
func OpenATClient(settings *Settings) *ATClient {
	return NewATClient(NewPortDialer(settings.SerialPort))
}
