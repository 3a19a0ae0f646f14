package modem

//go:generate mockgen -source=remediation.go -destination=mock_remediation_test.go -package=modem

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/TheCacophonyProject/netsupervisor/internal/usb"
)

type DeviceLister interface {
	Present(devices []usb.Device) ([]usb.Device, error)
}

type ProcessChecker interface {
	IsRunning(name string) (bool, error)
}

type ServiceController interface {
	Start(unit string) error
	Stop(unit string) error
	Restart(unit string) error
}

// Rebooter power cycles the modem.
type Rebooter interface {
	Reboot() error
}

// RebootRecorder notes a forced reboot in the cellular history.
type RebootRecorder interface {
	LogForcedModemReboot() error
}

const (
	defaultSettle       = 4 * time.Second
	defaultStopTimeout  = 30 * time.Second
	defaultPollInterval = time.Second
)

// Remediator tries to bring a faulty cellular connection back by restarting
// everything between the modem and connman.
type Remediator struct {
	Services  ServiceController
	Processes ProcessChecker
	USB       DeviceLister
	Rebooter  Rebooter
	Recorder  RebootRecorder

	Sleep        func(time.Duration)
	Settle       time.Duration
	StopTimeout  time.Duration
	PollInterval time.Duration
}

func NewRemediator(services ServiceController, processes ProcessChecker, lister DeviceLister, rebooter Rebooter, recorder RebootRecorder) *Remediator {
	return &Remediator{
		Services:     services,
		Processes:    processes,
		USB:          lister,
		Rebooter:     rebooter,
		Recorder:     recorder,
		Sleep:        time.Sleep,
		Settle:       defaultSettle,
		StopTimeout:  defaultStopTimeout,
		PollInterval: defaultPollInterval,
	}
}

// Remediate runs the recovery sequence for code. It reports whether the
// sequence ran; the error collects the steps that failed. Every step is
// attempted even when an earlier one failed.
func (r *Remediator) Remediate(code DiagnosticCode) (bool, error) {
	if code == WellConfigured {
		return false, nil
	}
	if code == SeveralModemsPresent {
		log.Error("Several modems are installed. Nothing we can do to recover...")
		return false, nil
	}
	modems, err := r.USB.Present(usb.Modems)
	if err != nil {
		log.Warnf("failed to list USB modems: %v", err)
	}
	if len(modems) > 1 {
		log.Error("Several modems are installed. Nothing we can do to recover...")
		return false, nil
	}

	var result *multierror.Error
	step := 1

	log.Warnf("Step %d: stop ofonod", step)
	if err := r.StopDaemon(); err != nil {
		log.Warn(err)
		result = multierror.Append(result, err)
	} else {
		log.Warnf("%s stopped", OfonoService)
	}
	r.sleep(r.Settle)

	step++
	log.Warnf("Step %d: restart connman", step)
	if err := r.Services.Restart(ConnmanService); err != nil {
		log.Warn(err)
		result = multierror.Append(result, err)
	} else {
		log.Warnf("%s restarted", ConnmanService)
	}
	r.sleep(r.Settle)

	step++
	log.Warnf("Step %d: reboot modem (hard)", step)
	if err := r.Recorder.LogForcedModemReboot(); err != nil {
		log.Warnf("failed to record forced reboot: %v", err)
	}
	if err := r.Rebooter.Reboot(); err != nil {
		err = fmt.Errorf("hard rebooting modem: %w", err)
		log.Warn(err)
		result = multierror.Append(result, err)
	} else {
		log.Warn("modem rebooted (hard)")
	}

	log.Warn("Last action: start ofonod again")
	if err := r.Services.Start(OfonoService); err != nil {
		log.Warn(err)
		result = multierror.Append(result, err)
	} else {
		log.Warnf("%s started", OfonoService)
	}
	return true, result.ErrorOrNil()
}

// StopDaemon stops ofono and waits for ofonod to exit so its state files
// can be cleared safely. It usually takes 5 to 10 seconds.
func (r *Remediator) StopDaemon() error {
	if err := r.Services.Stop(OfonoService); err != nil {
		return err
	}
	interval := r.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	for waited := time.Duration(0); waited < r.StopTimeout; waited += interval {
		if !r.daemonRunning() {
			return nil
		}
		r.sleep(interval)
	}
	if r.daemonRunning() {
		return fmt.Errorf("stopped %s but %s is still running", OfonoService, daemonProcess)
	}
	return nil
}

func (r *Remediator) daemonRunning() bool {
	running, err := r.Processes.IsRunning(daemonProcess)
	if err != nil {
		log.Warnf("failed to look for %s: %v", daemonProcess, err)
		return false
	}
	return running
}

func (r *Remediator) sleep(d time.Duration) {
	if r.Sleep != nil {
		r.Sleep(d)
	}
}
