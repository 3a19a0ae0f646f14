package modem

import (
	"fmt"
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"

	"github.com/TheCacophonyProject/netsupervisor/internal/system"
)

const (
	RebootScript = "script"
	RebootGPIO   = "gpio"

	rebootHelper       = "reboot_modem.sh"
	defaultPowerOffFor = 5 * time.Second
)

// ScriptRebooter cuts the modem power through the board helper script.
type ScriptRebooter struct {
	Runner system.Runner
	Script string
}

func (r *ScriptRebooter) Reboot() error {
	log.Info("-Reboot USB modem (hard)")
	script := r.Script
	if script == "" {
		script = rebootHelper
	}
	if err := r.Runner.Run(script); err != nil {
		return fmt.Errorf("running %s: %w", script, err)
	}
	return nil
}

// GPIORebooter power cycles the modem through its power enable pin.
type GPIORebooter struct {
	PinName     string
	PowerOffFor time.Duration
	Sleep       func(time.Duration)
	// Pin looks up a pin by name. It defaults to the periph registry.
	Pin func(name string) gpio.PinIO
}

func NewGPIORebooter(pinName string) *GPIORebooter {
	return &GPIORebooter{
		PinName:     pinName,
		PowerOffFor: defaultPowerOffFor,
		Sleep:       time.Sleep,
	}
}

func (r *GPIORebooter) Reboot() error {
	log.Infof("-Reboot USB modem (hard) through %s", r.PinName)
	lookup := r.Pin
	if lookup == nil {
		if _, err := host.Init(); err != nil {
			return fmt.Errorf("failed to load periph host drivers: %w", err)
		}
		lookup = gpioreg.ByName
	}
	pin := lookup(r.PinName)
	if pin == nil {
		return fmt.Errorf("failed to init %s pin", r.PinName)
	}
	if err := pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("failed to set modem power pin low: %w", err)
	}
	if r.Sleep != nil {
		r.Sleep(r.PowerOffFor)
	}
	if err := pin.Out(gpio.High); err != nil {
		return fmt.Errorf("failed to set modem power pin high: %w", err)
	}
	return nil
}

// NewRebooter returns the reboot strategy named by method.
func NewRebooter(method, pinName string, runner system.Runner) (Rebooter, error) {
	switch method {
	case RebootScript, "":
		return &ScriptRebooter{Runner: runner}, nil
	case RebootGPIO:
		return NewGPIORebooter(pinName), nil
	default:
		return nil, fmt.Errorf("unknown reboot method %q", method)
	}
}
