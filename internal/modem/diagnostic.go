package modem

import "strings"

const (
	contextAttempts = 3
	contactAttempts = 3
)

// Checks are the probes the diagnostic runs, in order.
type Checks interface {
	IsInternetContextActive(attempts int) (bool, string)
	ContactServer(attempts int) (bool, string)
	IsModemOnBus(attempts int) (bool, string)
	SignalStrength() (int, string, string)
	ListModems() (int, string)
	IsDaemonRunning() (bool, string)
	IsSimPresent(attempts int) (bool, string)
	PinStatus() (PinStatus, string)
	IsNetworkRegistered(attempts int) (bool, string)
	IsDataNetworkRegistered(attempts int) (bool, string)
}

// Diagnosis is the outcome of one run. SignalStrength is -1 and Tech "none"
// unless the fast path could read them.
type Diagnosis struct {
	Code           DiagnosticCode
	Message        string
	SignalStrength int
	Tech           string
}

type trail []string

func (t *trail) add(msg string) { *t = append(*t, msg) }

func (t trail) String() string { return strings.Join(t, ", ") }

// Diagnose classifies the cellular connection. Checks run in a fixed order and
// the first failing one decides the code. It only reads state.
func Diagnose(c Checks) Diagnosis {
	d := Diagnosis{Code: WellConfigured, SignalStrength: -1, Tech: "none"}

	// Fast path: an active context and a reachable server.
	active, contextMsg := c.IsInternetContextActive(contextAttempts)
	if active {
		if onBus, _ := c.IsModemOnBus(1); onBus {
			d.SignalStrength, _, d.Tech = c.SignalStrength()
		}
		if ok, msg := c.ContactServer(contactAttempts); ok {
			d.Message = contextMsg + ", " + msg
			return d
		}
	}

	var t trail
	fail := func(code DiagnosticCode) Diagnosis {
		d.Code = code
		d.Message = t.String()
		return d
	}

	count, msg := c.ListModems()
	t.add(msg)
	switch {
	case count == 0:
		return fail(ModemAbsent)
	case count > 1:
		return fail(SeveralModemsPresent)
	}

	steps := []func() (DiagnosticCode, string){
		check(c.IsDaemonRunning, DaemonNotRunning),
		check(func() (bool, string) { return c.IsModemOnBus(1) }, ModemNotRecognized),
		check(func() (bool, string) { return c.IsSimPresent(1) }, SimAbsent),
		func() (DiagnosticCode, string) {
			status, msg := c.PinStatus()
			return pinFailure(status), msg
		},
		check(func() (bool, string) { return c.IsNetworkRegistered(1) }, NetworkUnregistered),
		check(func() (bool, string) { return c.IsDataNetworkRegistered(1) }, DataNetworkUnregistered),
		check(func() (bool, string) { return c.IsInternetContextActive(1) }, APNConnectionFailed),
		check(func() (bool, string) { return c.ContactServer(contactAttempts) }, ContactServerFailed),
	}
	for _, step := range steps {
		code, msg := step()
		t.add(msg)
		if code != WellConfigured {
			return fail(code)
		}
	}
	d.Message = t.String()
	return d
}

func check(probe func() (bool, string), code DiagnosticCode) func() (DiagnosticCode, string) {
	return func() (DiagnosticCode, string) {
		ok, msg := probe()
		if ok {
			return WellConfigured, msg
		}
		return code, msg
	}
}

// pinFailure maps a PIN status to the code it ends the diagnostic with,
// WellConfigured when the SIM is usable.
func pinFailure(status PinStatus) DiagnosticCode {
	switch status {
	case PinValidOrNotRequired:
		return WellConfigured
	case PukRequired:
		return SimPukLocked
	case PinRequired:
		return SimPinLocked
	default:
		return SimError
	}
}
