package modem

import "fmt"

// DiagnosticCode is the outcome of a cellular diagnostic. The numeric values
// are process exit codes consumed by systemd units and operator tooling and
// must not change.
type DiagnosticCode int

const (
	WellConfigured            DiagnosticCode = 0
	ModemAbsent               DiagnosticCode = 10
	SeveralModemsPresent      DiagnosticCode = 11
	DaemonNotRunning          DiagnosticCode = 15
	ModemNotRecognized        DiagnosticCode = 20
	SimAbsent                 DiagnosticCode = 25
	SimPinLocked              DiagnosticCode = 30
	SimPukLocked              DiagnosticCode = 35
	SimError                  DiagnosticCode = 40
	NetworkUnregistered       DiagnosticCode = 45
	DataNetworkUnregistered   DiagnosticCode = 50
	APNConnectionFailed       DiagnosticCode = 55
	InternetContextFailed     DiagnosticCode = 60
	ContactServerFailed       DiagnosticCode = 65
	SwitchFirmwareFailed      DiagnosticCode = 70
	ConfigureTechnologyFailed DiagnosticCode = 75
)

// Stat codes only ever written to the cellular history file.
const (
	ModemDetection    DiagnosticCode = -10
	ForcedModemReboot DiagnosticCode = -20
)

var codeNames = map[DiagnosticCode]string{
	WellConfigured:            "WellConfigured",
	ModemAbsent:               "ModemAbsent",
	SeveralModemsPresent:      "SeveralModemsPresent",
	DaemonNotRunning:          "DaemonNotRunning",
	ModemNotRecognized:        "ModemNotRecognized",
	SimAbsent:                 "SimAbsent",
	SimPinLocked:              "SimPinLocked",
	SimPukLocked:              "SimPukLocked",
	SimError:                  "SimError",
	NetworkUnregistered:       "NetworkUnregistered",
	DataNetworkUnregistered:   "DataNetworkUnregistered",
	APNConnectionFailed:       "APNConnectionFailed",
	InternetContextFailed:     "InternetContextFailed",
	ContactServerFailed:       "ContactServerFailed",
	SwitchFirmwareFailed:      "SwitchFirmwareFailed",
	ConfigureTechnologyFailed: "ConfigureTechnologyFailed",
	ModemDetection:            "ModemDetection",
	ForcedModemReboot:         "ForcedModemReboot",
}

func (c DiagnosticCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("DiagnosticCode(%d)", int(c))
}

type PinStatus int

const (
	PinUnknown PinStatus = iota
	PinRequired
	PukRequired
	PinValidOrNotRequired
)

type DisablePinAnswer int

const (
	DisablePinUnknown DisablePinAnswer = iota
	DisablePinSuccess
	DisablePinWrongPin
)

// ExitError carries a diagnostic code out of a tool so main can exit with it.
type ExitError struct {
	Code DiagnosticCode
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("finished with code %d (%s)", int(e.Code), e.Code)
}

func (e *ExitError) ExitCode() int {
	return int(e.Code)
}
