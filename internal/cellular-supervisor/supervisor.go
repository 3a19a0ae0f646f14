package cellularsupervisor

import (
	"strconv"
	"time"

	"github.com/TheCacophonyProject/event-reporter/v3/eventclient"

	"github.com/TheCacophonyProject/netsupervisor/internal/modem"
)

type Remediator interface {
	Remediate(code modem.DiagnosticCode) (bool, error)
}

// History is where diagnostic results are kept for the stats spreadsheet.
type History interface {
	LogModemDiagnostic(code modem.DiagnosticCode, strength, tech string) error
}

type Counter interface {
	Get() int
	Increment() error
}

type Uptime interface {
	Hours() float64
}

// Supervisor checks the cellular data connection and repairs it when it is
// broken. It is started every few minutes by a systemd timer once the modem
// is configured.
type Supervisor struct {
	Checks     modem.Checks
	Remediator Remediator
	History    History
	Failures   Counter
	Uptime     Uptime
	AddEvent   func(eventclient.Event) error
}

// Supervise runs one diagnostic. With diagnosticOnly set nothing is recorded
// or repaired and a failure is returned as an *modem.ExitError carrying the
// diagnostic code.
func (s *Supervisor) Supervise(diagnosticOnly bool) (modem.Diagnosis, error) {
	d := modem.Diagnose(s.Checks)

	if !diagnosticOnly {
		if err := s.History.LogModemDiagnostic(d.Code, strconv.Itoa(d.SignalStrength), d.Tech); err != nil {
			log.Error(err)
		}
	}

	if d.Code == modem.WellConfigured {
		log.Infof("Cellular data connection is available: %s", d.Message)
		if !diagnosticOnly {
			s.ShowStats()
		}
		return d, nil
	}

	log.Warnf("Cellular data connection is not available: %s (code %d)", d.Message, int(d.Code))
	if diagnosticOnly {
		return d, &modem.ExitError{Code: d.Code}
	}

	if err := s.Failures.Increment(); err != nil {
		log.Errorf("failed to increment failure counter: %v", err)
	}
	s.showFailures()
	s.report(d)

	if ran, err := s.Remediator.Remediate(d.Code); err != nil {
		log.Warnf("recovery finished with errors: %v", err)
	} else if ran {
		log.Info("recovery finished")
	}
	return d, nil
}

// ShowStats logs how long the connection has been up and how often it failed
// since boot.
func (s *Supervisor) ShowStats() {
	log.Infof("Connection uptime (hh.mm) %.2f", s.Uptime.Hours())
	s.showFailures()
}

func (s *Supervisor) showFailures() {
	log.Infof("Total number of failures since last reboot %d", s.Failures.Get())
}

func (s *Supervisor) report(d modem.Diagnosis) {
	if s.AddEvent == nil {
		return
	}
	err := s.AddEvent(eventclient.Event{
		Timestamp: time.Now(),
		Type:      "cellularConnectionFailure",
		Details: map[string]interface{}{
			"code":           int(d.Code),
			"diagnostic":     d.Code.String(),
			"message":        d.Message,
			"signalStrength": d.SignalStrength,
			"tech":           d.Tech,
		},
	})
	if err != nil {
		log.Errorf("Failed to make cellularConnectionFailure event: %v", err)
	}
}
