package signalmonitor

import (
	"context"
	"time"

	"github.com/TheCacophonyProject/netsupervisor/statuslistener"
)

const (
	defaultInterval = 3 * time.Second
	// Stray -1 readings happen; only report an error once it lasts 30 seconds.
	errorPolls = 10
	// A steady value is still republished every 5 minutes.
	republishPolls = 100
)

type Probe interface {
	IsModemOnBus(attempts int) (bool, string)
	SignalStrength() (int, string, string)
}

// Monitor polls the modem signal strength and publishes it when it changes.
type Monitor struct {
	Probe    Probe
	Publish  func(statuslistener.CellularStatus) error
	Interval time.Duration

	errors   int
	polls    int
	previous int
	tech     string
}

func NewMonitor(probe Probe, publish func(statuslistener.CellularStatus) error) *Monitor {
	return &Monitor{
		Probe:    probe,
		Publish:  publish,
		Interval: defaultInterval,
		previous: -1,
		tech:     "none",
	}
}

// Run polls until ctx is done, then publishes the disabled state.
func (m *Monitor) Run(ctx context.Context) {
	interval := m.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		m.Poll()
		select {
		case <-ctx.Done():
			log.Info("Cellular has been disabled")
			m.publish(statuslistener.CellularStatus{Strength: 0, State: statuslistener.StateDisabled, Tech: m.tech})
			return
		case <-ticker.C:
		}
	}
}

// Poll reads the strength once and publishes it if needed.
func (m *Monitor) Poll() {
	strength, tech := -1, "none"
	if onBus, _ := m.Probe.IsModemOnBus(1); onBus {
		strength, _, tech = m.Probe.SignalStrength()
	}
	m.tech = tech

	if strength == -1 {
		m.errors++
		log.Error("Error while getting Cellular signal_strength value from dbus")
	} else {
		m.errors = 0
	}
	if strength == -1 && m.errors < errorPolls {
		return
	}

	m.polls++
	switch {
	case strength != m.previous:
		log.Infof("Cellular signal_strength value changed: %d -> %d", m.previous, strength)
		m.previous = strength
	case m.polls%republishPolls == 0:
		log.Infof("Cellular signal_strength %d", strength)
		m.polls = 0
	default:
		return
	}
	m.publish(statusFor(strength, tech))
}

func statusFor(strength int, tech string) statuslistener.CellularStatus {
	state := statuslistener.StateEnabled
	if strength == -1 {
		state = statuslistener.StateError
	}
	return statuslistener.CellularStatus{Strength: strength, State: state, Tech: tech}
}

func (m *Monitor) publish(s statuslistener.CellularStatus) {
	if err := m.Publish(s); err != nil {
		log.Errorf("Error while sending Cellular signal_strength status: %v", err)
	}
}
