package wifirssimonitor

import (
	"context"
	"errors"
	"strconv"

	"github.com/TheCacophonyProject/netsupervisor/internal/wifi"
	"github.com/TheCacophonyProject/netsupervisor/statuslistener"
)

// noTech is reported when no frequency could be read.
const noTech = "0"

type WiFi interface {
	EnabledStatus() wifi.EnabledStatus
	RegisteredService() (wifi.RegisteredService, bool, error)
	RSSI() (string, string, error)
	IPv4Address() (string, error)
	Reconnect(ssid string) error
	Disconnect(ssid string) error
}

type Lock interface {
	Acquire(timeout int) error
	Release() error
}

// Monitor reports the signal of the registered Wi-Fi network once, trying
// to reconnect first when the link is down.
type Monitor struct {
	WiFi    WiFi
	Lock    Lock
	Publish func(statuslistener.WiFiStatus) error
}

// Run returns nil without doing anything when another tool holds the Wi-Fi
// lock. Cancelling ctx aborts a reconnection in progress; nothing is
// published then. The returned error is the final RSSI read error.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.Lock.Acquire(0); err != nil {
		if errors.Is(err, wifi.ErrLockNotAcquired) {
			log.Info("Not able to get configuration lock. Nothing to do")
			return nil
		}
		return err
	}
	defer func() {
		if err := m.Lock.Release(); err != nil {
			log.Error(err)
		}
	}()

	if m.WiFi.EnabledStatus() != wifi.StatusEnabled {
		log.Info("Wi-Fi is not enabled")
		return nil
	}
	service, registered, err := m.WiFi.RegisteredService()
	if err != nil {
		return err
	}
	if !registered {
		return nil
	}

	status, err := m.read()
	if status.State == statuslistener.StateError {
		if !m.reconnect(ctx, service.SSID) {
			return nil
		}
		status, err = m.read()
	}

	log.Infof("Wi-Fi status: rssi %d, state %s, tech %s", status.RSSI, status.State, status.Tech)
	if perr := m.Publish(status); perr != nil {
		log.Errorf("Error while sending Wi-Fi status: %v", perr)
	}
	return err
}

// read returns the current status. A link without an IPv4 address is
// reported as an error state but is not an error itself.
func (m *Monitor) read() (statuslistener.WiFiStatus, error) {
	failed := statuslistener.WiFiStatus{RSSI: -1, State: statuslistener.StateError, Tech: noTech}
	rssi, freq, err := m.WiFi.RSSI()
	if err != nil {
		log.Error(err)
		return failed, err
	}
	value, err := strconv.Atoi(rssi)
	if err != nil {
		return failed, err
	}
	failed.Tech = freq

	address, err := m.WiFi.IPv4Address()
	if err != nil {
		log.Warnf("Reading Wi-Fi address: %v", err)
		return failed, nil
	}
	if address == "" {
		log.Info("Wi-Fi interface has no IPv4 address")
		return failed, nil
	}
	return statuslistener.WiFiStatus{RSSI: value, State: statuslistener.StateEnabled, Tech: freq}, nil
}

// reconnect reports false when ctx ended the attempt.
func (m *Monitor) reconnect(ctx context.Context, ssid string) bool {
	done := make(chan error, 1)
	go func() {
		done <- m.WiFi.Reconnect(ssid)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Warn(err)
		}
		return true
	case <-ctx.Done():
		log.Infof("Aborting reconnection to %s", ssid)
		if err := m.WiFi.Disconnect(ssid); err != nil {
			log.Warnf("Aborting reconnection: %v", err)
		}
		<-done
		return false
	}
}
