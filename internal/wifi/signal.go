package wifi

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/TheCacophonyProject/netsupervisor/internal/bus"
)

type subscriber interface {
	Subscribe(member string) (<-chan bus.Signal, func(), error)
}

// waitForSignal subscribes to member, runs action and waits for handle to
// accept a signal. The wait for the signal only starts once action returned
// and lasts at most timeout. An action error wins over any signal, but the
// signals already queued are still handled. The subscription is removed and
// action has returned by the time waitForSignal does.
func waitForSignal(sub subscriber, member string, timeout time.Duration, action func() error, handle func(bus.Signal) bool) (bool, error) {
	signals, unsubscribe, err := sub.Subscribe(member)
	if err != nil {
		return false, fmt.Errorf("subscribing to %s: %w", member, err)
	}
	defer unsubscribe()

	actionDone := make(chan error, 1)
	go func() { actionDone <- action() }()

	var (
		received bool
		done     bool
		result   error
		timer    *time.Timer
		expired  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for !done || (!received && result == nil) {
		select {
		case result = <-actionDone:
			done = true
			if result == nil && !received {
				timer = time.NewTimer(timeout)
				expired = timer.C
			}
		case s, ok := <-signals:
			if !ok {
				signals = nil
				continue
			}
			if !received && handle(s) {
				received = true
			}
		case <-expired:
			return false, nil
		}
	}
	if result != nil && !received {
		received = drain(signals, handle)
	}
	return received, result
}

// drain handles the signals already queued without waiting for more.
func drain(signals <-chan bus.Signal, handle func(bus.Signal) bool) bool {
	for {
		select {
		case s, ok := <-signals:
			if !ok {
				return false
			}
			if handle(s) {
				return true
			}
		default:
			return false
		}
	}
}

// connectAttempt follows the supplicant state while connman connects.
type connectAttempt struct {
	security   string
	authErrors int
	progress   io.Writer
}

func (a *connectAttempt) enterprise() bool {
	return strings.Contains(a.security, "ieee8021x")
}

func (a *connectAttempt) notify(state string) {
	if a.progress != nil {
		fmt.Fprintf(a.progress, "wifi_conn_state:%s\n", state)
	}
}

// handle reports whether the connection completed. Failed handshakes are
// counted but never end the wait; the supplicant may still succeed on a
// later attempt.
func (a *connectAttempt) handle(s bus.Signal) bool {
	if len(s.Body) == 0 {
		return false
	}
	props, ok := s.Body[0].(map[string]interface{})
	if !ok {
		return false
	}
	state, ok := props["State"].(string)
	if !ok {
		return false
	}
	log.Infof("Signal PropertiesChanged received. State = %s", state)

	switch {
	case strings.Contains(state, "associated") && a.enterprise():
		log.Info("WiFi service State=associated. 802.1x RSN authentication in progress")
		a.authErrors++
		a.notify("auth_in_progress")
	case strings.Contains(state, "completed"):
		if !a.enterprise() {
			a.notify("getting_IP")
		}
		log.Info("WiFi service State=completed. Getting IP address")
		a.authErrors = 0
		return true
	case strings.Contains(state, "4way_handshake"):
		a.authErrors++
	case strings.Contains(state, "disconnected") && a.authErrors > 0:
		log.Warnf("WiFi service State=disconnected after 4way_handshake. Authentication attempt #%d failed", a.authErrors)
		if a.authErrors == 1 {
			a.notify("auth_failed_retrying")
		}
	}
	return false
}

// scanDone reads the result carried by a ScanDone signal.
func scanDone(success *bool) func(bus.Signal) bool {
	return func(s bus.Signal) bool {
		log.Info("Signal ScanDone received")
		if len(s.Body) > 0 {
			*success, _ = s.Body[0].(bool)
		}
		return true
	}
}
