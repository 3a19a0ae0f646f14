package bus

import (
	"sync"

	"github.com/godbus/dbus/v5"
)

type Signal struct {
	Path string
	// Name is the fully qualified member, for example
	// fi.w1.wpa_supplicant1.Interface.ScanDone.
	Name string
	Body []interface{}
}

// Subscribe adds a match rule for iface.member and forwards matching signals
// on the returned channel. The returned function removes the match rule and
// stops forwarding; the channel is closed once it returns. It is safe to call
// more than once.
func Subscribe(conn *dbus.Conn, iface, member string) (<-chan Signal, func(), error) {
	opts := []dbus.MatchOption{dbus.WithMatchInterface(iface), dbus.WithMatchMember(member)}
	if err := conn.AddMatchSignal(opts...); err != nil {
		return nil, nil, err
	}

	raw := make(chan *dbus.Signal, 16)
	conn.Signal(raw)

	out := make(chan Signal, 16)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(out)
		name := iface + "." + member
		for {
			select {
			case <-done:
				return
			case s, ok := <-raw:
				if !ok {
					return
				}
				if s.Name != name {
					continue
				}
				sig := Signal{Path: string(s.Path), Name: s.Name, Body: Plain(s.Body).([]interface{})}
				select {
				case out <- sig:
				case <-done:
					return
				}
			}
		}
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			conn.RemoveSignal(raw)
			if err := conn.RemoveMatchSignal(opts...); err != nil {
				log.Debugf("failed to remove match for %s.%s: %v", iface, member, err)
			}
			close(done)
			wg.Wait()
		})
	}
	return out, unsubscribe, nil
}
