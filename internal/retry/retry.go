// Package retry runs boolean probes a bounded number of times with a fixed
// delay between attempts.
package retry

import "time"

// Probe reports whether a condition holds along with a human readable message.
type Probe func() (bool, string)

// Policy is how many times a probe is tried and how long to wait between tries.
type Policy struct {
	Attempts int
	Delay    time.Duration
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

// New returns a policy using time.Sleep.
func New(attempts int, delay time.Duration) Policy {
	return Policy{Attempts: attempts, Delay: delay}
}

// Run calls probe until it succeeds or the attempts are used up. It sleeps
// between attempts only, never before the first one. The last result is
// returned. Attempts below one are treated as one.
func (p Policy) Run(probe Probe) (bool, string) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var ok bool
	var msg string
	for i := 0; i < attempts; i++ {
		if i > 0 {
			sleep(p.Delay)
		}
		ok, msg = probe()
		if ok {
			return true, msg
		}
	}
	return false, msg
}
