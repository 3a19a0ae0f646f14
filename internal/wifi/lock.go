package wifi

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

var ErrLockNotAcquired = errors.New("Wi-Fi lock not acquired")

// Lock serialises the tools that change the Wi-Fi configuration.
type Lock struct {
	flock *flock.Flock
	Sleep func(time.Duration)
}

func NewLock(path string) *Lock {
	return &Lock{flock: flock.New(path), Sleep: time.Sleep}
}

// Acquire takes the lock. A negative timeout blocks until it is free, zero
// tries once and a positive timeout tries once a second for that many
// seconds.
func (l *Lock) Acquire(timeout int) error {
	if timeout < 0 {
		if err := l.flock.Lock(); err != nil {
			return fmt.Errorf("acquiring %s: %w", l.flock.Path(), err)
		}
		return nil
	}
	for attempt := 0; attempt <= timeout; attempt++ {
		if attempt > 0 {
			l.Sleep(time.Second)
		}
		ok, err := l.flock.TryLock()
		if err != nil {
			return fmt.Errorf("acquiring %s: %w", l.flock.Path(), err)
		}
		if ok {
			return nil
		}
	}
	return ErrLockNotAcquired
}

func (l *Lock) Release() error {
	return l.flock.Unlock()
}
