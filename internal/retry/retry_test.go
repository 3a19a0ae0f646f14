package retry

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	calls  int
	sleeps []time.Duration
}

func (r *recorder) sleep(d time.Duration) { r.sleeps = append(r.sleeps, d) }

func (r *recorder) succeedOn(k int) Probe {
	return func() (bool, string) {
		r.calls++
		return r.calls == k, fmt.Sprintf("call %d", r.calls)
	}
}

func TestRunSucceedsOnKthAttempt(t *testing.T) {
	for n := 1; n <= 5; n++ {
		for k := 1; k <= n; k++ {
			r := &recorder{}
			p := Policy{Attempts: n, Delay: time.Second, Sleep: r.sleep}
			ok, msg := p.Run(r.succeedOn(k))
			assert.True(t, ok)
			assert.Equal(t, fmt.Sprintf("call %d", k), msg)
			assert.Equal(t, k, r.calls, "n=%d k=%d", n, k)
			assert.Len(t, r.sleeps, k-1, "n=%d k=%d", n, k)
		}
	}
}

func TestRunFailsAfterAllAttempts(t *testing.T) {
	for n := 1; n <= 4; n++ {
		r := &recorder{}
		p := Policy{Attempts: n, Delay: 5 * time.Second, Sleep: r.sleep}
		ok, msg := p.Run(r.succeedOn(n + 1))
		assert.False(t, ok)
		assert.Equal(t, fmt.Sprintf("call %d", n), msg)
		assert.Equal(t, n, r.calls)
		assert.Len(t, r.sleeps, n-1)
		for _, d := range r.sleeps {
			assert.Equal(t, 5*time.Second, d)
		}
	}
}

func TestRunTreatsZeroAttemptsAsOne(t *testing.T) {
	r := &recorder{}
	ok, _ := Policy{Sleep: r.sleep}.Run(r.succeedOn(2))
	assert.False(t, ok)
	assert.Equal(t, 1, r.calls)
	assert.Empty(t, r.sleeps)
}
