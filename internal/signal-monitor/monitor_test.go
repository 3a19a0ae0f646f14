package signalmonitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/TheCacophonyProject/netsupervisor/statuslistener"
)

// readings returns the queued strengths one per poll, then repeats the last.
type readings struct {
	values []int
}

func (r *readings) IsModemOnBus(int) (bool, string) { return true, "" }

func (r *readings) SignalStrength() (int, string, string) {
	v := r.values[0]
	if len(r.values) > 1 {
		r.values = r.values[1:]
	}
	if v == -1 {
		return -1, "", "none"
	}
	return v, "", "4G"
}

type published struct {
	statuses []statuslistener.CellularStatus
}

func (p *published) publish(s statuslistener.CellularStatus) error {
	p.statuses = append(p.statuses, s)
	return nil
}

func newTestMonitor(values ...int) (*Monitor, *published) {
	p := &published{}
	return NewMonitor(&readings{values: values}, p.publish), p
}

func TestMonitorPublishesChanges(t *testing.T) {
	m, p := newTestMonitor(-90, -90, -85)
	for i := 0; i < 3; i++ {
		m.Poll()
	}
	assert.Equal(t, []statuslistener.CellularStatus{
		{Strength: -90, State: "enabled", Tech: "4G"},
		{Strength: -85, State: "enabled", Tech: "4G"},
	}, p.statuses)
}

func TestMonitorRepublishesSteadyValue(t *testing.T) {
	m, p := newTestMonitor(-90)
	for i := 0; i < republishPolls; i++ {
		m.Poll()
	}
	assert.Len(t, p.statuses, 2)
}

func TestMonitorWaitsForRepeatedErrors(t *testing.T) {
	m, p := newTestMonitor(-90, -1)
	m.Poll()
	for i := 0; i < errorPolls-1; i++ {
		m.Poll()
	}
	require.Len(t, p.statuses, 1, "stray errors are not published")

	m.Poll()
	require.Len(t, p.statuses, 2)
	assert.Equal(t, statuslistener.CellularStatus{Strength: -1, State: "error", Tech: "none"}, p.statuses[1])
}

func TestMonitorValidReadingResetsErrors(t *testing.T) {
	values := []int{-1, -1, -1, -1, -1, -90, -1, -1, -1, -1, -1}
	m, p := newTestMonitor(values...)
	for range values {
		m.Poll()
	}
	assert.Equal(t, []statuslistener.CellularStatus{{Strength: -90, State: "enabled", Tech: "4G"}}, p.statuses)
}

func TestMonitorRunPublishesDisabled(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	m, p := newTestMonitor(-90)
	m.Interval = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.Run(ctx)

	require.Len(t, p.statuses, 2)
	assert.Equal(t, statuslistener.CellularStatus{Strength: 0, State: "disabled", Tech: "4G"}, p.statuses[1])
}
