package stats

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkTwiceKeepsFirstTimestamp(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)
	u := &UptimeMarker{Path: filepath.Join(t.TempDir(), "uptime"), Now: func() time.Time { return now }}

	require.NoError(t, u.Mark())
	first, err := os.ReadFile(u.Path)
	require.NoError(t, err)
	assert.Equal(t, "2024/01/02 03:04:05", string(first))

	now = now.Add(time.Hour)
	require.NoError(t, u.Mark())
	second, err := os.ReadFile(u.Path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestClearWithoutMarker(t *testing.T) {
	u := NewUptimeMarker(filepath.Join(t.TempDir(), "uptime"))
	assert.NotPanics(t, u.Clear)
	u.Clear()
	assert.Equal(t, 0.0, u.Hours())
}

func TestHours(t *testing.T) {
	start := time.Date(2024, 1, 2, 3, 0, 0, 0, time.Local)
	now := start.Add(2*time.Hour + 30*time.Minute)
	u := &UptimeMarker{Path: filepath.Join(t.TempDir(), "uptime"), Now: func() time.Time { return start }}
	require.NoError(t, u.Mark())

	u.Now = func() time.Time { return now }
	assert.InDelta(t, 2.30, u.Hours(), 0.001)
}

func TestHoursCorruptMarker(t *testing.T) {
	u := NewUptimeMarker(filepath.Join(t.TempDir(), "uptime"))
	require.NoError(t, os.WriteFile(u.Path, []byte("yesterday"), 0644))
	assert.Equal(t, -1.0, u.Hours())
}

func TestFailureCounter(t *testing.T) {
	c := FailureCounter{Path: filepath.Join(t.TempDir(), "counter")}
	assert.Equal(t, 0, c.Get())
	require.NoError(t, c.Increment())
	require.NoError(t, c.Increment())
	assert.Equal(t, 2, c.Get())

	require.NoError(t, os.WriteFile(c.Path, []byte("garbage"), 0644))
	assert.Equal(t, 0, c.Get())
}
