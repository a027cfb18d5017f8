package diskspace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailableGB(t *testing.T) {
	gb, err := AvailableGB(t.TempDir())
	require.NoError(t, err)
	assert.Greater(t, gb, 0.0)
}

func TestAvailableGBMissingPath(t *testing.T) {
	_, err := AvailableGB("/nonexistent/gazekit/path")
	assert.Error(t, err)
}

func TestMonitorRateLimit(t *testing.T) {
	clock := time.Unix(1000, 0)
	m := NewMonitor(time.Second)
	m.now = func() time.Time { return clock }

	assert.True(t, m.ShouldCheck())
	assert.False(t, m.ShouldCheck())

	clock = clock.Add(500 * time.Millisecond)
	assert.False(t, m.ShouldCheck())

	clock = clock.Add(500 * time.Millisecond)
	assert.True(t, m.ShouldCheck())
	assert.False(t, m.ShouldCheck())
}

func TestMonitorMinimumInterval(t *testing.T) {
	m := NewMonitor(10 * time.Millisecond)
	assert.Equal(t, time.Second, m.interval)
}
