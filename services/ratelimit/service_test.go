package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(cfg Config) (*Service, *time.Time) {
	svc := NewService(cfg, zap.NewNop())
	current := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return current }
	return svc, &current
}

func TestCheckAllowsWithinLimit(t *testing.T) {
	svc, _ := newTestService(Config{RequestsPerMinute: 3, MaxClients: 100})

	for i := 0; i < 3; i++ {
		res := svc.Check("10.0.0.1")
		assert.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.RequestsRemaining)
	}
}

func TestCheckRejectsOverLimit(t *testing.T) {
	svc, _ := newTestService(Config{RequestsPerMinute: 2, MaxClients: 100})

	svc.Check("10.0.0.1")
	svc.Check("10.0.0.1")

	res := svc.Check("10.0.0.1")
	assert.False(t, res.Allowed)
	assert.Zero(t, res.RequestsRemaining)
	assert.False(t, res.ResetAt.IsZero())
}

func TestCheckWindowSlides(t *testing.T) {
	svc, current := newTestService(Config{RequestsPerMinute: 2, MaxClients: 100})

	svc.Check("10.0.0.1")
	svc.Check("10.0.0.1")
	require.False(t, svc.Check("10.0.0.1").Allowed)

	*current = current.Add(61 * time.Second)
	assert.True(t, svc.Check("10.0.0.1").Allowed)
}

func TestCheckIsolatesClients(t *testing.T) {
	svc, _ := newTestService(Config{RequestsPerMinute: 1, MaxClients: 100})

	require.True(t, svc.Check("10.0.0.1").Allowed)
	require.False(t, svc.Check("10.0.0.1").Allowed)
	assert.True(t, svc.Check("10.0.0.2").Allowed)
}

func TestCheckDisabledWhenZeroLimit(t *testing.T) {
	svc, _ := newTestService(Config{RequestsPerMinute: 0, MaxClients: 100})

	for i := 0; i < 100; i++ {
		assert.True(t, svc.Check("10.0.0.1").Allowed)
	}
	assert.Zero(t, svc.ClientCount())
}

func TestEvictStaleClients(t *testing.T) {
	svc, current := newTestService(Config{RequestsPerMinute: 5, MaxClients: 2})

	svc.Check("10.0.0.1")
	svc.Check("10.0.0.2")
	require.Equal(t, 2, svc.ClientCount())

	*current = current.Add(2 * time.Minute)
	assert.True(t, svc.Check("10.0.0.3").Allowed)
	assert.Equal(t, 1, svc.ClientCount())
}

func TestFullTableRejectsNewClients(t *testing.T) {
	svc, _ := newTestService(Config{RequestsPerMinute: 5, MaxClients: 2})

	svc.Check("10.0.0.1")
	svc.Check("10.0.0.2")

	res := svc.Check("10.0.0.3")
	assert.False(t, res.Allowed)
}
