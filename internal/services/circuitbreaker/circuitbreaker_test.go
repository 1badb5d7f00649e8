package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testConfig() Config {
	return Config{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          20 * time.Millisecond,
	}
}

func TestLocalBreakerOpensAfterFailureThreshold(t *testing.T) {
	b := NewLocal("test", testConfig())

	assert.Equal(t, Closed, b.GetState())
	assert.True(t, b.CanExecute())

	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, Closed, b.GetState(), "below threshold stays closed")

	b.RecordFailure()
	assert.Equal(t, Open, b.GetState())
	assert.False(t, b.CanExecute())
}

func TestLocalBreakerSuccessResetsFailureCount(t *testing.T) {
	b := NewLocal("test", testConfig())

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()

	assert.Equal(t, Closed, b.GetState(), "failures must be consecutive to trip")
}

func TestLocalBreakerRecoversThroughHalfOpen(t *testing.T) {
	b := NewLocal("test", testConfig())

	for range 3 {
		b.RecordFailure()
	}
	assert.Equal(t, Open, b.GetState())

	time.Sleep(30 * time.Millisecond)
	assert.True(t, b.CanExecute(), "elapsed timeout allows a probe")
	assert.Equal(t, HalfOpen, b.GetState())

	b.RecordSuccess()
	assert.Equal(t, HalfOpen, b.GetState())
	b.RecordSuccess()
	assert.Equal(t, Closed, b.GetState())
}

func TestLocalBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewLocal("test", testConfig())

	for range 3 {
		b.RecordFailure()
	}
	time.Sleep(30 * time.Millisecond)
	assert.True(t, b.CanExecute())

	b.RecordFailure()
	assert.Equal(t, Open, b.GetState(), "a failed probe reopens immediately")
}

func TestLocalBreakerReset(t *testing.T) {
	b := NewLocal("test", testConfig())

	for range 3 {
		b.RecordFailure()
	}
	b.Reset()

	assert.Equal(t, Closed, b.GetState())
	assert.True(t, b.CanExecute())
}

func TestNewPicksLocalWithoutRedis(t *testing.T) {
	b := New(nil, "test")
	_, ok := b.(*LocalBreaker)
	assert.True(t, ok)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Closed", Closed.String())
	assert.Equal(t, "Open", Open.String())
	assert.Equal(t, "HalfOpen", HalfOpen.String())
}
