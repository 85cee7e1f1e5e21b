package clients

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move a breaker past its open timeout.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(maxFailures, halfOpenLimit int) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:   maxFailures,
		Timeout:       100 * time.Millisecond,
		HalfOpenLimit: halfOpenLimit,
	})
	cb.now = clock.now

	return cb, clock
}

func TestCircuitBreaker_StartsClosed(t *testing.T) {
	cb, _ := newTestBreaker(5, 3)

	assert.Equal(t, StateClosed, cb.State())
	assert.True(t, cb.Allow())
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb, _ := newTestBreaker(3, 2)

	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, StateClosed, cb.State())

	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, StateClosed, cb.State(), "success resets the failure count")

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb, clock := newTestBreaker(1, 2)

	cb.RecordFailure()
	require.False(t, cb.Allow())

	clock.advance(150 * time.Millisecond)

	require.True(t, cb.Allow())
	assert.Equal(t, StateHalfOpen, cb.State())

	cb.RecordSuccess()
	assert.Equal(t, StateHalfOpen, cb.State())

	require.True(t, cb.Allow())
	cb.RecordSuccess()
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(1, 2)

	cb.RecordFailure()
	clock.advance(150 * time.Millisecond)
	require.True(t, cb.Allow())

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreaker_HalfOpenLimitsProbes(t *testing.T) {
	cb, clock := newTestBreaker(1, 2)

	cb.RecordFailure()
	clock.advance(150 * time.Millisecond)

	assert.True(t, cb.Allow())
	assert.True(t, cb.Allow())
	assert.False(t, cb.Allow(), "third concurrent probe is refused")
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	cb, _ := newTestBreaker(1, 1)

	changes := make(chan [2]State, 1)
	cb.OnStateChange(func(from, to State) { changes <- [2]State{from, to} })

	cb.RecordFailure()

	select {
	case got := <-changes:
		assert.Equal(t, [2]State{StateClosed, StateOpen}, got)
	case <-time.After(time.Second):
		t.Fatal("state change callback not called")
	}
}

func TestCircuitBreaker_Concurrent(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 100, Timeout: time.Second, HalfOpenLimit: 10})

	var wg sync.WaitGroup

	for i := range 1000 {
		wg.Go(func() {
			if !cb.Allow() {
				return
			}

			if i%2 == 0 {
				cb.RecordSuccess()
			} else {
				cb.RecordFailure()
			}
		})
	}

	wg.Wait()

	assert.Contains(t, []State{StateClosed, StateOpen, StateHalfOpen}, cb.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(99).String())
}

func TestCircuitBreaker_CanceledReleasesProbe(t *testing.T) {
	cb, clock := newTestBreaker(1, 1)

	cb.RecordFailure()
	clock.advance(150 * time.Millisecond)

	require.True(t, cb.Allow())
	require.False(t, cb.Allow())

	cb.RecordCanceled()

	assert.Equal(t, StateHalfOpen, cb.State())
	assert.True(t, cb.Allow())
}

func TestCircuitBreaker_CanceledKeepsFailureCount(t *testing.T) {
	cb, _ := newTestBreaker(2, 1)

	cb.RecordFailure()
	cb.RecordCanceled()
	cb.RecordFailure()

	assert.Equal(t, StateOpen, cb.State())
}
