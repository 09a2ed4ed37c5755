package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend down")

// clock is a manually advanced time source
type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(settings Settings) (*Breaker, *clock) {
	b := New("test", settings)
	c := &clock{t: time.Unix(1700000000, 0)}
	b.now = c.now
	return b, c
}

func fail() error    { return errBackend }
func succeed() error { return nil }

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		calls    []func() error
		advance  time.Duration
		want     State
	}{
		{
			name:  "stays closed on successes",
			calls: []func() error{succeed, succeed, succeed},
			want:  StateClosed,
		},
		{
			name:     "opens after consecutive failures",
			settings: Settings{Failures: 3},
			calls:    []func() error{fail, fail, fail},
			want:     StateOpen,
		},
		{
			name:     "success resets the streak",
			settings: Settings{Failures: 3},
			calls:    []func() error{fail, fail, succeed, fail, fail},
			want:     StateClosed,
		},
		{
			name:     "half-open after cooldown",
			settings: Settings{Failures: 2, Cooldown: time.Second},
			calls:    []func() error{fail, fail},
			advance:  time.Second,
			want:     StateHalfOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, c := newTestBreaker(tt.settings)
			for _, call := range tt.calls {
				_ = b.Do(call)
			}
			c.advance(tt.advance)
			assert.Equal(t, tt.want, b.State())
		})
	}
}

func TestOpenBreakerRejects(t *testing.T) {
	b, _ := newTestBreaker(Settings{Failures: 1})
	require.ErrorIs(t, b.Do(fail), errBackend)

	called := false
	err := b.Do(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestHalfOpenProbes(t *testing.T) {
	t.Run("successful probes close", func(t *testing.T) {
		b, c := newTestBreaker(Settings{Failures: 1, Cooldown: time.Second, Probes: 2})
		_ = b.Do(fail)
		c.advance(time.Second)

		require.NoError(t, b.Do(succeed))
		assert.Equal(t, StateHalfOpen, b.State())
		require.NoError(t, b.Do(succeed))
		assert.Equal(t, StateClosed, b.State())
	})

	t.Run("failed probe reopens", func(t *testing.T) {
		b, c := newTestBreaker(Settings{Failures: 1, Cooldown: time.Second, Probes: 2})
		_ = b.Do(fail)
		c.advance(time.Second)

		require.ErrorIs(t, b.Do(fail), errBackend)
		assert.Equal(t, StateOpen, b.State())
	})

	t.Run("probe limit", func(t *testing.T) {
		b, c := newTestBreaker(Settings{Failures: 1, Cooldown: time.Second})
		_ = b.Do(fail)
		c.advance(time.Second)

		blocked := make(chan struct{})
		done := make(chan error)
		go func() {
			done <- b.Do(func() error { <-blocked; return nil })
		}()
		require.Eventually(t, func() bool { return b.Counts().Requests == 1 }, time.Second, time.Millisecond)

		assert.ErrorIs(t, b.Do(succeed), ErrTooManyRequests)
		close(blocked)
		assert.NoError(t, <-done)
	})
}

func TestIsFailureFiltersErrors(t *testing.T) {
	errMissing := errors.New("missing")
	b, _ := newTestBreaker(Settings{
		Failures:  1,
		IsFailure: func(err error) bool { return err != nil && !errors.Is(err, errMissing) },
	})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Do(func() error { return errMissing }), errMissing)
	}
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, uint32(3), b.Counts().Successes)
}

func TestCall(t *testing.T) {
	b, _ := newTestBreaker(Settings{Failures: 1})

	v, err := Call(b, func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)

	_, err = Call(b, func() (int, error) { return 0, errBackend })
	assert.ErrorIs(t, err, errBackend)

	_, err = Call(b, func() (int, error) { return 1, nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestPanicCountsAsFailure(t *testing.T) {
	b, _ := newTestBreaker(Settings{Failures: 1})

	assert.Panics(t, func() { _ = b.Do(func() error { panic("boom") }) })
	assert.Equal(t, StateOpen, b.State())
}

func TestStateChangeCallback(t *testing.T) {
	var transitions []string
	b, c := newTestBreaker(Settings{
		Failures: 1,
		Cooldown: time.Second,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
	})

	_ = b.Do(fail)
	c.advance(time.Second)
	_ = b.Do(succeed)

	assert.Equal(t, []string{
		"test:closed->open",
		"test:open->half-open",
		"test:half-open->closed",
	}, transitions)
}
