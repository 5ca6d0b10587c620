package fallback

import (
	"errors"
	"sync"
	"time"

	"github.com/Domenick1991/matchtickets/internal/clock"
	"github.com/Domenick1991/matchtickets/internal/metrics"
)

var ErrBreakerOpen = errors.New("remote api circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	}
	return "unknown"
}

type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

type BreakerSettings struct {
	// MinRequests is how many calls a window needs before it can trip.
	MinRequests  uint32
	FailureRatio float64
	// Interval resets the closed-state counts; OpenFor is how long the
	// breaker stays open before letting HalfOpenProbes calls through.
	Interval       time.Duration
	OpenFor        time.Duration
	HalfOpenProbes uint32
}

// Breaker stops calling the remote API for a while after it keeps failing,
// so operations go straight to the local store.
type Breaker struct {
	name     string
	settings BreakerSettings
	clock    clock.Clock

	mu         sync.Mutex
	state      State
	generation uint64
	counts     Counts
	expiry     time.Time
}

func NewBreaker(name string, settings BreakerSettings, clk clock.Clock) *Breaker {
	if settings.HalfOpenProbes == 0 {
		settings.HalfOpenProbes = 1
	}
	if clk == nil {
		clk = clock.Real()
	}
	b := &Breaker{name: name, settings: settings, clock: clk}
	b.toNewGeneration(clk.Now())
	return b
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, _ := b.currentState(b.clock.Now())
	return state
}

func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Execute runs fn unless the breaker is open. isFailure decides which errors
// count against the remote API; nil counts every error.
func (b *Breaker) Execute(fn func() error, isFailure func(error) bool) error {
	generation, err := b.beforeRequest()
	if err != nil {
		return err
	}

	defer func() {
		if e := recover(); e != nil {
			b.afterRequest(generation, false)
			panic(e)
		}
	}()

	err = fn()
	failed := err != nil && (isFailure == nil || isFailure(err))
	b.afterRequest(generation, !failed)
	return err
}

func (b *Breaker) beforeRequest() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, generation := b.currentState(b.clock.Now())
	if state == StateOpen {
		return generation, ErrBreakerOpen
	}
	if state == StateHalfOpen && b.counts.Requests >= b.settings.HalfOpenProbes {
		return generation, ErrBreakerOpen
	}

	b.counts.Requests++
	return generation, nil
}

func (b *Breaker) afterRequest(before uint64, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock.Now()
	state, generation := b.currentState(now)
	if generation != before {
		return
	}
	if success {
		b.onSuccess(state, now)
	} else {
		b.onFailure(state, now)
	}
}

func (b *Breaker) onSuccess(state State, now time.Time) {
	b.counts.TotalSuccesses++
	b.counts.ConsecutiveSuccesses++
	b.counts.ConsecutiveFailures = 0

	if state == StateHalfOpen {
		b.setState(StateClosed, now)
	}
}

func (b *Breaker) onFailure(state State, now time.Time) {
	b.counts.TotalFailures++
	b.counts.ConsecutiveFailures++
	b.counts.ConsecutiveSuccesses = 0

	switch state {
	case StateHalfOpen:
		b.setState(StateOpen, now)
	case StateClosed:
		if b.readyToTrip() {
			b.setState(StateOpen, now)
		}
	}
}

func (b *Breaker) readyToTrip() bool {
	return b.counts.Requests >= b.settings.MinRequests &&
		float64(b.counts.TotalFailures)/float64(b.counts.Requests) >= b.settings.FailureRatio
}

func (b *Breaker) currentState(now time.Time) (State, uint64) {
	switch b.state {
	case StateClosed:
		if !b.expiry.IsZero() && b.expiry.Before(now) {
			b.toNewGeneration(now)
		}
	case StateOpen:
		if b.expiry.Before(now) {
			b.setState(StateHalfOpen, now)
		}
	}
	return b.state, b.generation
}

func (b *Breaker) setState(state State, now time.Time) {
	if b.state == state {
		return
	}
	b.state = state
	metrics.BreakerState.WithLabelValues(b.name).Set(float64(state))
	b.toNewGeneration(now)
}

func (b *Breaker) toNewGeneration(now time.Time) {
	b.generation++
	b.counts = Counts{}

	switch b.state {
	case StateClosed:
		if b.settings.Interval > 0 {
			b.expiry = now.Add(b.settings.Interval)
		} else {
			b.expiry = time.Time{}
		}
	case StateOpen:
		b.expiry = now.Add(b.settings.OpenFor)
	default:
		b.expiry = time.Time{}
	}
}
