// Package circuit provides a small circuit breaker for calls to remote brokers.
package circuit

import (
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota
	// StateOpen rejects calls until the cool-down elapses.
	StateOpen
	// StateHalfOpen lets probe calls through after the cool-down.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Breaker opens after FailureThreshold consecutive failures. Once open it
// rejects calls for the cool-down, then admits at most SuccessThreshold
// concurrent probes; SuccessThreshold consecutive probe successes close it
// and any probe failure reopens it.
type Breaker struct {
	mu               sync.Mutex
	name             string
	state            State
	failureCount     int
	successCount     int
	inFlight         int
	openedAt         time.Time
	failureThreshold int
	successThreshold int
	coolDown         time.Duration
	now              func() time.Time
	onChange         func(name string, from, to State)
}

// Option configures a Breaker instance.
type Option func(*Breaker)

// WithFailureThreshold sets the consecutive failures that open the circuit. Default 5.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets the consecutive probe successes that close the circuit. Default 2.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

// WithCoolDown sets how long an open circuit rejects calls. Default 10s.
func WithCoolDown(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.coolDown = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

// WithOnStateChange registers a callback invoked, outside the lock, on every transition.
func WithOnStateChange(fn func(name string, from, to State)) Option {
	return func(b *Breaker) { b.onChange = fn }
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		state:            StateClosed,
		failureThreshold: 5,
		successThreshold: 2,
		coolDown:         10 * time.Second,
		now:              time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *Breaker) Name() string {
	return b.name
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow reports whether a call may proceed, moving an expired open circuit to
// half-open. Every call it admits while half-open must be followed by Record
// or Release.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	switch b.state {
	case StateClosed:
		b.mu.Unlock()
		return true
	case StateHalfOpen:
		ok := b.inFlight < b.successThreshold
		if ok {
			b.inFlight++
		}
		b.mu.Unlock()
		return ok
	}
	if b.now().Sub(b.openedAt) < b.coolDown {
		b.mu.Unlock()
		return false
	}
	from := b.transition(StateHalfOpen)
	b.inFlight = 1
	b.mu.Unlock()
	b.notify(from, StateHalfOpen)
	return true
}

// Release returns the probe slot of an allowed call whose outcome says
// nothing about the remote, such as one cancelled by its caller.
func (b *Breaker) Release() {
	b.mu.Lock()
	b.release()
	b.mu.Unlock()
}

// Record feeds the outcome of an allowed call back into the breaker.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	b.release()
	from, to := b.state, b.state
	if err != nil {
		b.successCount = 0
		b.failureCount++
		if b.state == StateHalfOpen || (b.state == StateClosed && b.failureCount >= b.failureThreshold) {
			to = StateOpen
			b.openedAt = b.now()
		}
	} else {
		b.failureCount = 0
		if b.state == StateHalfOpen {
			b.successCount++
			if b.successCount >= b.successThreshold {
				to = StateClosed
			}
		}
	}
	if to != from {
		b.transition(to)
	}
	b.mu.Unlock()
	if to != from {
		b.notify(from, to)
	}
}

// release must be called with mu held.
func (b *Breaker) release() {
	if b.state == StateHalfOpen && b.inFlight > 0 {
		b.inFlight--
	}
}

// transition must be called with mu held.
func (b *Breaker) transition(to State) State {
	from := b.state
	b.state = to
	b.successCount = 0
	b.inFlight = 0
	if to == StateClosed {
		b.failureCount = 0
	}
	return from
}

func (b *Breaker) notify(from, to State) {
	if b.onChange != nil {
		b.onChange(b.name, from, to)
	}
}
