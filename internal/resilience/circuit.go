// Package resilience wraps calls to outside data sources, vendor feeds,
// retail pricing endpoints, and FTP drops, with retry and circuit breaker
// protection so one flaky upstream cannot stall an estimate run.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// CircuitState is the current disposition of a circuit breaker.
type CircuitState int

const (
	// CircuitClosed lets calls through; the upstream is believed healthy.
	CircuitClosed CircuitState = iota
	// CircuitOpen rejects calls outright after too many failures.
	CircuitOpen
	// CircuitHalfOpen lets a probe through to see if the upstream recovered.
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// ErrCircuitOpen is returned in place of calling the upstream while the
// circuit is open.
var ErrCircuitOpen = eris.New("circuit breaker is open")

// CircuitBreakerConfig controls when a breaker trips and how it recovers.
type CircuitBreakerConfig struct {
	// FailureThreshold is how many consecutive counted failures open the
	// circuit. Default 5.
	FailureThreshold int

	// ResetTimeout is how long the circuit stays open before a probe is
	// allowed. Default 30s.
	ResetTimeout time.Duration

	// HalfOpenMaxProbes is how many probes must succeed before the circuit
	// closes again. Default 1.
	HalfOpenMaxProbes int

	// ShouldTrip decides which errors count toward the threshold. Nil means
	// IsTransient, so a provider answering "no match" stays in rotation
	// while one timing out does not.
	ShouldTrip func(err error) bool

	// OnStateChange fires on every transition.
	OnStateChange func(from, to CircuitState)
}

// DefaultCircuitBreakerConfig returns the breaker settings used for
// pricing providers.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold:  5,
		ResetTimeout:      30 * time.Second,
		HalfOpenMaxProbes: 1,
	}
}

// CircuitBreaker tracks consecutive failures against one upstream and
// short-circuits calls once the upstream looks down.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu        sync.Mutex
	state     CircuitState
	failures  int
	lastFail  time.Time
	probeWins int

	// nowFunc is swapped in tests to drive the reset timeout.
	nowFunc func() time.Time
}

// NewCircuitBreaker builds a breaker, filling unset config fields with the
// defaults.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMaxProbes <= 0 {
		cfg.HalfOpenMaxProbes = 1
	}
	return &CircuitBreaker{cfg: cfg, state: CircuitClosed, nowFunc: time.Now}
}

// Execute runs fn unless the circuit is open, in which case it returns
// ErrCircuitOpen without calling fn. The outcome feeds the failure count.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := fn(ctx)
	cb.record(err)
	return err
}

// ExecuteVal is Execute for calls that produce a value.
func ExecuteVal[T any](ctx context.Context, cb *CircuitBreaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := cb.admit(); err != nil {
		return zero, err
	}
	val, err := fn(ctx)
	cb.record(err)
	return val, err
}

// State reports the circuit's disposition. An open circuit whose reset
// timeout has elapsed reports half-open, since the next call would be
// admitted as a probe.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == CircuitOpen && cb.nowFunc().Sub(cb.lastFail) >= cb.cfg.ResetTimeout {
		return CircuitHalfOpen
	}
	return cb.state
}

// Failures reports the current consecutive counted-failure total.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Reset forces the circuit closed and clears its counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	prev := cb.state
	cb.state = CircuitClosed
	cb.failures = 0
	cb.probeWins = 0
	if prev != CircuitClosed && cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(prev, CircuitClosed)
	}
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen {
		if cb.nowFunc().Sub(cb.lastFail) < cb.cfg.ResetTimeout {
			return ErrCircuitOpen
		}
		cb.setState(CircuitHalfOpen)
	}
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	counted := cb.cfg.ShouldTrip
	if counted == nil {
		counted = IsTransient
	}

	if err != nil && counted(err) {
		cb.failures++
		cb.lastFail = cb.nowFunc()
		switch cb.state {
		case CircuitClosed:
			if cb.failures >= cb.cfg.FailureThreshold {
				cb.setState(CircuitOpen)
			}
		case CircuitHalfOpen:
			// A failed probe sends the circuit straight back to open.
			cb.setState(CircuitOpen)
			cb.probeWins = 0
		}
		return
	}

	// Anything the trip check ignores counts as proof of life.
	switch cb.state {
	case CircuitHalfOpen:
		cb.probeWins++
		if cb.probeWins >= cb.cfg.HalfOpenMaxProbes {
			cb.setState(CircuitClosed)
			cb.failures = 0
			cb.probeWins = 0
		}
	case CircuitClosed:
		cb.failures = 0
	}
}

func (cb *CircuitBreaker) setState(to CircuitState) {
	from := cb.state
	cb.state = to
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(from, to)
	}
}

// BreakerSet hands out one circuit breaker per named source, so a single
// misbehaving feed cannot poison calls to the others.
type BreakerSet struct {
	cfg      CircuitBreakerConfig
	onChange func(name string, from, to CircuitState)

	mu  sync.RWMutex
	set map[string]*CircuitBreaker
}

// NewBreakerSet builds a registry of breakers sharing cfg. onChange, when
// non-nil, is installed on every breaker the set creates and receives the
// source name alongside the transition.
func NewBreakerSet(cfg CircuitBreakerConfig, onChange func(name string, from, to CircuitState)) *BreakerSet {
	return &BreakerSet{
		cfg:      cfg,
		onChange: onChange,
		set:      make(map[string]*CircuitBreaker),
	}
}

// Get returns the breaker for name, creating it on first use.
func (s *BreakerSet) Get(name string) *CircuitBreaker {
	s.mu.RLock()
	cb, ok := s.set[name]
	s.mu.RUnlock()
	if ok {
		return cb
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cb, ok := s.set[name]; ok {
		return cb
	}
	cfg := s.cfg
	if s.onChange != nil {
		cfg.OnStateChange = func(from, to CircuitState) { s.onChange(name, from, to) }
	}
	cb = NewCircuitBreaker(cfg)
	s.set[name] = cb
	return cb
}

// States snapshots every breaker's state keyed by source name.
func (s *BreakerSet) States() map[string]CircuitState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	states := make(map[string]CircuitState, len(s.set))
	for name, cb := range s.set {
		states[name] = cb.State()
	}
	return states
}
