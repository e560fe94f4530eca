package infra

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// CircuitBreaker guards SMTP delivery of sale receipts. After
// FailureThreshold consecutive failures it rejects calls for OpenTimeout,
// then lets probes through; SuccessThreshold probe successes close it again
// and any probe failure reopens it.
type CircuitBreaker struct {
	name string
	cfg  CircuitBreakerConfig
	now  func() time.Time

	mu        sync.Mutex
	state     CBState
	failures  int
	successes int
	openedAt  time.Time
}

type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	}
	return "unknown"
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitBreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	OpenTimeout      time.Duration
	// OnStateChange runs under the breaker lock; keep it cheap.
	OnStateChange func(name string, to CBState)
}

// DefaultCBConfig: 5 failures to trip, 60s cool-down, 2 probes to recover.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{FailureThreshold: 5, SuccessThreshold: 2, OpenTimeout: time.Minute}
}

func NewCircuitBreaker(name string, cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCBConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	return &CircuitBreaker{name: name, cfg: cfg, now: time.Now}
}

func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.expireLocked()
	return cb.state
}

// Execute runs fn unless the breaker is open. fn runs outside the lock, so
// several probes may be in flight while half-open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if cb.State() == CBOpen {
		return ErrCircuitOpen
	}
	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.failedLocked()
		return err
	}
	cb.succeededLocked()
	return nil
}

func (cb *CircuitBreaker) expireLocked() {
	if cb.state == CBOpen && cb.now().Sub(cb.openedAt) >= cb.cfg.OpenTimeout {
		cb.setLocked(CBHalfOpen)
	}
}

func (cb *CircuitBreaker) failedLocked() {
	cb.failures++
	if cb.state == CBHalfOpen || cb.failures >= cb.cfg.FailureThreshold {
		cb.openedAt = cb.now()
		cb.setLocked(CBOpen)
	}
}

func (cb *CircuitBreaker) succeededLocked() {
	if cb.state != CBHalfOpen {
		cb.failures = 0
		return
	}
	cb.successes++
	if cb.successes >= cb.cfg.SuccessThreshold {
		cb.setLocked(CBClosed)
	}
}

func (cb *CircuitBreaker) setLocked(to CBState) {
	if cb.state == to {
		return
	}
	log.Warn().Str("breaker", cb.name).Str("from", cb.state.String()).Str("to", to.String()).Msg("circuit breaker state change")
	cb.state = to
	cb.failures, cb.successes = 0, 0
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.name, to)
	}
}
