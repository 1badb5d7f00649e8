// Package circuitbreaker guards the datastore behind the cache layers. When
// the store starts failing the breaker opens and cache lookups degrade to
// pass-through misses instead of piling timeouts onto every request.
//
// Two implementations share one state machine: a Redis-backed breaker whose
// state is shared across replicas, and a local in-memory breaker used when no
// Redis is configured.
package circuitbreaker

import (
	"fmt"
	"sync"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Open:
		return "Open"
	case HalfOpen:
		return "HalfOpen"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Breaker is the contract the cache layers program against.
type Breaker interface {
	// CanExecute reports whether a protected call may proceed right now.
	CanExecute() bool
	// RecordSuccess feeds a successful protected call into the state machine.
	RecordSuccess()
	// RecordFailure feeds a failed protected call into the state machine.
	RecordFailure()
	// GetState returns the current breaker state.
	GetState() State
	// Reset forces the breaker back to Closed with zeroed counters.
	Reset()
}

type Config struct {
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
}

// DefaultConfig matches the tolerances used for datastore protection: five
// consecutive failures open the circuit, three successes in HalfOpen close it.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 3,
		Timeout:          30 * time.Second,
	}
}

// New picks the implementation for the deployment: Redis-backed shared state
// when a client is available, otherwise process-local state.
func New(redisClient *redis.Client, serviceName string) Breaker {
	if redisClient != nil {
		return NewRedis(redisClient, serviceName, DefaultConfig())
	}
	return NewLocal(serviceName, DefaultConfig())
}

// LocalBreaker keeps breaker state in process memory. Each replica trips
// independently, which is the right behavior when there is no shared Redis.
type LocalBreaker struct {
	serviceName string
	config      Config

	mu              sync.Mutex
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time
}

func NewLocal(serviceName string, config Config) *LocalBreaker {
	return &LocalBreaker{
		serviceName: serviceName,
		config:      config,
		state:       Closed,
	}
}

func (b *LocalBreaker) CanExecute() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed, HalfOpen:
		return true
	case Open:
		if time.Since(b.lastFailureTime) > b.config.Timeout {
			b.state = HalfOpen
			b.successCount = 0
			fiberlog.Debugf("CircuitBreaker: %s transitioned to HalfOpen", b.serviceName)
			return true
		}
		return false
	default:
		return false
	}
}

func (b *LocalBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount = 0
	if b.state == HalfOpen {
		b.successCount++
		if b.successCount >= b.config.SuccessThreshold {
			b.state = Closed
			b.successCount = 0
			fiberlog.Infof("CircuitBreaker: %s transitioned to Closed after recovery", b.serviceName)
		}
	}
}

func (b *LocalBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	b.lastFailureTime = time.Now()

	if b.state == HalfOpen || (b.state == Closed && b.failureCount >= b.config.FailureThreshold) {
		b.state = Open
		b.successCount = 0
		fiberlog.Warnf("CircuitBreaker: %s transitioned to Open after failure", b.serviceName)
	}
}

func (b *LocalBreaker) GetState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *LocalBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.failureCount = 0
	b.successCount = 0
	fiberlog.Infof("CircuitBreaker: Reset circuit breaker for service %s", b.serviceName)
}
