package transport

import (
	"context"
	cryptorand "crypto/rand"
	"math/big"
	"time"

	shiperrors "github.com/logship/logship-go/pkg/errors"
	"github.com/logship/logship-go/pkg/logging"
)

// Backoff bounds for the reconnect policy
const (
	ReconnectMinDelay = 100 * time.Millisecond
	ReconnectMaxDelay = 10 * time.Second
)

// ReconnectPolicy drives repeated connect attempts with randomized
// exponential backoff until one succeeds or the context is cancelled.
// Backoff state is scoped to a single Reopen call: every invocation
// starts over at the minimum delay.
type ReconnectPolicy struct {
	minDelay time.Duration
	maxDelay time.Duration
	logger   logging.Logger

	// injectable for tests
	rand        func() (float64, error)
	sleep       func(ctx context.Context, d time.Duration) error
	onReconnect func()
}

// NewReconnectPolicy creates a policy with the production backoff bounds
func NewReconnectPolicy(logger logging.Logger) *ReconnectPolicy {
	if logger == nil {
		logger = logging.NopLogger()
	}

	return &ReconnectPolicy{
		minDelay: ReconnectMinDelay,
		maxDelay: ReconnectMaxDelay,
		logger:   logger.WithFields(logging.String("component", "reconnect")),
		rand:     secureRandFloat64,
		sleep:    sleepContext,
	}
}

// SetReconnectHook registers a hook invoked once per successful
// reconnect, after the connection is established
func (p *ReconnectPolicy) SetReconnectHook(hook func()) {
	p.onReconnect = hook
}

// Reopen closes any half-open connection and retries Connect until it
// succeeds or the context is cancelled. It returns nil on success, a
// cancellation error when Stop fired, and a fatal error unmodified.
func (p *ReconnectPolicy) Reopen(ctx context.Context, conn *Conn) error {
	delay := p.minDelay

	for attempt := 1; ; attempt++ {
		if err := conn.Close(); err != nil {
			// Close only propagates fatal classifications.
			return err
		}

		if ctx.Err() != nil {
			return shiperrors.Cancelled("reconnect")
		}

		err := conn.Connect(ctx)
		if err == nil {
			if p.onReconnect != nil {
				p.onReconnect()
			}
			return nil
		}
		if shiperrors.IsFatal(err) {
			return err
		}
		if ctx.Err() != nil {
			return shiperrors.Cancelled("reconnect")
		}

		p.logger.Warn("connect attempt failed",
			logging.Int("attempt", attempt),
			logging.Duration("backoff", delay),
			logging.ErrorField(err),
		)

		if err := p.sleep(ctx, p.jitteredDelay(delay)); err != nil {
			return shiperrors.Cancelled("reconnect")
		}

		delay = nextDelay(delay, p.maxDelay)
	}
}

// jitteredDelay returns a sleep duration in [delay, 2*delay)
func (p *ReconnectPolicy) jitteredDelay(delay time.Duration) time.Duration {
	f, err := p.rand()
	if err != nil {
		// Random source failure degrades to plain exponential backoff.
		return delay
	}
	return delay + time.Duration(f*float64(delay))
}

// nextDelay doubles the backoff delay, capped at max
func nextDelay(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}

// sleepContext sleeps for d or until the context is cancelled
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// secureRandFloat64 generates a cryptographically secure random float64
// in [0, 1)
func secureRandFloat64() (float64, error) {
	max := big.NewInt(1 << 53)
	n, err := cryptorand.Int(cryptorand.Reader, max)
	if err != nil {
		return 0, err
	}
	return float64(n.Int64()) / float64(1<<53), nil
}
