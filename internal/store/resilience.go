package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// BackoffConfig controls exponential backoff behaviour between query attempts.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

var (
	// ErrCircuitOpen is returned while the breaker rejects queries after repeated failures.
	ErrCircuitOpen = errors.New("circuit breaker open")

	errInvalidConfig = errors.New("invalid backoff configuration")
)

// guard runs store operations with a per-attempt timeout, retries with
// exponential backoff, and a circuit breaker shared by every operation.
type guard struct {
	circuit *gobreaker.CircuitBreaker
	backoff BackoffConfig
	timeout time.Duration
}

func newGuard(name string, backoff BackoffConfig, timeout time.Duration, tripAfter uint32) *guard {
	if tripAfter == 0 {
		tripAfter = 5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		// Only connectivity failures count against the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || !isTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("store circuit breaker state changed")
		},
	})

	return &guard{
		circuit: cb,
		backoff: backoff,
		timeout: timeout,
	}
}

// isTransient reports whether err is a connectivity or timeout failure that
// may succeed on another attempt.
func isTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return pgconn.SafeToRetry(err) || pgconn.Timeout(err)
}

// do executes fn with the guard's per-attempt timeout.
func (g *guard) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return g.run(ctx, op, g.timeout, fn)
}

// run executes fn until it succeeds, fails permanently, the retry budget is
// spent, the breaker opens, or ctx is done. Each attempt gets its own timeout.
func (g *guard) run(ctx context.Context, op string, timeout time.Duration, fn func(ctx context.Context) error) error {
	if g.backoff.MaxRetries < 0 || g.backoff.InitialInterval <= 0 {
		return errInvalidConfig
	}

	var attempt int
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		_, err := g.circuit.Execute(func() (interface{}, error) {
			attemptCtx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				attemptCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			return nil, fn(attemptCtx)
		})
		if err == nil {
			return nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}

		// Cancellation and permanent failures are never retried.
		if ctx.Err() != nil || !isTransient(err) {
			return err
		}

		if attempt >= g.backoff.MaxRetries {
			return err
		}

		delay := g.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > g.backoff.MaxInterval && g.backoff.MaxInterval > 0 {
			delay = g.backoff.MaxInterval
		}

		log.Debug().
			Err(err).
			Str("op", op).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("store operation failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}
