package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"
)

var fastBackoff = BackoffConfig{
	MaxRetries:      2,
	InitialInterval: time.Millisecond,
	MaxInterval:     2 * time.Millisecond,
}

func TestGuardRetriesUntilBudgetSpent(t *testing.T) {
	g := newGuard("test-retry", fastBackoff, 0, 10)
	boom := fmt.Errorf("query: %w", driver.ErrBadConn)

	attempts := 0
	err := g.do(context.Background(), "select", func(context.Context) error {
		attempts++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	if attempts != fastBackoff.MaxRetries+1 {
		t.Fatalf("expected %d attempts, got %d", fastBackoff.MaxRetries+1, attempts)
	}
}

func TestGuardRecoversOnRetry(t *testing.T) {
	g := newGuard("test-recover", fastBackoff, 0, 10)

	attempts := 0
	err := g.do(context.Background(), "select", func(context.Context) error {
		attempts++
		if attempts == 1 {
			return &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset by peer")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestGuardDoesNotRetryCancellation(t *testing.T) {
	g := newGuard("test-cancel", fastBackoff, 0, 10)

	attempts := 0
	err := g.do(context.Background(), "select", func(context.Context) error {
		attempts++
		return context.Canceled
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestGuardOpensCircuit(t *testing.T) {
	g := newGuard("test-open", BackoffConfig{MaxRetries: 0, InitialInterval: time.Millisecond}, 0, 2)
	fail := func(context.Context) error { return driver.ErrBadConn }

	for i := 0; i < 2; i++ {
		if err := g.do(context.Background(), "select", fail); err == nil {
			t.Fatal("expected failure")
		}
	}

	called := false
	err := g.do(context.Background(), "select", func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Fatal("operation ran while the circuit was open")
	}
}

func TestGuardDoesNotRetryPermanentErrors(t *testing.T) {
	g := newGuard("test-permanent", fastBackoff, 0, 10)
	missing := errors.New("SQL logic error: no such table: energy_usage")

	attempts := 0
	err := g.do(context.Background(), "select", func(context.Context) error {
		attempts++
		return missing
	})
	if !errors.Is(err, missing) {
		t.Fatalf("expected %v, got %v", missing, err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestGuardPermanentErrorsDoNotOpenCircuit(t *testing.T) {
	g := newGuard("test-permanent-breaker", fastBackoff, 0, 2)
	syntax := func(context.Context) error { return errors.New("syntax error at or near \"SELEC\"") }

	for i := 0; i < 5; i++ {
		if err := g.do(context.Background(), "select", syntax); errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("circuit opened after %d permanent failures", i)
		}
	}

	if err := g.do(context.Background(), "select", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("expected healthy query to succeed, got %v", err)
	}
}

func TestGuardCircuitOpenErrorOmitsOp(t *testing.T) {
	g := newGuard("test-open-message", BackoffConfig{MaxRetries: 0, InitialInterval: time.Millisecond}, 0, 1)
	_ = g.do(context.Background(), "country energy", func(context.Context) error { return driver.ErrBadConn })

	err := g.do(context.Background(), "country energy", func(context.Context) error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if strings.Contains(err.Error(), "country energy") {
		t.Fatalf("guard should leave the op prefix to its caller, got %q", err.Error())
	}
}

func TestIsTransient(t *testing.T) {
	transient := []error{
		driver.ErrBadConn,
		fmt.Errorf("select: %w", context.DeadlineExceeded),
		&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
	}
	for _, err := range transient {
		if !isTransient(err) {
			t.Errorf("expected %v to be transient", err)
		}
	}

	permanent := []error{
		context.Canceled,
		errors.New("UNIQUE constraint failed: energy_usage.city_id"),
	}
	for _, err := range permanent {
		if isTransient(err) {
			t.Errorf("expected %v to be permanent", err)
		}
	}
}

func TestGuardAppliesAttemptTimeout(t *testing.T) {
	g := newGuard("test-timeout", BackoffConfig{MaxRetries: 0, InitialInterval: time.Millisecond}, 5*time.Millisecond, 10)

	err := g.do(context.Background(), "select", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestGuardRejectsInvalidBackoff(t *testing.T) {
	g := newGuard("test-invalid", BackoffConfig{MaxRetries: 1}, 0, 10)

	if err := g.do(context.Background(), "select", func(context.Context) error { return nil }); !errors.Is(err, errInvalidConfig) {
		t.Fatalf("expected errInvalidConfig, got %v", err)
	}
}
