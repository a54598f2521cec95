package circuitbreaker_test

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/fd1az/xrpl-liquidity/internal/apperror"
	"github.com/fd1az/xrpl-liquidity/internal/circuitbreaker"
)

func TestCircuitBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	cfg := circuitbreaker.DefaultConfig("xrpl-rpc")
	cfg.ConsecutiveFailures = 3
	cfg.Timeout = time.Hour

	var transitions []gobreaker.State
	cfg.OnStateChange = func(_ string, _, to gobreaker.State) {
		transitions = append(transitions, to)
	}
	cb := circuitbreaker.New[int](cfg)

	boom := errors.New("boom")
	for i := 0; i < 3; i++ {
		if _, err := cb.Execute(func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
			t.Fatalf("call %d: expected the call's own error, got %v", i, err)
		}
	}

	if !cb.IsOpen() {
		t.Fatalf("expected open breaker, got %s", cb.State())
	}

	called := false
	_, err := cb.Execute(func() (int, error) { called = true; return 1, nil })
	if called {
		t.Error("open breaker must not run the call")
	}
	if !apperror.IsCode(err, apperror.CodeCircuitOpen) {
		t.Errorf("expected CIRCUIT_OPEN, got %v", err)
	}
	if len(transitions) != 1 || transitions[0] != gobreaker.StateOpen {
		t.Errorf("transitions = %v, want [open]", transitions)
	}
}

func TestCircuitBreaker_IgnoresNonFailures(t *testing.T) {
	notFound := apperror.New(apperror.CodePoolNotFound)

	cfg := circuitbreaker.DefaultConfig("xrpl-rpc")
	cfg.ConsecutiveFailures = 1
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || apperror.IsCode(err, apperror.CodePoolNotFound)
	}
	cb := circuitbreaker.New[string](cfg)

	for i := 0; i < 3; i++ {
		if _, err := cb.Execute(func() (string, error) { return "", notFound }); !apperror.IsCode(err, apperror.CodePoolNotFound) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if cb.IsOpen() {
		t.Error("expected the breaker to stay closed")
	}
	if cb.Name() != "xrpl-rpc" {
		t.Errorf("Name = %q", cb.Name())
	}
}
