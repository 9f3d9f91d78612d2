package resilience

import (
	"errors"
	"testing"
	"time"
)

func newTestBreaker(cfg CircuitBreakerConfig) (*CircuitBreaker, *time.Time, *[]string) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	var transitions []string
	b := NewCircuitBreaker(cfg, func(from, to CircuitState) {
		transitions = append(transitions, string(from)+"->"+string(to))
	})
	b.now = func() time.Time { return now }
	return b, &now, &transitions
}

func TestCircuitBreaker_TripsAndRecovers(t *testing.T) {
	b, now, transitions := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 2, OpenTimeout: 5 * time.Second, HalfOpenMaxReq: 1})

	if err := b.Allow(); err != nil {
		t.Fatalf("expected allow in closed state: %v", err)
	}
	b.RecordFailure()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after first failure, got %s", state)
	}
	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}

	*now = now.Add(6 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open trial call to pass, got %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected second trial call to be rejected, got %v", err)
	}

	b.RecordSuccess()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful trial call, got %s", state)
	}

	want := []string{"closed->open", "open->half_open", "half_open->closed"}
	if len(*transitions) != len(want) {
		t.Fatalf("unexpected transitions: %v", *transitions)
	}
	for i := range want {
		if (*transitions)[i] != want[i] {
			t.Fatalf("transition %d: want %s, got %s", i, want[i], (*transitions)[i])
		}
	}
}

func TestCircuitBreaker_FailedTrialCallReopens(t *testing.T) {
	b, now, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Second, HalfOpenMaxReq: 1})

	b.RecordFailure()
	*now = now.Add(2 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected trial call, got %v", err)
	}
	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected reopen after failed trial call, got %s", state)
	}
}

func TestCircuitBreakerConfig_WithDefaults(t *testing.T) {
	cfg := CircuitBreakerConfig{Enabled: true, FailureThreshold: 3, OpenTimeout: -time.Second}.withDefaults()
	if cfg.FailureThreshold != 3 || cfg.OpenTimeout != defaultOpenTimeout || cfg.HalfOpenMaxReq != defaultHalfOpenMaxReq || !cfg.Enabled {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}
