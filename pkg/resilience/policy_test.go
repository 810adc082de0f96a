package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testPolicy(slept *[]time.Duration) *Policy {
	return &Policy{
		MaxRetries:     DefaultMaxRetries,
		AttemptTimeout: DefaultAttemptTimeout,
		sleep: func(d time.Duration) {
			*slept = append(*slept, d)
		},
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	var slept []time.Duration
	policy := testPolicy(&slept)

	calls := 0
	err := policy.Do(context.Background(), "create mandate", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &StatusError{StatusCode: 502, Body: "bad gateway"}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected the caller to observe a single success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	// Backoff before retry n is 2^n seconds.
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("expected %d backoff sleeps, got %d", len(want), len(slept))
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Fatalf("backoff %d: expected %s, got %s", i, want[i], slept[i])
		}
	}
}

func TestDoSurfacesSingleTerminalFailure(t *testing.T) {
	var slept []time.Duration
	policy := testPolicy(&slept)

	calls := 0
	err := policy.Do(context.Background(), "initiate transfer", func(ctx context.Context) error {
		calls++
		return errors.New("connection refused")
	})

	if err == nil {
		t.Fatal("expected a terminal failure after exhausting retries")
	}
	if calls != DefaultMaxRetries+1 {
		t.Fatalf("expected %d attempts, got %d", DefaultMaxRetries+1, calls)
	}
	if len(slept) != DefaultMaxRetries {
		t.Fatalf("expected %d backoff sleeps, got %d", DefaultMaxRetries, len(slept))
	}
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	var slept []time.Duration
	policy := testPolicy(&slept)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := policy.Do(ctx, "create customer", func(attemptCtx context.Context) error {
		calls++
		cancel()
		return errors.New("connection reset")
	})

	if err == nil {
		t.Fatal("expected an error when the parent context is cancelled")
	}
	if calls != 1 {
		t.Fatalf("expected no retries after cancellation, got %d attempts", calls)
	}
}

func TestDoAttemptContextCarriesTimeout(t *testing.T) {
	policy := NewPolicy()

	err := policy.Do(context.Background(), "probe", func(attemptCtx context.Context) error {
		deadline, ok := attemptCtx.Deadline()
		if !ok {
			t.Fatal("expected attempt context to carry a deadline")
		}
		if remaining := time.Until(deadline); remaining > DefaultAttemptTimeout {
			t.Fatalf("attempt deadline too far out: %s", remaining)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
