/**
 * @description
 * This package wraps every outbound provider call with the service's resilience
 * policy: bounded retry with exponential backoff, and a hard per-attempt
 * timeout. The two compose as: the timeout bounds each individual attempt; the
 * retry loop wraps the whole timed attempt sequence. Exhausting all retries
 * surfaces a single terminal failure to the caller.
 *
 * @notes
 * - Backoff before retry n is 2^n seconds, unjittered. Jitter is a known
 *   improvement opportunity, not a correctness requirement.
 * - An attempt exceeding its timeout is treated identically to a network
 *   failure for retry-counting purposes.
 */

package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultMaxRetries is the number of additional attempts after the first.
	DefaultMaxRetries = 3
	// DefaultAttemptTimeout bounds each individual attempt.
	DefaultAttemptTimeout = 10 * time.Second
)

// StatusError marks a non-success HTTP response from a provider. It is
// retryable under the policy like a network-level failure.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected provider response status %d: %s", e.StatusCode, e.Body)
}

// Policy applies retry-with-backoff and per-attempt timeouts to an operation.
type Policy struct {
	MaxRetries     int
	AttemptTimeout time.Duration

	sleep func(time.Duration)
}

// NewPolicy returns a policy with the baseline settings.
func NewPolicy() *Policy {
	return &Policy{
		MaxRetries:     DefaultMaxRetries,
		AttemptTimeout: DefaultAttemptTimeout,
		sleep:          time.Sleep,
	}
}

// Do runs fn under the policy. fn receives a context bounded by the attempt
// timeout and must respect it. The returned error is nil on the first
// successful attempt, or the last attempt's error once retries are exhausted.
func (p *Policy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var err error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			sleep(time.Duration(1<<attempt) * time.Second)
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}

		attemptCtx, cancel := context.WithTimeout(ctx, p.AttemptTimeout)
		err = fn(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		if !Retryable(err) || ctx.Err() != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return fmt.Errorf("%s: retries exhausted: %w", op, err)
}

// Retryable reports whether the policy should retry after err. Network-level
// failures, attempt timeouts, and non-success response statuses all qualify;
// only a cancelled parent context does not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}
