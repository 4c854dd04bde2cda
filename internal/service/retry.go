package service

import (
	"context"
	"math"
	"time"

	"github.com/vanshika/graphload/internal/graph"
)

// RetryState is the position of one operation in the bounded-retry machine:
// Attempting → Retrying(n) → Succeeded | Failed.
type RetryState int

const (
	StateAttempting RetryState = iota
	StateRetrying
	StateSucceeded
	StateFailed
)

func (s RetryState) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateRetrying:
		return "retrying"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RetryPolicy bounds retries of transient connection failures. Rejections
// are never retried.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64

	// Sleep waits between attempts; nil uses a real timer. It must return
	// early with the context error when ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 200 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
	defaultMultiplier     = 2.0
)

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    defaultMaxAttempts,
		InitialBackoff: defaultInitialBackoff,
		MaxBackoff:     defaultMaxBackoff,
		Multiplier:     defaultMultiplier,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.InitialBackoff < 0 {
		p.InitialBackoff = 0
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = defaultMaxBackoff
	}
	if p.Multiplier < 1 {
		p.Multiplier = defaultMultiplier
	}
	if p.Sleep == nil {
		p.Sleep = sleepContext
	}
	return p
}

// Retrier tracks one operation through the retry states.
type Retrier struct {
	policy   RetryPolicy
	state    RetryState
	attempts int
	err      error
}

// NewRetrier starts a fresh machine in StateAttempting.
func (p RetryPolicy) NewRetrier() *Retrier {
	return &Retrier{policy: p.normalized(), state: StateAttempting}
}

// Record feeds the outcome of the latest attempt and returns the new state.
func (r *Retrier) Record(err error) RetryState {
	if r.state == StateSucceeded || r.state == StateFailed {
		return r.state
	}
	r.attempts++
	r.err = err
	switch {
	case err == nil:
		r.state = StateSucceeded
	case !graph.IsConnection(err):
		r.state = StateFailed
	case r.attempts >= r.policy.MaxAttempts:
		r.state = StateFailed
	default:
		r.state = StateRetrying
	}
	return r.state
}

// Abandon moves a retrying operation to StateFailed, keeping the last error.
func (r *Retrier) Abandon() {
	if r.state == StateRetrying || r.state == StateAttempting {
		r.state = StateFailed
	}
}

// State returns the current state.
func (r *Retrier) State() RetryState { return r.state }

// Attempts returns how many attempts have been recorded.
func (r *Retrier) Attempts() int { return r.attempts }

// Err returns the error of the latest attempt.
func (r *Retrier) Err() error { return r.err }

// Backoff returns the wait before the next attempt:
// InitialBackoff * Multiplier^(attempts-1), capped at MaxBackoff.
func (r *Retrier) Backoff() time.Duration {
	if r.attempts == 0 {
		return 0
	}
	delay := float64(r.policy.InitialBackoff) * math.Pow(r.policy.Multiplier, float64(r.attempts-1))
	if delay > float64(r.policy.MaxBackoff) {
		return r.policy.MaxBackoff
	}
	return time.Duration(delay)
}

// Do runs op until it succeeds, fails permanently or exhausts the policy.
// ctx only governs the waits between attempts; when it is done the last
// operation error is returned. notify, if set, is called before each wait.
func (p RetryPolicy) Do(ctx context.Context, op func() error, notify func(attempt int, wait time.Duration, err error)) (int, error) {
	r := p.NewRetrier()
	for {
		if r.Record(op()) != StateRetrying {
			return r.Attempts(), r.Err()
		}
		wait := r.Backoff()
		if notify != nil {
			notify(r.Attempts(), wait, r.Err())
		}
		if err := r.policy.Sleep(ctx, wait); err != nil {
			r.Abandon()
			return r.Attempts(), r.Err()
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
