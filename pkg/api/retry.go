package api

import (
	"context"
	"math"
	"time"
)

// RetryConfig controls backoff between attempts.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// DefaultRetryConfig returns the standard retry settings.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   2,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2,
		Jitter:       true,
	}
}

// Backoff returns the delay before retrying after the given zero-based
// attempt. rnd must return a value in [0, 1).
func Backoff(attempt int, cfg RetryConfig, rnd func() float64) time.Duration {
	mult := cfg.Multiplier
	if mult <= 0 {
		mult = 1
	}
	delay := float64(cfg.InitialDelay) * math.Pow(mult, float64(attempt))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.Jitter && rnd != nil {
		delay *= 1 + rnd()*0.25
	}
	ms := math.Floor(delay / float64(time.Millisecond))
	return time.Duration(ms) * time.Millisecond
}

// RetryState is a state of the retry loop.
type RetryState int

const (
	StateIdle RetryState = iota
	StateAttempting
	StateBackoffWait
	StateSucceeded
	StateFailed
)

func (s RetryState) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateBackoffWait:
		return "backoff-wait"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Retrier drives one logical request through its attempts. A Retrier is
// single-use.
type Retrier struct {
	cfg         RetryConfig
	shouldRetry func(error) bool
	sleep       func(context.Context, time.Duration) error
	rnd         func() float64
	// OnTransition, when set, observes every state change.
	OnTransition func(from, to RetryState, attempt int)
	// OnRetry, when set, is called before each backoff wait.
	OnRetry func(attempt int, delay time.Duration, err error)

	state   RetryState
	attempt int
	lastErr error
}

// NewRetrier creates a retrier in the idle state.
func NewRetrier(cfg RetryConfig, shouldRetry func(error) bool, sleep func(context.Context, time.Duration) error, rnd func() float64) *Retrier {
	if sleep == nil {
		sleep = sleepContext
	}
	return &Retrier{cfg: cfg, shouldRetry: shouldRetry, sleep: sleep, rnd: rnd}
}

// State returns the current state.
func (r *Retrier) State() RetryState { return r.state }

// Retries returns how many retries have been made so far.
func (r *Retrier) Retries() int { return r.attempt }

// LastError returns the most recent attempt error.
func (r *Retrier) LastError() error { return r.lastErr }

func (r *Retrier) transition(to RetryState) {
	if r.OnTransition != nil {
		r.OnTransition(r.state, to, r.attempt)
	}
	r.state = to
}

// Run calls fn until it succeeds, fails with a non-retryable error, the
// retry budget is spent, or ctx is done. Attempts are strictly sequential.
func (r *Retrier) Run(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	for {
		r.transition(StateAttempting)
		err := fn(ctx, r.attempt)
		if err == nil {
			r.lastErr = nil
			r.transition(StateSucceeded)
			return nil
		}
		r.lastErr = err

		if ctx.Err() != nil || r.attempt >= r.cfg.MaxRetries || r.shouldRetry == nil || !r.shouldRetry(err) {
			r.transition(StateFailed)
			return err
		}

		delay := Backoff(r.attempt, r.cfg, r.rnd)
		if r.OnRetry != nil {
			r.OnRetry(r.attempt, delay, err)
		}
		r.transition(StateBackoffWait)
		if serr := r.sleep(ctx, delay); serr != nil {
			r.transition(StateFailed)
			return err
		}
		r.attempt++
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
