package retry

import (
	stderrors "errors"
	"time"

	"infohub/pkg/config"
	"infohub/pkg/errors"
)

// Policy decides whether a failed attempt is retried and how long to wait
// before the next one. It is pure: all state (the attempt counter) lives with
// the caller.
type Policy struct {
	MaxAttempts int
	Backoff     BackoffStrategy
}

// NewPolicy builds a Policy from configuration.
func NewPolicy(cfg *config.RetryConfig) *Policy {
	return &Policy{
		MaxAttempts: cfg.MaxAttempts,
		Backoff: &ExponentialBackoff{
			BaseDelay:    cfg.BaseDelay,
			MaxDelay:     cfg.MaxDelay,
			Multiplier:   cfg.Multiplier,
			JitterFactor: cfg.JitterFactor,
		},
	}
}

// Classify maps an error to its retry class.
func (p *Policy) Classify(err error) errors.Class {
	return errors.ClassOf(err)
}

// ShouldRetry reports whether another attempt should be issued after the
// given attempt (1-based) failed with err.
func (p *Policy) ShouldRetry(err error, attempt int) bool {
	if attempt >= p.MaxAttempts {
		return false
	}
	return errors.IsRetryable(errors.ClassOf(err))
}

// NextDelay computes the backoff delay after the given failed attempt. A
// server-suggested delay (Retry-After on a 429) takes precedence over the
// computed backoff when it is longer.
func (p *Policy) NextDelay(attempt int, err error) time.Duration {
	delay := p.Backoff.NextDelay(attempt)

	var e *errors.Error
	if stderrors.As(err, &e) && e.RetryAfter > delay {
		delay = e.RetryAfter
	}

	return delay
}
