package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig bounds transport retries inside a provider client.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// PermanentError marks a failure that retrying cannot fix (4xx other than 429).
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Retry runs fn until it succeeds, returns a PermanentError, or attempts run out.
func Retry(ctx context.Context, cfg RetryConfig, logger *slog.Logger, fn func(ctx context.Context) error) error {
	attempts := max(cfg.MaxAttempts, 1)
	policy := backoff.WithContext(backoff.WithMaxRetries(cfg.policy(), uint64(attempts-1)), ctx)

	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		err := fn(ctx)
		var perm *PermanentError
		if errors.As(err, &perm) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		logger.Warn("request failed, retrying",
			"attempt", attempt,
			"backoff", wait,
			"error", err,
		)
	})

	var perm *PermanentError
	if err == nil || errors.As(err, &perm) || ctx.Err() != nil {
		return err
	}
	return fmt.Errorf("after %d attempts: %w", attempt, err)
}

// policy doubles from InitialBackoff up to MaxBackoff without jitter.
func (cfg RetryConfig) policy() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialBackoff
	if cfg.MaxBackoff > 0 {
		b.MaxInterval = cfg.MaxBackoff
	}
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}
