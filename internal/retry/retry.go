// Package retry applies bounded exponential backoff to provider
// operations. Only errors whose classification is transient are
// retried; terminal classes surface on the first occurrence.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const maxRetries = 3

var (
	initialDelay = 1 * time.Second
	maxDelay     = 30 * time.Second
)

// classified is implemented by errors that know whether retrying can
// help. Unclassified errors are never retried.
type classified interface {
	Retryable() bool
}

// Do runs op, retrying transient failures up to three times beyond the
// first attempt with jittered exponential backoff between 1s and 30s.
// Each retry is logged with the elapsed delay and the error.
func Do[T any](ctx context.Context, log zerolog.Logger, op func() (T, error)) (T, error) {
	gated := func() (T, error) {
		v, err := op()
		if err != nil && !retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	notify := func(err error, delay time.Duration) {
		log.Warn().
			Dur("delay", delay).
			Err(err).
			Msg("retrying after transient failure")
	}

	return backoff.RetryNotifyWithData(gated, policy(ctx), notify)
}

// DoVoid is Do for operations without a result.
func DoVoid(ctx context.Context, log zerolog.Logger, op func() error) error {
	_, err := Do(ctx, log, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}

func policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialDelay
	b.MaxInterval = maxDelay
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx)
}

func retryable(err error) bool {
	var c classified
	if errors.As(err, &c) {
		return c.Retryable()
	}
	return false
}
