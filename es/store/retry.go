package store

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig bounds RetryOnConflict.
type RetryConfig struct {
	// MaxAttempts is the total number of calls to the operation, including the first
	MaxAttempts uint

	// Interval is the pause between attempts
	Interval time.Duration
}

// DefaultRetryConfig returns the default configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 5,
		Interval:    20 * time.Millisecond,
	}
}

// RetryOnConflict runs op until it succeeds, fails with a non-concurrency error,
// or the attempt budget is spent. op is expected to reload the aggregate,
// recompute its revision and append again.
//
// Example:
//
//	err := store.RetryOnConflict(ctx, store.DefaultRetryConfig(), func(ctx context.Context) error {
//	    stream, err := s.Load(ctx, id)
//	    if err != nil {
//	        return err
//	    }
//	    return s.Append(ctx, nextCommit(stream))
//	})
func RetryOnConflict(ctx context.Context, config RetryConfig, op func(ctx context.Context) error) error {
	if config.MaxAttempts == 0 {
		config.MaxAttempts = 1
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := op(ctx)
		if err == nil {
			return struct{}{}, nil
		}
		if errors.Is(err, ErrOptimisticConcurrency) {
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(config.Interval)),
		backoff.WithMaxTries(config.MaxAttempts),
		backoff.WithMaxElapsedTime(0),
	)
	return err
}
