package service

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/realty-service/internal/config"
	"github.com/spec-kit/realty-service/internal/repository"
)

// retrier re-runs datastore operations that failed before reaching the server.
// Everything else, including conflicts and not-found, is returned on first sight.
type retrier struct {
	attempts int
	backoff  time.Duration
}

func newRetrier(cfg config.RetryConfig) retrier {
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}
	return retrier{attempts: attempts, backoff: cfg.Backoff()}
}

func (r retrier) do(ctx context.Context, op func(context.Context) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = op(ctx)
		if err == nil || !errors.Is(err, repository.ErrUnavailable) || attempt >= r.attempts {
			return err
		}
		if r.backoff <= 0 {
			continue
		}
		timer := time.NewTimer(r.backoff * time.Duration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}
