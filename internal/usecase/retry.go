package usecase

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"partner-service/pkg/xerrors"
)

// withRetry re-runs an operation with exponential backoff while it keeps
// failing with a transient upstream error. Terminal errors return
// immediately. Callers only wrap reads and idempotent writes here; the
// conditional writes rely on their compare-and-swap guard instead.
func withRetry(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = 5 * time.Second

	return backoff.Retry(func() error {
		err := op()
		if err != nil && !xerrors.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, ctx))
}
