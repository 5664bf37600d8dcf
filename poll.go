package ledgerline

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// PollState classifies a polled resource's current state.
type PollState int

const (
	// PollPending means the resource has not settled; keep polling.
	PollPending PollState = iota
	// PollSuccess means the resource reached its terminal success state.
	PollSuccess
	// PollFailure means the resource reached a terminal failure state.
	PollFailure
)

// errStillPending drives the backoff loop while a resource is pending. It
// never escapes settle.
var errStillPending = errors.New("resource still pending")

// settle polls fetch at a constant interval until classify reports a
// terminal state. On PollSuccess the resource is returned; on PollFailure
// the error fail builds from the resource is returned and polling stops.
// Fetch errors stop polling immediately. There is no jitter, back-off, or
// retry cap: only a terminal state or context cancellation ends the loop.
func settle[T any](
	ctx context.Context,
	interval time.Duration,
	fetch func(context.Context) (T, error),
	classify func(T) PollState,
	fail func(T) error,
) (T, error) {
	var resource T

	op := func() error {
		r, err := fetch(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		resource = r
		switch classify(r) {
		case PollSuccess:
			return nil
		case PollFailure:
			return backoff.Permanent(fail(r))
		default:
			return errStillPending
		}
	}

	wait := backoff.WithContext(backoff.NewConstantBackOff(interval), ctx)
	if err := backoff.Retry(op, wait); err != nil {
		var zero T
		// The loop only gives up on a pending resource when the context
		// ends.
		if errors.Is(err, errStillPending) && ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, err
	}
	return resource, nil
}
