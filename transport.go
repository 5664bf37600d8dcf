package ledgerline

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryTransport is an http.RoundTripper that retries transient failures
// (network errors, 429, and 5xx) with exponential backoff. The dispatcher
// itself never retries; transport-level retry policy lives here, opt-in via
// WithTransport:
//
//	client := ledgerline.New(cfg, ledgerline.WithTransport(&ledgerline.RetryTransport{}))
//
// Requests without a replayable body are never retried.
type RetryTransport struct {
	// Base is the wrapped transport (default http.DefaultTransport).
	Base http.RoundTripper

	// MaxRetries is the number of retry attempts after the first try
	// (default 3).
	MaxRetries uint64

	// InitialInterval is the first backoff delay (default 500ms).
	InitialInterval time.Duration

	// MaxInterval caps the backoff delay (default 10s).
	MaxInterval time.Duration
}

func (t *RetryTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// RoundTrip implements http.RoundTripper.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	maxRetries := t.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}

	exp := backoff.NewExponentialBackOff()
	if t.InitialInterval > 0 {
		exp.InitialInterval = t.InitialInterval
	} else {
		exp.InitialInterval = 500 * time.Millisecond
	}
	if t.MaxInterval > 0 {
		exp.MaxInterval = t.MaxInterval
	} else {
		exp.MaxInterval = 10 * time.Second
	}

	var resp *http.Response
	op := func() error {
		if req.Body != nil && req.Body != http.NoBody {
			if req.GetBody == nil {
				// One-shot body, cannot replay: pass through untouched.
				return backoff.Permanent(errNoReplay)
			}
			body, err := req.GetBody()
			if err != nil {
				return backoff.Permanent(fmt.Errorf("replay request body: %w", err))
			}
			req.Body = body
		}

		r, err := t.base().RoundTrip(req)
		if err != nil {
			return err
		}
		if retryableStatus(r.StatusCode) {
			// Drain so the connection can be reused, then retry.
			io.Copy(io.Discard, r.Body)
			r.Body.Close()
			return fmt.Errorf("retryable status %d", r.StatusCode)
		}
		resp = r
		return nil
	}

	wait := backoff.WithContext(backoff.WithMaxRetries(exp, maxRetries), req.Context())
	if err := backoff.Retry(op, wait); err != nil {
		if err == errNoReplay {
			return t.base().RoundTrip(req)
		}
		return nil, err
	}
	return resp, nil
}

var errNoReplay = fmt.Errorf("request body is not replayable")
