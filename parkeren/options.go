package parkeren

import (
	"context"
	"net/http"
	"time"
)

// Option configures a Client, Session or Executor.
type Option func(*clientOptions)

// clientOptions holds optional collaborators shared by the core components.
type clientOptions struct {
	httpClient *http.Client
	recorder   Recorder
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
}

func newClientOptions(opts []Option) clientOptions {
	o := clientOptions{
		recorder: nopRecorder{},
		now:      time.Now,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithHTTPClient replaces the HTTP client built by Open.
// The caller keeps ownership of its idle connections.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithRecorder reports attempts and logins to r.
func WithRecorder(r Recorder) Option {
	return func(o *clientOptions) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithClock overrides the time source used for expiry hints.
func WithClock(now func() time.Time) Option {
	return func(o *clientOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// withSleeper overrides backoff sleeping in tests.
func withSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *clientOptions) {
		o.sleep = sleep
	}
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
