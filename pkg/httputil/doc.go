// Package httputil provides HTTP utilities for the idea-generation client.
//
// # Retry
//
// [Retry] wraps calls with automatic retry for transient failures. Only
// errors wrapped in [RetryableError] are retried - clients classify their
// own failures (network errors and 5xx responses are transient, 4xx are
// not) and wrap accordingly:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// Backoff is exponential (the delay doubles after each failed attempt) and
// respects context cancellation between attempts.
//
// Response caching lives in pkg/cache, which callers consult before
// reaching for the network at all.
package httputil
