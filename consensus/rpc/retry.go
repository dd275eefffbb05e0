package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// maxRetries bounds every get_* call to at most this many retries beyond
// the first attempt, per SPEC_FULL.md §4.2.
const maxRetries = 3

// withRetry runs op under an exponential backoff policy (exponent 1: a
// fixed interval between attempts that does not grow per retry, matching
// the reference relayer's retry-middleware defaults) scoped to this single
// call and released on success or exhaustion. Only transient errors are
// retried; a decode error is permanent and returned on the first attempt.
func withRetry(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(newBackoff(), maxRetries), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

func newBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.Multiplier = 1 // exponent 1: constant interval between retries
	b.MaxInterval = 200 * time.Millisecond
	return b
}

// isTransient reports whether err is a network-layer failure worth
// retrying, as opposed to a decode error (malformed JSON, bad hex) which
// will fail identically on every retry.
func isTransient(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return false
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return false
	}
	return errors.Is(err, errTransient)
}

// errTransient is wrapped around low-level errors (non-2xx status, dial
// failures not already recognized as net.Error) the http transport flags
// as worth a retry.
var errTransient = errors.New("transient rpc failure")
