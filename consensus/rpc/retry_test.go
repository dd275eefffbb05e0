package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsTransientRecognizesURLAndNetErrors(t *testing.T) {
	urlErr := &url.Error{Op: "Get", URL: "http://x", Err: errors.New("boom")}
	require.True(t, isTransient(urlErr), "expected a *url.Error to be classified as transient")

	var netErr net.Error = &net.DNSError{Err: "no such host", Name: "example.invalid"}
	require.True(t, isTransient(netErr), "expected a net.Error to be classified as transient")
}

func TestIsTransientRejectsDecodeErrors(t *testing.T) {
	var syntaxErr *json.SyntaxError
	jsonErr := json.Unmarshal([]byte("{not json"), &struct{}{})
	require.True(t, jsonErr != nil && errors.As(jsonErr, &syntaxErr), "expected a *json.SyntaxError fixture, got %v", jsonErr)
	require.False(t, isTransient(jsonErr), "expected a JSON syntax error to be permanent, not transient")

	var typeErr *json.UnmarshalTypeError
	jsonErr = json.Unmarshal([]byte(`"not a number"`), new(int))
	require.True(t, jsonErr != nil && errors.As(jsonErr, &typeErr), "expected a *json.UnmarshalTypeError fixture, got %v", jsonErr)
	require.False(t, isTransient(jsonErr), "expected a JSON type error to be permanent, not transient")
}

func TestIsTransientRecognizesWrappedErrTransient(t *testing.T) {
	fresh := errors.New(errTransient.Error())
	require.False(t, isTransient(fresh), "a freshly-built error with the same text is not the same error; must not match")

	wrapped := fmt.Errorf("status 503: %w", errTransient)
	require.True(t, isTransient(wrapped), "expected an error wrapping errTransient via %w to be classified as transient")
}

func TestWithRetryStopsImmediatelyOnPermanentError(t *testing.T) {
	attempts := 0
	permanent := errors.New("decode failure")
	err := withRetry(context.Background(), func() error {
		attempts++
		return permanent
	})
	require.Equal(t, 1, attempts, "expected exactly one attempt for a permanent error")
	require.Error(t, err, "expected the permanent error to propagate")
}

func TestWithRetryRetriesTransientErrorsUntilSuccess(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return errTransient
		}
		return nil
	})
	require.NoError(t, err, "expected eventual success")
	require.Equal(t, 2, attempts)
}

func TestWithRetryGivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), func() error {
		attempts++
		return errTransient
	})
	require.Error(t, err, "expected withRetry to eventually give up and return an error")
	require.Equal(t, maxRetries+1, attempts, "expected 1 initial attempt + %d retries", maxRetries)
}
