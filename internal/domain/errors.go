package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies why an upstream call failed.
type ErrorKind string

const (
	KindTransport  ErrorKind = "transport"   // network failure, timeout
	KindStatus     ErrorKind = "status"      // non-2xx response
	KindDecode     ErrorKind = "decode"      // malformed or unexpected body
	KindMissingKey ErrorKind = "missing_key" // no API key configured
	KindCanceled   ErrorKind = "canceled"    // caller went away
)

// ErrMissingAPIKey is wrapped by upstream errors of KindMissingKey.
var ErrMissingAPIKey = errors.New("api key not configured")

// UpstreamError is returned by every outbound client.
type UpstreamError struct {
	Service    string
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s error (status %d): %v", e.Service, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Service, e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NewUpstreamError builds an UpstreamError, promoting context cancellation to
// KindCanceled so callers never substitute data for a caller that has gone away.
func NewUpstreamError(service string, kind ErrorKind, err error) *UpstreamError {
	if errors.Is(err, context.Canceled) {
		kind = KindCanceled
	}
	return &UpstreamError{Service: service, Kind: kind, Err: err}
}

// MissingKeyError reports that a client was used without credentials.
func MissingKeyError(service string) *UpstreamError {
	return &UpstreamError{Service: service, Kind: KindMissingKey, Err: ErrMissingAPIKey}
}

// StatusError reports a non-2xx upstream response.
func StatusError(service string, status int, body []byte) *UpstreamError {
	return &UpstreamError{
		Service:    service,
		Kind:       KindStatus,
		StatusCode: status,
		Err:        fmt.Errorf("unexpected response: %s", truncate(body, 256)),
	}
}

// KindOf extracts the error kind, or "" when err is not an UpstreamError.
func KindOf(err error) ErrorKind {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	return ""
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
