// Package service composes the live clients with the fallback tables. Every
// operation returns a Result that says where its value came from, and one
// Policy decides what happens when a live source fails.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/agri-assist-service/internal/domain"
	"github.com/couchcryptid/agri-assist-service/internal/observability"
)

// Source tells the caller whether a value is real or substituted.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// Policy selects the behavior on a live failure.
type Policy string

const (
	// PolicySubstitute serves fallback data and keeps the cause.
	PolicySubstitute Policy = "substitute"
	// PolicyFail returns the cause with no value.
	PolicyFail Policy = "fail"
)

// ErrInvalidPolicy is returned by ParsePolicy for unknown modes.
var ErrInvalidPolicy = errors.New("invalid fallback policy")

// ParsePolicy parses a FALLBACK_MODE value. Empty selects PolicySubstitute.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicySubstitute:
		return PolicySubstitute, nil
	case PolicyFail:
		return PolicyFail, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
}

// Result is a value plus its provenance. Cause is set whenever the live
// source failed, even if a substitute was served.
type Result[T any] struct {
	Value  T
	Source Source
	Cause  error
}

// Degraded reports whether the live source failed.
func (r Result[T]) Degraded() bool { return r.Cause != nil }

// degrader applies a Policy to live failures.
type degrader struct {
	policy  Policy
	logger  *slog.Logger
	metrics *observability.Metrics
}

// serve turns a live call's outcome into a Result. The error is non-nil only
// when no value is served: the caller went away or the policy is PolicyFail.
func serve[T any](ctx context.Context, d degrader, service string, value T, err error, substitute func() T) (Result[T], error) {
	if err == nil {
		return Result[T]{Value: value, Source: SourceLive}, nil
	}

	kind := domain.KindOf(err)
	if kind == domain.KindCanceled || errors.Is(ctx.Err(), context.Canceled) {
		return Result[T]{Cause: err}, err
	}
	if d.policy == PolicyFail {
		d.logger.Warn("live source failed", "service", service, "kind", kind, "error", err)
		return Result[T]{Cause: err}, err
	}

	d.logger.Warn("live source failed, serving fallback data", "service", service, "kind", kind, "error", err)
	d.metrics.FallbackTotal.WithLabelValues(service).Inc()
	return Result[T]{Value: substitute(), Source: SourceFallback, Cause: err}, nil
}
