// Package ratelimit provides a rate limiting decorator for extractors.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
	"github.com/custodia-labs/corpuswatch/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// DefaultBackoff applies when a retryable error carries no retry hint.
const DefaultBackoff = 30 * time.Second

// Config holds rate limiting configuration.
type Config struct {
	// RequestsPerSecond is the sustained rate. Zero or less disables limiting.
	RequestsPerSecond float64

	// BurstSize is the maximum burst size.
	BurstSize int
}

// RetryableError is implemented by collaborator errors that signal overload.
type RetryableError interface {
	error
	Retryable() bool
}

// Extractor wraps another extractor with a token bucket. A retryable error
// from the wrapped extractor pauses all calls until its retry hint expires.
type Extractor struct {
	next    driven.Extractor
	limiter *rate.Limiter

	mu      sync.Mutex
	retryAt time.Time
	now     func() time.Time
}

// New wraps next with the given limits.
func New(next driven.Extractor, cfg Config) *Extractor {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 1
	}

	return &Extractor{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		now:     time.Now,
	}
}

// Extract waits for a token, then delegates.
func (e *Extractor) Extract(ctx context.Context, req domain.ExtractionRequest) ([]domain.DerivedRecord, error) {
	if err := e.Wait(ctx); err != nil {
		return nil, err
	}

	records, err := e.next.Extract(ctx, req)
	if err != nil {
		var retryable RetryableError
		if errors.As(err, &retryable) && retryable.Retryable() {
			e.RecordRetryable(retryAfter(err))
		}
		return nil, err
	}
	return records, nil
}

// Wait blocks until a call can be made without exceeding the rate limit.
// It also respects any backoff period set by RecordRetryable.
func (e *Extractor) Wait(ctx context.Context) error {
	e.mu.Lock()
	retryAt := e.retryAt
	e.mu.Unlock()

	if wait := retryAt.Sub(e.now()); wait > 0 {
		logger.Debug("Extractor backing off for %s", wait.Round(time.Millisecond))
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return e.limiter.Wait(ctx)
}

// RecordRetryable sets a backoff period. A non-positive duration uses
// DefaultBackoff.
func (e *Extractor) RecordRetryable(after time.Duration) {
	if after <= 0 {
		after = DefaultBackoff
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if at := e.now().Add(after); at.After(e.retryAt) {
		e.retryAt = at
	}
}

// retryAfter extracts a RetryAfter hint from errors that expose one.
func retryAfter(err error) time.Duration {
	var hinted interface{ RetryAfterHint() time.Duration }
	if errors.As(err, &hinted) {
		return hinted.RetryAfterHint()
	}
	return 0
}
