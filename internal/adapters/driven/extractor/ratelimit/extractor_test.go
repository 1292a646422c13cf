package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

type overloadError struct {
	after time.Duration
}

func (e *overloadError) Error() string                 { return "overloaded" }
func (e *overloadError) Retryable() bool               { return true }
func (e *overloadError) RetryAfterHint() time.Duration { return e.after }

type mockExtractor struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockExtractor) Extract(_ context.Context, req domain.ExtractionRequest) ([]domain.DerivedRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return []domain.DerivedRecord{{Question: "q", Answer: "a", Source: req.Filename}}, nil
}

func (m *mockExtractor) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestExtract_Delegates(t *testing.T) {
	next := &mockExtractor{}
	e := New(next, Config{RequestsPerSecond: 100, BurstSize: 1})

	records, err := e.Extract(context.Background(), domain.ExtractionRequest{Filename: "a.txt"})

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a.txt", records[0].Source)
	assert.Equal(t, 1, next.callCount())
}

func TestExtract_Unlimited(t *testing.T) {
	next := &mockExtractor{}
	e := New(next, Config{})

	for range 50 {
		_, err := e.Extract(context.Background(), domain.ExtractionRequest{})
		require.NoError(t, err)
	}
	assert.Equal(t, 50, next.callCount())
}

func TestExtract_WaitsForToken(t *testing.T) {
	next := &mockExtractor{}
	e := New(next, Config{RequestsPerSecond: 0.001, BurstSize: 1})

	_, err := e.Extract(context.Background(), domain.ExtractionRequest{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = e.Extract(ctx, domain.ExtractionRequest{})

	assert.Error(t, err)
	assert.Equal(t, 1, next.callCount())
}

func TestExtract_RetryableErrorBacksOff(t *testing.T) {
	next := &mockExtractor{err: &overloadError{after: time.Hour}}
	e := New(next, Config{})

	_, err := e.Extract(context.Background(), domain.ExtractionRequest{})
	var overload *overloadError
	require.ErrorAs(t, err, &overload)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = e.Extract(ctx, domain.ExtractionRequest{})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, next.callCount())
}

func TestExtract_NonRetryableErrorDoesNotBackOff(t *testing.T) {
	next := &mockExtractor{err: errors.New("bad request")}
	e := New(next, Config{})

	_, err := e.Extract(context.Background(), domain.ExtractionRequest{})
	require.Error(t, err)
	_, err = e.Extract(context.Background(), domain.ExtractionRequest{})
	require.Error(t, err)

	assert.Equal(t, 2, next.callCount())
}

func TestRecordRetryable(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	e := New(&mockExtractor{}, Config{})
	e.now = func() time.Time { return now }

	e.RecordRetryable(0)
	assert.Equal(t, now.Add(DefaultBackoff), e.retryAt)

	// A shorter hint never shortens an existing backoff.
	e.RecordRetryable(time.Second)
	assert.Equal(t, now.Add(DefaultBackoff), e.retryAt)

	e.RecordRetryable(time.Hour)
	assert.Equal(t, now.Add(time.Hour), e.retryAt)
}

func TestWait_ElapsedBackoff(t *testing.T) {
	e := New(&mockExtractor{}, Config{})
	e.RecordRetryable(time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	assert.NoError(t, e.Wait(context.Background()))
}
