package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

func cycleAt(trigger domain.CycleTrigger, offset time.Duration) *domain.CycleResult {
	return &domain.CycleResult{Trigger: trigger, StartedAt: testNow.Add(offset), Success: true}
}

func TestSchedulerStore_RecordAndLast(t *testing.T) {
	store := NewSchedulerStore()
	ctx := context.Background()

	last, err := store.LastCycle(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	require.NoError(t, store.RecordCycle(ctx, cycleAt(domain.TriggerTimer, 0)))
	require.NoError(t, store.RecordCycle(ctx, cycleAt(domain.TriggerForced, time.Minute)))

	last, err = store.LastCycle(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, domain.TriggerForced, last.Trigger)

	assert.ErrorIs(t, store.RecordCycle(ctx, nil), domain.ErrInvalidInput)
}

func TestSchedulerStore_HistoryLimit(t *testing.T) {
	store := NewSchedulerStore()
	ctx := context.Background()

	for i := range 5 {
		require.NoError(t, store.RecordCycle(ctx, cycleAt(domain.TriggerTimer, time.Duration(i)*time.Minute)))
	}

	history, err := store.History(ctx, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, testNow.Add(4*time.Minute), history[0].StartedAt)
	assert.Equal(t, testNow.Add(3*time.Minute), history[1].StartedAt)
}

func TestSchedulerStore_PruneHistoryPerTrigger(t *testing.T) {
	store := NewSchedulerStore()
	ctx := context.Background()

	for i := range 4 {
		require.NoError(t, store.RecordCycle(ctx, cycleAt(domain.TriggerTimer, time.Duration(i)*time.Minute)))
	}
	require.NoError(t, store.RecordCycle(ctx, cycleAt(domain.TriggerForced, -time.Hour)))

	require.NoError(t, store.PruneHistory(ctx, 2))

	history, err := store.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, testNow.Add(3*time.Minute), history[0].StartedAt)
	assert.Equal(t, testNow.Add(2*time.Minute), history[1].StartedAt)
	assert.Equal(t, domain.TriggerForced, history[2].Trigger)
}
