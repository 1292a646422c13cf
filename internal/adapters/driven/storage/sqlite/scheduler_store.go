package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
)

// schedulerStore implements driven.SchedulerStore.
type schedulerStore struct {
	store *Store
}

var _ driven.SchedulerStore = (*schedulerStore)(nil)

const cycleColumns = `trigger_type, started_at, ended_at, success, error,
	directories_scanned, files_processed, refreshes`

// RecordCycle logs a completed cycle.
func (s *schedulerStore) RecordCycle(ctx context.Context, result *domain.CycleResult) error {
	if result == nil {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO cycle_results (`+cycleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, string(result.Trigger),
		formatTime(result.StartedAt),
		formatTime(result.EndedAt),
		boolToInt(result.Success),
		nullString(result.Error),
		result.DirectoriesScanned,
		result.FilesProcessed,
		result.Refreshes)

	if err != nil {
		return fmt.Errorf("recording cycle result: %w", err)
	}
	return nil
}

// History returns recent cycles, most recent first.
func (s *schedulerStore) History(ctx context.Context, limit int) ([]domain.CycleResult, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+cycleColumns+`
		FROM cycle_results
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying cycle history: %w", err)
	}
	defer rows.Close()

	var results []domain.CycleResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		result, err := scanCycleResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cycle history: %w", err)
	}

	return results, nil
}

// LastCycle returns the most recent cycle, or nil if none was recorded.
func (s *schedulerStore) LastCycle(ctx context.Context) (*domain.CycleResult, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+cycleColumns+`
		FROM cycle_results
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`)

	result, err := scanCycleResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return result, err
}

// PruneHistory keeps the most recent 'keep' results per trigger.
func (s *schedulerStore) PruneHistory(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM cycle_results
		WHERE id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY trigger_type ORDER BY started_at DESC, id DESC) as rn
				FROM cycle_results
			) WHERE rn <= ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning cycle history: %w", err)
	}
	return nil
}

// scanCycleResult scans a cycle result row.
func scanCycleResult(row rowScanner) (*domain.CycleResult, error) {
	var result domain.CycleResult
	var trigger, startedAt, endedAt string
	var success int
	var errMsg sql.NullString

	if err := row.Scan(&trigger, &startedAt, &endedAt, &success, &errMsg,
		&result.DirectoriesScanned, &result.FilesProcessed, &result.Refreshes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning cycle result: %w", err)
	}

	result.Trigger = domain.CycleTrigger(trigger)
	result.StartedAt = parseTime(startedAt)
	result.EndedAt = parseTime(endedAt)
	result.Success = success == 1
	result.Error = errMsg.String

	return &result, nil
}
