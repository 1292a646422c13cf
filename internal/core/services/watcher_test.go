package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpuswatch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
)

// mockNotifier implements driven.ChangeNotifier over a test-controlled channel.
type mockNotifier struct {
	mu      sync.Mutex
	changes chan domain.FileChange
	roots   []string
	err     error
}

var _ driven.ChangeNotifier = (*mockNotifier)(nil)

func newMockNotifier() *mockNotifier {
	return &mockNotifier{changes: make(chan domain.FileChange)}
}

func (m *mockNotifier) Watch(ctx context.Context, roots []string) (<-chan domain.FileChange, error) {
	m.mu.Lock()
	m.roots = roots
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	out := make(chan domain.FileChange)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case c := <-m.changes:
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (m *mockNotifier) watchedRoots() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roots
}

// mockTrigger implements DirectoryTrigger for testing.
type mockTrigger struct {
	mu  sync.Mutex
	ids []string
}

func (m *mockTrigger) TriggerDirectory(_ context.Context, id string) domain.CycleResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, id)
	return domain.CycleResult{Trigger: domain.TriggerWatch, Success: true}
}

func (m *mockTrigger) triggered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.ids...)
}

func newWatchDirs(t *testing.T) *memory.DirectoryStore {
	t.Helper()
	dirs := memory.NewDirectoryStore(nil)
	for _, id := range []string{"a", "b"} {
		d := domain.NewWatchedDirectory("/data/"+id, id, time.Time{})
		d.ID = id
		require.NoError(t, dirs.Save(context.Background(), d))
	}
	off := domain.NewWatchedDirectory("/data/off", "off", time.Time{})
	off.ID = "off"
	off.Enabled = false
	require.NoError(t, dirs.Save(context.Background(), off))
	return dirs
}

func runWatcher(t *testing.T, w *Watcher) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	return cancel, done
}

func TestWatcher_DebouncesChangesPerDirectory(t *testing.T) {
	notifier := newMockNotifier()
	trigger := &mockTrigger{}
	w := NewWatcher(notifier, newWatchDirs(t), trigger, 30*time.Millisecond)

	cancel, done := runWatcher(t, w)
	defer cancel()

	require.Eventually(t, func() bool { return len(notifier.watchedRoots()) == 2 }, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"/data/a", "/data/b"}, notifier.watchedRoots())

	for range 5 {
		notifier.changes <- domain.FileChange{Root: "/data/b", Path: "/data/b/x.txt", Type: domain.ChangeUpdated}
	}
	notifier.changes <- domain.FileChange{Root: "/data/a", Path: "/data/a/y.txt", Type: domain.ChangeCreated}
	notifier.changes <- domain.FileChange{Root: "/elsewhere", Path: "/elsewhere/z.txt", Type: domain.ChangeCreated}

	require.Eventually(t, func() bool { return len(trigger.triggered()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, trigger.triggered())

	cancel()
	require.NoError(t, <-done)
	assert.Len(t, trigger.triggered(), 2)
}

func TestWatcher_SeparateBurstsTriggerSeparately(t *testing.T) {
	notifier := newMockNotifier()
	trigger := &mockTrigger{}
	w := NewWatcher(notifier, newWatchDirs(t), trigger, 10*time.Millisecond)

	cancel, done := runWatcher(t, w)
	defer cancel()

	notifier.changes <- domain.FileChange{Root: "/data/a", Path: "/data/a/1.txt", Type: domain.ChangeCreated}
	require.Eventually(t, func() bool { return len(trigger.triggered()) == 1 }, time.Second, 5*time.Millisecond)

	notifier.changes <- domain.FileChange{Root: "/data/a", Path: "/data/a/1.txt", Type: domain.ChangeDeleted}
	require.Eventually(t, func() bool { return len(trigger.triggered()) == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_NoDirectoriesBlocksUntilCancel(t *testing.T) {
	w := NewWatcher(newMockNotifier(), memory.NewDirectoryStore(nil), &mockTrigger{}, 0)
	assert.Equal(t, DefaultWatchDebounce, w.debounce)

	cancel, done := runWatcher(t, w)

	select {
	case <-done:
		t.Fatal("Run returned before cancel")
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_NotifierError(t *testing.T) {
	notifier := newMockNotifier()
	notifier.err = errors.New("too many open files")
	w := NewWatcher(notifier, newWatchDirs(t), &mockTrigger{}, time.Millisecond)

	err := w.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many open files")
}
