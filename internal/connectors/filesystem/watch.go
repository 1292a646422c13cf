package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
	"github.com/custodia-labs/corpuswatch/internal/logger"
)

// treeWatcher adds whole directory trees to an fsnotify watcher.
type treeWatcher struct {
	watcher *fsnotify.Watcher
	skipDir SkipDirFunc

	// roots maps every watched directory to its watched root.
	roots map[string]string
}

// Watch reports file changes under the given roots until ctx is cancelled,
// at which point the channel is closed. Directories created later are
// added automatically. Hidden files and directories rejected by skipDir
// are ignored.
func Watch(ctx context.Context, roots []string, skipDir SkipDirFunc) (<-chan domain.FileChange, error) {
	if skipDir == nil {
		skipDir = DefaultSkipDir(nil)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	tw := &treeWatcher{watcher: watcher, skipDir: skipDir, roots: make(map[string]string)}
	for _, root := range roots {
		if err := tw.addTree(root, root); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watch %s: %w", root, err)
		}
	}

	changes := make(chan domain.FileChange, 64)
	go tw.loop(ctx, changes)
	return changes, nil
}

func (tw *treeWatcher) loop(ctx context.Context, changes chan<- domain.FileChange) {
	defer close(changes)
	defer tw.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			change := tw.handleEvent(event)
			if change == nil {
				continue
			}
			select {
			case changes <- *change:
			case <-ctx.Done():
				return
			}
		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// handleEvent converts an fsnotify event into a file change.
// Returns nil for events that are not file content changes.
func (tw *treeWatcher) handleEvent(event fsnotify.Event) *domain.FileChange {
	name := filepath.Base(event.Name)
	if isHidden(name) {
		return nil
	}
	root := tw.rootOf(event.Name)

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if !tw.skipDir(name) {
				if err := tw.addTree(root, event.Name); err != nil {
					logger.Warn("watch new directory %s: %v", event.Name, err)
				}
			}
			return nil
		}
		return &domain.FileChange{Root: root, Path: event.Name, Type: domain.ChangeCreated}
	case event.Has(fsnotify.Write):
		return &domain.FileChange{Root: root, Path: event.Name, Type: domain.ChangeUpdated}
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &domain.FileChange{Root: root, Path: event.Name, Type: domain.ChangeDeleted}
	default:
		return nil
	}
}

func (tw *treeWatcher) addTree(root, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && tw.skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := tw.watcher.Add(path); err != nil {
			return fmt.Errorf("add %s: %w", path, err)
		}
		tw.roots[path] = root
		return nil
	})
}

// rootOf returns the watched root owning path. Only the loop goroutine
// touches roots after Watch returns.
func (tw *treeWatcher) rootOf(path string) string {
	if root, ok := tw.roots[filepath.Dir(path)]; ok {
		return root
	}
	if root, ok := tw.roots[path]; ok {
		return root
	}
	return ""
}

// Ensure Notifier implements the interface.
var _ driven.ChangeNotifier = (*Notifier)(nil)

// Notifier watches trees with fsnotify.
type Notifier struct {
	skipDir SkipDirFunc
}

// NewNotifier creates a notifier. A nil skipDir skips hidden directories only.
func NewNotifier(skipDir SkipDirFunc) *Notifier {
	return &Notifier{skipDir: skipDir}
}

// Watch reports file changes under roots until ctx is cancelled.
func (n *Notifier) Watch(ctx context.Context, roots []string) (<-chan domain.FileChange, error) {
	return Watch(ctx, roots, n.skipDir)
}
