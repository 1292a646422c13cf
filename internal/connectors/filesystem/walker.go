package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/logger"
)

// SkipDirFunc reports whether a directory with the given base name
// should not be descended into.
type SkipDirFunc func(name string) bool

// DefaultSkipDir skips hidden directories and any directory whose name
// is in names.
func DefaultSkipDir(names []string) SkipDirFunc {
	deny := make(map[string]bool, len(names))
	for _, n := range names {
		deny[n] = true
	}
	return func(name string) bool {
		return isHidden(name) || deny[name]
	}
}

// Walker enumerates the regular files under a root.
type Walker struct {
	skipDir SkipDirFunc
}

// NewWalker creates a walker. A nil skipDir skips hidden directories only.
func NewWalker(skipDir SkipDirFunc) *Walker {
	if skipDir == nil {
		skipDir = DefaultSkipDir(nil)
	}
	return &Walker{skipDir: skipDir}
}

// Walk returns the absolute paths of the regular files under root,
// depth-first in lexical order. Hidden files and symlinks are skipped.
// Unreadable subdirectories are logged and skipped; an unreadable root
// fails the walk with domain.ErrDirectoryUnavailable.
func (w *Walker) Walk(ctx context.Context, root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDirectoryUnavailable, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrDirectoryUnavailable, root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if walkErr != nil {
			if path == root {
				return fmt.Errorf("%w: %s: %v", domain.ErrDirectoryUnavailable, root, walkErr)
			}
			logger.Warn("skipping unreadable path %s: %v", path, walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && w.skipDir(d.Name()) {
				logger.Debug("skipping directory %s", path)
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || isHidden(d.Name()) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrDirectoryUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return paths, nil
}

// isHidden checks if a name starts with a dot. "." and ".." are not hidden.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
