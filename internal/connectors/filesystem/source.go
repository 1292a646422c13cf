package filesystem

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.FileSource = (*Source)(nil)

// Source reads watched trees from the local filesystem.
type Source struct {
	walker *Walker
}

// NewSource creates a filesystem source. A nil skipDir skips hidden directories only.
func NewSource(skipDir SkipDirFunc) *Source {
	return &Source{walker: NewWalker(skipDir)}
}

// List returns the regular files under root.
func (s *Source) List(ctx context.Context, root string) ([]string, error) {
	return s.walker.Walk(ctx, root)
}

// Fingerprint computes the content identity of a file.
func (s *Source) Fingerprint(_ context.Context, path string) (domain.Fingerprint, error) {
	return Fingerprint(path)
}

// Read returns the full content of a file.
func (s *Source) Read(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
