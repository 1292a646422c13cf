package driven

import (
	"context"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

// ChangeNotifier reports file changes under watched roots.
type ChangeNotifier interface {
	// Watch streams changes until ctx is cancelled, then closes the channel.
	Watch(ctx context.Context, roots []string) (<-chan domain.FileChange, error)
}
