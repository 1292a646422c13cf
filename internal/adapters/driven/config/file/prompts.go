package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
	"github.com/custodia-labs/corpuswatch/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed defaults/*.txt defaults/README.md
var defaults embed.FS

// requiredPlaceholders lists the placeholders a prompt file must keep.
var requiredPlaceholders = map[string][]string{
	driven.PromptExtract: {"%[4]s"},
}

// DefaultPrompt returns the built-in template for name.
func DefaultPrompt(name string) (string, bool) {
	data, err := defaults.ReadFile("defaults/" + name + ".txt")
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

// PromptStore serves prompt templates from <dir>/<name>.txt. A file is
// re-read when its size or modification time changes, so edits apply to
// the next scan. Missing, empty or incomplete files fall back to the
// built-in template.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu     sync.Mutex
	loaded map[string]loadedPrompt
}

type loadedPrompt struct {
	text    string
	size    int64
	modTime time.Time
}

// NewPromptStore returns a store for dir, or ~/.corpuswatch/prompts when
// dir is empty. Nothing is written until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		base, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "prompts")
	}
	return &PromptStore{dir: dir, loaded: map[string]loadedPrompt{}}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the template for name.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(s.seed)

	fallback, known := DefaultPrompt(name)
	text, err := s.read(name)
	switch {
	case err == nil && text != "":
		if missing := missingPlaceholder(name, text); missing != "" {
			logger.Warn("Prompt %s lacks %s, using the default", name, missing)
			break
		}
		return text, nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		logger.Warn("Failed to read prompt %s: %v", name, err)
	}

	if !known {
		if err == nil {
			err = errors.New("empty prompt file")
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}
	return fallback, nil
}

// Reload drops every loaded prompt.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	clear(s.loaded)
	s.mu.Unlock()
}

func (s *PromptStore) read(name string) (string, error) {
	path := filepath.Join(s.dir, name+".txt")
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.loaded[name]; ok && p.size == info.Size() && p.modTime.Equal(info.ModTime()) {
		return p.text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))
	s.loaded[name] = loadedPrompt{text: text, size: info.Size(), modTime: info.ModTime()}
	return text, nil
}

// seed writes the default files that do not exist yet.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		logger.Warn("Prompts fall back to defaults: %v", s.seedErr)
		return
	}

	entries, err := defaults.ReadDir("defaults")
	if err != nil {
		s.seedErr = err
		return
	}
	for _, entry := range entries {
		path := filepath.Join(s.dir, entry.Name())
		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		data, err := defaults.ReadFile("defaults/" + entry.Name())
		if err != nil {
			s.seedErr = err
			return
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			s.seedErr = fmt.Errorf("write %s: %w", entry.Name(), err)
			logger.Warn("Prompts fall back to defaults: %v", s.seedErr)
			return
		}
	}
}

func missingPlaceholder(name, text string) string {
	for _, p := range requiredPlaceholders[name] {
		if !strings.Contains(text, p) {
			return p
		}
	}
	return ""
}
