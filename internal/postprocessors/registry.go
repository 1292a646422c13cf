package postprocessors

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
)

// BuilderFunc constructs a processor from its options. cfg is nil when the
// entry carries none.
type BuilderFunc func(cfg map[string]any) (driven.RecordProcessor, error)

// Registry resolves processor names from configuration.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: map[string]BuilderFunc{}}
}

// Register binds name to builder, replacing any earlier binding.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.builders))
}

// Build constructs the processor registered under name.
func (r *Registry) Build(name string, cfg map[string]any) (driven.RecordProcessor, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown record processor %q (known: %s): %w",
			name, strings.Join(r.Names(), ", "), domain.ErrInvalidInput)
	}
	proc, err := builder(cfg)
	if err != nil {
		return nil, fmt.Errorf("build record processor %s: %w", name, err)
	}
	return proc, nil
}

// BuildPipeline builds a pipeline from entries of the form
// "name" or "name:key=value;key=value", keeping their order.
func (r *Registry) BuildPipeline(entries []string) (*Pipeline, error) {
	p := NewPipeline()
	for _, entry := range entries {
		name, cfg, err := ParseEntry(entry)
		if err != nil {
			return nil, err
		}
		proc, err := r.Build(name, cfg)
		if err != nil {
			return nil, err
		}
		p.Add(proc)
	}
	return p, nil
}

// ParseEntry splits a pipeline entry into the processor name and its
// options. Options are separated by semicolons since list settings given
// as a single string are split on commas. Option values stay strings.
func ParseEntry(entry string) (string, map[string]any, error) {
	name, opts, hasOpts := strings.Cut(strings.TrimSpace(entry), ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, fmt.Errorf("empty record processor entry %q: %w", entry, domain.ErrInvalidInput)
	}
	if !hasOpts {
		return name, nil, nil
	}

	cfg := map[string]any{}
	for _, opt := range strings.Split(opts, ";") {
		if strings.TrimSpace(opt) == "" {
			continue
		}
		key, value, ok := strings.Cut(opt, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return "", nil, fmt.Errorf("record processor %s: option %q is not key=value: %w",
				name, opt, domain.ErrInvalidInput)
		}
		cfg[key] = strings.TrimSpace(value)
	}
	return name, cfg, nil
}
