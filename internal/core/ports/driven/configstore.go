package driven

import "time"

// ConfigStore holds settings under dotted keys such as
// "scheduler.check_interval". Typed getters return the zero value when a
// key is absent or cannot be converted.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64

	// GetDuration parses Go duration strings like "5m".
	GetDuration(key string) time.Duration

	GetBool(key string) bool

	// GetStringSlice accepts lists and comma separated strings.
	GetStringSlice(key string) []string

	// Set stores value and persists the store.
	Set(key string, value any) error

	Save() error
	Load() error

	// Path locates the backing file, or ":memory:".
	Path() string
}
