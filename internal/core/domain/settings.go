package domain

import "time"

const unknownDescription = "Unknown"

// CacheBackend selects the incremental cache implementation.
type CacheBackend string

// Available cache backends.
const (
	// CacheBackendSQLite stores entries in the metadata database.
	CacheBackendSQLite CacheBackend = "sqlite"

	// CacheBackendFile stores entries as JSON files in a cache directory.
	CacheBackendFile CacheBackend = "file"

	// CacheBackendRedis stores entries in a Redis server.
	CacheBackendRedis CacheBackend = "redis"
)

// IsValid returns true if the cache backend is recognised.
func (b CacheBackend) IsValid() bool {
	switch b {
	case CacheBackendSQLite, CacheBackendFile, CacheBackendRedis:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b CacheBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b CacheBackend) Description() string {
	switch b {
	case CacheBackendSQLite:
		return "SQLite (metadata database)"
	case CacheBackendFile:
		return "File (JSON documents on disk)"
	case CacheBackendRedis:
		return "Redis (shared server)"
	default:
		return unknownDescription
	}
}

// AllCacheBackends returns all available cache backends.
func AllCacheBackends() []CacheBackend {
	return []CacheBackend{CacheBackendSQLite, CacheBackendFile, CacheBackendRedis}
}

// SchedulerSettings holds scheduler behaviour configuration.
type SchedulerSettings struct {
	// CheckInterval is the timer cadence.
	CheckInterval time.Duration

	// ParallelDirectories bounds how many directories are scanned at once.
	// 1 scans directories sequentially.
	ParallelDirectories int
}

// ScannerSettings holds directory scanner configuration.
type ScannerSettings struct {
	// ExtractionTimeout bounds a single extractor call.
	ExtractionTimeout time.Duration

	// MissingThreshold is the number of consecutive scans a file may be
	// absent before it is marked missing.
	MissingThreshold int

	// SkipDirs are directory names never descended into, in addition to hidden ones.
	SkipDirs []string

	// MaxRecords caps how many records are requested per file.
	MaxRecords int

	// RecordProcessors names the clean-up steps applied to extracted
	// records, in order.
	RecordProcessors []string
}

// CacheSettings holds incremental cache configuration.
type CacheSettings struct {
	// Backend selects the implementation.
	Backend CacheBackend

	// Dir is the directory used by the file backend.
	Dir string

	// Retention is the age after which entries are pruned.
	Retention time.Duration

	// RedisAddr is the address used by the redis backend.
	RedisAddr string
}

// ExtractorSettings holds extraction collaborator configuration.
type ExtractorSettings struct {
	// BaseURL is the Ollama API endpoint.
	BaseURL string

	// Model is the model used to derive records.
	Model string

	// RatePerSecond limits extractor calls. Zero disables limiting.
	RatePerSecond float64

	// Burst is the limiter burst size.
	Burst int
}

// RefreshSettings holds refresh collaborator configuration.
type RefreshSettings struct {
	// WebhookURL receives a POST after processed scans. Empty logs only.
	WebhookURL string

	// Token is sent as a bearer token with webhook requests.
	Token string
}

// HTTPSettings holds admin API configuration.
type HTTPSettings struct {
	// Addr is the listen address.
	Addr string

	// Token is the bearer token. Empty disables authentication.
	Token string
}

// DataSettings holds storage locations.
type DataSettings struct {
	// Dir holds the metadata database. Empty uses ~/.corpuswatch/data.
	Dir string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Data      DataSettings
	Scheduler SchedulerSettings
	Scanner   ScannerSettings
	Cache     CacheSettings
	Extractor ExtractorSettings
	Refresh   RefreshSettings
	HTTP      HTTPSettings
}

// DefaultSkipDirs returns the directory names the walker skips by default.
func DefaultSkipDirs() []string {
	return []string{"node_modules", "vendor", "dist", "build", "target", "__pycache__", ".venv"}
}

// DefaultRecordProcessors returns the record clean-up steps run by default.
func DefaultRecordProcessors() []string {
	return []string{"validate", "dedupe", "truncate"}
}

// DefaultAppSettings returns settings with sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Scheduler: SchedulerSettings{
			CheckInterval:       DefaultCheckInterval,
			ParallelDirectories: 1,
		},
		Scanner: ScannerSettings{
			ExtractionTimeout: 2 * time.Minute,
			MissingThreshold:  3,
			SkipDirs:          DefaultSkipDirs(),
			MaxRecords:        3,
			RecordProcessors:  DefaultRecordProcessors(),
		},
		Cache: CacheSettings{
			Backend:   CacheBackendSQLite,
			Retention: DefaultCacheRetention,
			RedisAddr: "localhost:6379",
		},
		Extractor: ExtractorSettings{
			BaseURL:       "http://localhost:11434",
			Model:         "llama3.2",
			RatePerSecond: 1,
			Burst:         2,
		},
		HTTP: HTTPSettings{
			Addr: "127.0.0.1:8765",
		},
	}
}
