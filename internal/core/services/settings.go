package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDataDir             = "data.dir"
	keyCheckInterval       = "scheduler.check_interval"
	keyParallelDirectories = "scheduler.parallel_directories"
	keyExtractionTimeout   = "scanner.extraction_timeout"
	keyMissingThreshold    = "scanner.missing_threshold"
	keySkipDirs            = "scanner.skip_dirs"
	keyMaxRecords          = "scanner.max_records"
	keyRecordProcessors    = "scanner.record_processors"
	keyCacheBackend        = "cache.backend"
	keyCacheDir            = "cache.dir"
	keyCacheRetention      = "cache.retention"
	keyCacheRedisAddr      = "cache.redis_addr"
	keyExtractorBaseURL    = "extractor.base_url"
	keyExtractorModel      = "extractor.model"
	keyExtractorRate       = "extractor.rate_per_second"
	keyExtractorBurst      = "extractor.burst"
	keyRefreshWebhookURL   = "refresh.webhook_url"
	keyRefreshToken        = "refresh.token"
	keyHTTPAddr            = "http.addr"
	keyHTTPToken           = "http.token"
)

// settingKind is how a setting value is parsed and stored.
type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindDuration
	kindList
	kindBackend
)

var settingKinds = map[string]settingKind{
	keyDataDir:             kindString,
	keyCheckInterval:       kindDuration,
	keyParallelDirectories: kindInt,
	keyExtractionTimeout:   kindDuration,
	keyMissingThreshold:    kindInt,
	keySkipDirs:            kindList,
	keyMaxRecords:          kindInt,
	keyRecordProcessors:    kindList,
	keyCacheBackend:        kindBackend,
	keyCacheDir:            kindString,
	keyCacheRetention:      kindDuration,
	keyCacheRedisAddr:      kindString,
	keyExtractorBaseURL:    kindString,
	keyExtractorModel:      kindString,
	keyExtractorRate:       kindFloat,
	keyExtractorBurst:      kindInt,
	keyRefreshWebhookURL:   kindString,
	keyRefreshToken:        kindString,
	keyHTTPAddr:            kindString,
	keyHTTPToken:           kindString,
}

// SettingsService manages application settings stored in a ConfigStore.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings. Missing or invalid values
// fall back to the defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Data: domain.DataSettings{
			Dir: s.getString(keyDataDir, d.Data.Dir),
		},
		Scheduler: domain.SchedulerSettings{
			CheckInterval:       s.getDuration(keyCheckInterval, d.Scheduler.CheckInterval),
			ParallelDirectories: s.getInt(keyParallelDirectories, d.Scheduler.ParallelDirectories),
		},
		Scanner: domain.ScannerSettings{
			ExtractionTimeout: s.getDuration(keyExtractionTimeout, d.Scanner.ExtractionTimeout),
			MissingThreshold:  s.getInt(keyMissingThreshold, d.Scanner.MissingThreshold),
			SkipDirs:          s.getStringSlice(keySkipDirs, d.Scanner.SkipDirs),
			MaxRecords:        s.getInt(keyMaxRecords, d.Scanner.MaxRecords),
			RecordProcessors:  s.getStringSlice(keyRecordProcessors, d.Scanner.RecordProcessors),
		},
		Cache: domain.CacheSettings{
			Backend:   s.getBackend(d.Cache.Backend),
			Dir:       s.getString(keyCacheDir, d.Cache.Dir),
			Retention: s.getDuration(keyCacheRetention, d.Cache.Retention),
			RedisAddr: s.getString(keyCacheRedisAddr, d.Cache.RedisAddr),
		},
		Extractor: domain.ExtractorSettings{
			BaseURL:       s.getString(keyExtractorBaseURL, d.Extractor.BaseURL),
			Model:         s.getString(keyExtractorModel, d.Extractor.Model),
			RatePerSecond: s.getFloat(keyExtractorRate, d.Extractor.RatePerSecond),
			Burst:         s.getInt(keyExtractorBurst, d.Extractor.Burst),
		},
		Refresh: domain.RefreshSettings{
			WebhookURL: s.configStore.GetString(keyRefreshWebhookURL),
			Token:      s.configStore.GetString(keyRefreshToken),
		},
		HTTP: domain.HTTPSettings{
			Addr:  s.getString(keyHTTPAddr, d.HTTP.Addr),
			Token: s.configStore.GetString(keyHTTPToken),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if settings == nil {
		return domain.ErrInvalidInput
	}
	if !settings.Cache.Backend.IsValid() {
		return fmt.Errorf("%w: unknown cache backend %q", domain.ErrInvalidInput, settings.Cache.Backend)
	}

	values := []struct {
		key   string
		value any
	}{
		{keyDataDir, settings.Data.Dir},
		{keyCheckInterval, settings.Scheduler.CheckInterval.String()},
		{keyParallelDirectories, settings.Scheduler.ParallelDirectories},
		{keyExtractionTimeout, settings.Scanner.ExtractionTimeout.String()},
		{keyMissingThreshold, settings.Scanner.MissingThreshold},
		{keySkipDirs, settings.Scanner.SkipDirs},
		{keyMaxRecords, settings.Scanner.MaxRecords},
		{keyRecordProcessors, settings.Scanner.RecordProcessors},
		{keyCacheBackend, settings.Cache.Backend.String()},
		{keyCacheDir, settings.Cache.Dir},
		{keyCacheRetention, settings.Cache.Retention.String()},
		{keyCacheRedisAddr, settings.Cache.RedisAddr},
		{keyExtractorBaseURL, settings.Extractor.BaseURL},
		{keyExtractorModel, settings.Extractor.Model},
		{keyExtractorRate, settings.Extractor.RatePerSecond},
		{keyExtractorBurst, settings.Extractor.Burst},
		{keyRefreshWebhookURL, settings.Refresh.WebhookURL},
		{keyRefreshToken, settings.Refresh.Token},
		{keyHTTPAddr, settings.HTTP.Addr},
		{keyHTTPToken, settings.HTTP.Token},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Set updates a single setting by its dotted key. The value is parsed
// according to the setting's type: durations use Go syntax ("5m") and
// lists are comma-separated.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	parsed, err := parseSetting(kind, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}
	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func parseSetting(kind settingKind, value string) (any, error) {
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", value)
		}
		if n < 0 {
			return nil, fmt.Errorf("cannot be negative: %d", n)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", value)
		}
		if f < 0 {
			return nil, fmt.Errorf("cannot be negative: %g", f)
		}
		return f, nil
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("not a duration: %q", value)
		}
		if d <= 0 {
			return nil, fmt.Errorf("must be positive: %s", d)
		}
		return d.String(), nil
	case kindList:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items, nil
	case kindBackend:
		backend := domain.CacheBackend(strings.ToLower(value))
		if !backend.IsValid() {
			return nil, fmt.Errorf("unknown cache backend %q", value)
		}
		return backend.String(), nil
	default:
		return value, nil
	}
}

// Keys returns the recognised setting keys in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// SchedulerConfigFromSettings builds the scheduler configuration.
func SchedulerConfigFromSettings(settings domain.AppSettings) domain.SchedulerConfig {
	cfg := domain.DefaultSchedulerConfig()
	if settings.Scheduler.CheckInterval > 0 {
		cfg.CheckInterval = settings.Scheduler.CheckInterval
	}
	cfg.CacheRetention = settings.Cache.Retention
	return cfg
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	val := s.configStore.GetFloat(key)
	if val < 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetDuration(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getStringSlice(key string, defaultVal []string) []string {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetStringSlice(key)
}

func (s *SettingsService) getBackend(defaultVal domain.CacheBackend) domain.CacheBackend {
	val := s.configStore.GetString(keyCacheBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.CacheBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
