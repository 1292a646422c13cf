package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

func TestMaskToken(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short token",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long token",
			input:    "tok-1234567890abcdef",
			expected: "tok-...cdef",
		},
		{
			name:     "Empty token",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskToken(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestValueOrDefault(t *testing.T) {
	assert.Equal(t, "fallback", valueOrDefault("", "fallback"))
	assert.Equal(t, "value", valueOrDefault("value", "fallback"))
}

func TestSettingsShow_Defaults(t *testing.T) {
	setupServices(t)

	out, err := execute(t, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "[Scheduler]")
	assert.Contains(t, out, "Check interval: 5m0s")
	assert.Contains(t, out, "Backend: "+domain.CacheBackendSQLite.Description())
	assert.Contains(t, out, "Record processors: [validate dedupe truncate]")
	assert.Contains(t, out, "Address: 127.0.0.1:8765")
	assert.Contains(t, out, "authentication disabled")
	assert.NotContains(t, out, "Redis:")
}

func TestSettingsShow_IsDefault(t *testing.T) {
	setupServices(t)

	out, err := execute(t, "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "Current Settings")
}

func TestSettingsShow_MasksToken(t *testing.T) {
	ts := setupServices(t)
	require.NoError(t, ts.settings.Set("http.token", "secret-token-value"))
	require.NoError(t, ts.settings.Set("cache.backend", "redis"))

	out, err := execute(t, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Token: secr...alue")
	assert.NotContains(t, out, "secret-token-value")
	assert.Contains(t, out, "Redis: localhost:6379")
}

func TestSettingsSet(t *testing.T) {
	ts := setupServices(t)

	out, err := execute(t, "settings", "set", "scheduler.check_interval", "90s")

	require.NoError(t, err)
	assert.Contains(t, out, "scheduler.check_interval updated.")
	s, err := ts.settings.Get()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, s.Scheduler.CheckInterval)
}

func TestSettingsSet_Invalid(t *testing.T) {
	setupServices(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown key", args: []string{"settings", "set", "nope.key", "1"}},
		{name: "bad duration", args: []string{"settings", "set", "cache.retention", "soon"}},
		{name: "bad backend", args: []string{"settings", "set", "cache.backend", "etcd"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSettingsKeys(t *testing.T) {
	setupServices(t)

	out, err := execute(t, "settings", "keys")

	require.NoError(t, err)
	keys := strings.Fields(out)
	assert.Contains(t, keys, "scheduler.check_interval")
	assert.Contains(t, keys, "http.token")
	assert.IsIncreasing(t, keys)
}

func TestSettings_NotConfigured(t *testing.T) {
	useServices(&Services{})

	for _, args := range [][]string{
		{"settings", "show"},
		{"settings", "set", "a", "b"},
		{"settings", "keys"},
	} {
		_, err := execute(t, args...)
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "settings service not configured")
	}
}
