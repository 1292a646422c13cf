package logger

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// capture redirects output into a buffer and restores every package
// setting when the test ends.
func capture(t *testing.T, verboseOn bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseOn)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetVerbose(false)
		SetTimestamps(false)
		now = time.Now
	})
	return &buf
}

func TestSetVerbose_Toggles(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name       string
		log        func(string, ...any)
		verbose    bool
		want       string
		suppressed bool
	}{
		{name: "debug verbose", log: Debug, verbose: true, want: "[DEBUG] scanning Docs (3 files)\n"},
		{name: "debug quiet", log: Debug, verbose: false, suppressed: true},
		{name: "info verbose", log: Info, verbose: true, want: "[INFO] scanning Docs (3 files)\n"},
		{name: "info quiet", log: Info, verbose: false, suppressed: true},
		{name: "warn verbose", log: Warn, verbose: true, want: "[WARN] scanning Docs (3 files)\n"},
		{name: "warn quiet", log: Warn, verbose: false, suppressed: true},
		{name: "error verbose", log: Error, verbose: true, want: "[ERROR] scanning Docs (3 files)\n"},
		{name: "error quiet", log: Error, verbose: false, want: "[ERROR] scanning Docs (3 files)\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, tt.verbose)

			tt.log("scanning %s (%d files)", "Docs", 3)

			if tt.suppressed {
				assert.Empty(t, buf.String())
				return
			}
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestSection_OnlyWhenVerbose(t *testing.T) {
	buf := capture(t, false)
	Section("Cycle")
	assert.Empty(t, buf.String())

	SetVerbose(true)
	Section("Cycle")
	assert.Equal(t, "\n=== Cycle ===\n", buf.String())
}

func TestSetTimestamps_PrefixesLines(t *testing.T) {
	buf := capture(t, true)
	now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600)) }
	SetTimestamps(true)

	Info("cycle done")
	Error("cycle failed")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"2025-03-01T11:00:00Z [INFO] cycle done",
		"2025-03-01T11:00:00Z [ERROR] cycle failed",
	}, lines)
}

func TestLogging_Concurrent(t *testing.T) {
	buf := capture(t, true)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if n%2 == 0 {
				SetVerbose(true)
			}
			Debug("file %d", n)
			_ = IsVerbose()
		}(i)
	}
	wg.Wait()

	assert.NotEmpty(t, buf.String())
}
