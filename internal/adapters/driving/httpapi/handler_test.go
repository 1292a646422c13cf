package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpuswatch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/services"
)

const testToken = "test-token-12345"

// mockScanner implements driving.Scanner for testing.
type mockScanner struct {
	mu      sync.Mutex
	result  *domain.ScanResult
	err     error
	scanned []string
}

func (m *mockScanner) ScanDirectory(_ context.Context, id string) (*domain.ScanResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanned = append(m.scanned, id)
	return m.result, m.err
}

func (m *mockScanner) ScanAll(_ context.Context, _ bool) ([]domain.ScanResult, error) {
	return nil, m.err
}

// mockScheduler implements driving.MonitoringScheduler for testing.
type mockScheduler struct {
	mu     sync.Mutex
	status domain.SchedulerStatus
	run    domain.RunResult
}

func (m *mockScheduler) Start(_ context.Context) error { return nil }
func (m *mockScheduler) Stop() error                   { return nil }

func (m *mockScheduler) ForceRun(_ context.Context) domain.RunResult {
	return m.run
}

func (m *mockScheduler) RunCycle(_ context.Context) domain.CycleResult {
	return domain.CycleResult{}
}

func (m *mockScheduler) SetCheckInterval(d time.Duration) error {
	if d <= 0 {
		return domain.ErrInvalidInput
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.CheckInterval = d
	return nil
}

func (m *mockScheduler) Status() domain.SchedulerStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

type testAPI struct {
	handler   http.Handler
	dirs      *services.DirectoryService
	files     *memory.FileStore
	scanner   *mockScanner
	scheduler *mockScheduler
}

func setupAPI(t *testing.T, token string) *testAPI {
	t.Helper()
	files := memory.NewFileStore()
	api := &testAPI{
		dirs:      services.NewDirectoryService(memory.NewDirectoryStore(files), files),
		files:     files,
		scanner:   &mockScanner{},
		scheduler: &mockScheduler{status: domain.SchedulerStatus{CheckInterval: 5 * time.Minute}},
	}

	handler, err := NewHandler(Deps{
		Directories: api.dirs,
		Scanner:     api.scanner,
		Scheduler:   api.scheduler,
		Token:       token,
	})
	require.NoError(t, err)
	api.handler = handler
	return api
}

func (a *testAPI) do(t *testing.T, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	return rr
}

func (a *testAPI) addDirectory(t *testing.T) *domain.WatchedDirectory {
	t.Helper()
	dir, err := a.dirs.Add(context.Background(), domain.NewWatchedDirectory(t.TempDir(), "Handbook", time.Now()))
	require.NoError(t, err)
	return dir
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body
}

func errorType(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, rr)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %s", rr.Body.String())
	return errObj["type"].(string)
}

func TestNewHandler_RequiresDirectories(t *testing.T) {
	_, err := NewHandler(Deps{})
	assert.ErrorIs(t, err, ErrMissingDirectoryService)
}

func TestBearerAuth(t *testing.T) {
	api := setupAPI(t, testToken)

	t.Run("missing token", func(t *testing.T) {
		rr := httptest.NewRecorder()
		api.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/directories", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "authentication_error", errorType(t, rr))
	})

	t.Run("wrong token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/directories", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rr := httptest.NewRecorder()
		api.handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("health is public", func(t *testing.T) {
		rr := httptest.NewRecorder()
		api.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestNoTokenDisablesAuth(t *testing.T) {
	api := setupAPI(t, "")

	rr := httptest.NewRecorder()
	api.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/directories", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestDirectories_AddAndList(t *testing.T) {
	api := setupAPI(t, testToken)
	root := t.TempDir()

	body := `{"path":"` + root + `","name":"Policies","scan_interval":"30m","file_filters":{"allowed_extensions":["TXT"]}}`
	rr := api.do(t, http.MethodPost, "/directories", body)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode(t, rr)
	assert.NotEmpty(t, created["id"])
	assert.Equal(t, "Policies", created["name"])
	assert.Equal(t, "30m0s", created["scan_interval"])
	assert.Equal(t, true, created["enabled"])
	filters := created["file_filters"].(map[string]any)
	assert.Equal(t, []any{".txt"}, filters["allowed_extensions"])

	rr = api.do(t, http.MethodGet, "/directories", "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode(t, rr)["directories"].([]any)
	assert.Len(t, list, 1)
}

func TestDirectories_AddValidation(t *testing.T) {
	api := setupAPI(t, testToken)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantType string
	}{
		{"invalid json", `{not json`, http.StatusBadRequest, "invalid_request_error"},
		{"missing path", `{"name":"x"}`, http.StatusBadRequest, "invalid_request_error"},
		{"relative path", `{"path":"docs"}`, http.StatusBadRequest, "invalid_request_error"},
		{"bad interval", `{"path":"/tmp","scan_interval":"soon"}`, http.StatusBadRequest, "invalid_request_error"},
		{"missing directory", `{"path":"/definitely/not/here"}`, http.StatusBadRequest, "invalid_request_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := api.do(t, http.MethodPost, "/directories", tt.body)
			assert.Equal(t, tt.wantCode, rr.Code, rr.Body.String())
			assert.Equal(t, tt.wantType, errorType(t, rr))
		})
	}
}

func TestDirectories_AddDuplicate(t *testing.T) {
	api := setupAPI(t, testToken)
	dir := api.addDirectory(t)

	rr := api.do(t, http.MethodPost, "/directories", `{"path":"`+dir.Path+`"}`)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "conflict_error", errorType(t, rr))
}

func TestDirectories_GetWithStats(t *testing.T) {
	api := setupAPI(t, testToken)
	dir := api.addDirectory(t)
	require.NoError(t, api.files.Save(context.Background(), &domain.MonitoredFile{
		ID:                 "file-1",
		WatchedDirectoryID: dir.ID,
		FilePath:           dir.Path + "/a.txt",
		Filename:           "a.txt",
		Status:             domain.StatusProcessed,
	}))

	rr := api.do(t, http.MethodGet, "/directories/"+dir.ID, "")

	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, dir.ID, body["directory"].(map[string]any)["id"])
	stats := body["stats"].(map[string]any)
	assert.Equal(t, float64(1), stats["total"])
	assert.Equal(t, float64(1), stats["processed"])
}

func TestDirectories_NotFound(t *testing.T) {
	api := setupAPI(t, testToken)

	for _, req := range []struct{ method, path, body string }{
		{http.MethodGet, "/directories/missing", ""},
		{http.MethodPut, "/directories/missing", `{"enabled":false}`},
		{http.MethodDelete, "/directories/missing", ""},
		{http.MethodGet, "/directories/missing/files", ""},
	} {
		rr := api.do(t, req.method, req.path, req.body)
		assert.Equal(t, http.StatusNotFound, rr.Code, "%s %s", req.method, req.path)
		assert.Equal(t, "not_found_error", errorType(t, rr))
	}
}

func TestDirectories_UpdateKeepsUnsetFields(t *testing.T) {
	api := setupAPI(t, testToken)
	dir := api.addDirectory(t)

	rr := api.do(t, http.MethodPut, "/directories/"+dir.ID, `{"enabled":false,"auto_refresh":false}`)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decode(t, rr)
	assert.Equal(t, false, body["enabled"])
	assert.Equal(t, false, body["auto_refresh"])
	assert.Equal(t, "Handbook", body["name"])
	assert.Equal(t, dir.Path, body["path"])

	got, err := api.dirs.Get(context.Background(), dir.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
	assert.Equal(t, dir.FileFilters, got.FileFilters)
}

func TestDirectories_Remove(t *testing.T) {
	api := setupAPI(t, testToken)
	dir := api.addDirectory(t)

	rr := api.do(t, http.MethodDelete, "/directories/"+dir.ID, "")

	assert.Equal(t, http.StatusNoContent, rr.Code)
	_, err := api.dirs.Get(context.Background(), dir.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDirectories_ListFiles(t *testing.T) {
	api := setupAPI(t, testToken)
	dir := api.addDirectory(t)
	ctx := context.Background()
	require.NoError(t, api.files.Save(ctx, &domain.MonitoredFile{
		ID:                 "file-1",
		WatchedDirectoryID: dir.ID,
		FilePath:           dir.Path + "/a.txt",
		Filename:           "a.txt",
		Status:             domain.StatusProcessed,
		Analysis:           &domain.ContentAnalysis{ContentType: "text", QualityScore: 70},
	}))
	require.NoError(t, api.files.Save(ctx, &domain.MonitoredFile{
		ID:                 "file-2",
		WatchedDirectoryID: dir.ID,
		FilePath:           dir.Path + "/b.tmp",
		Filename:           "b.tmp",
		Status:             domain.StatusExcluded,
		LastError:          "excluded_pattern: *.tmp",
	}))

	t.Run("all files", func(t *testing.T) {
		rr := api.do(t, http.MethodGet, "/directories/"+dir.ID+"/files", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, decode(t, rr)["files"], 2)
	})

	t.Run("filtered by status", func(t *testing.T) {
		rr := api.do(t, http.MethodGet, "/directories/"+dir.ID+"/files?status=excluded", "")
		require.Equal(t, http.StatusOK, rr.Code)
		files := decode(t, rr)["files"].([]any)
		require.Len(t, files, 1)
		assert.Equal(t, "excluded_pattern: *.tmp", files[0].(map[string]any)["last_error"])
	})

	t.Run("unknown status", func(t *testing.T) {
		rr := api.do(t, http.MethodGet, "/directories/"+dir.ID+"/files?status=deleted", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestRecentFiles(t *testing.T) {
	api := setupAPI(t, testToken)
	dir := api.addDirectory(t)
	ctx := context.Background()
	recent := time.Now().Add(-time.Hour)
	old := time.Now().Add(-72 * time.Hour)
	for _, f := range []domain.MonitoredFile{
		{ID: "file-1", WatchedDirectoryID: dir.ID, FilePath: dir.Path + "/a.txt", Status: domain.StatusProcessed, ProcessedAt: &recent},
		{ID: "file-2", WatchedDirectoryID: dir.ID, FilePath: dir.Path + "/b.txt", Status: domain.StatusProcessed, ProcessedAt: &old},
	} {
		require.NoError(t, api.files.Save(ctx, &f))
	}

	tests := []struct {
		name     string
		url      string
		wantCode int
		wantLen  int
	}{
		{name: "default window", url: "/files/recent", wantCode: http.StatusOK, wantLen: 1},
		{name: "duration", url: "/files/recent?since=96h", wantCode: http.StatusOK, wantLen: 2},
		{name: "timestamp", url: "/files/recent?since=" + time.Now().Add(-2*time.Hour).UTC().Format(time.RFC3339), wantCode: http.StatusOK, wantLen: 1},
		{name: "one directory", url: "/files/recent?since=96h&directory=" + dir.ID, wantCode: http.StatusOK, wantLen: 2},
		{name: "unknown directory", url: "/files/recent?directory=nope", wantCode: http.StatusNotFound},
		{name: "bad since", url: "/files/recent?since=yesterday", wantCode: http.StatusBadRequest},
		{name: "negative since", url: "/files/recent?since=-1h", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := api.do(t, http.MethodGet, tt.url, "")

			require.Equal(t, tt.wantCode, rr.Code, rr.Body.String())
			if tt.wantCode == http.StatusOK {
				assert.Len(t, decode(t, rr)["files"], tt.wantLen)
			}
		})
	}
}

func TestWriteDomainError_ScanInProgress(t *testing.T) {
	rr := httptest.NewRecorder()

	writeDomainError(rr, fmt.Errorf("%w: Handbook", domain.ErrScanInProgress))

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestScanDirectory(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		api := setupAPI(t, testToken)
		result := &domain.ScanResult{DirectoryID: "dir-1", DirectoryName: "Handbook"}
		result.Add(domain.FileScanResult{FilePath: "/h/a.txt", Classification: domain.ClassNew, Status: domain.StatusProcessed, Processed: true})
		api.scanner.result = result

		rr := api.do(t, http.MethodPost, "/directories/dir-1/scan", "")

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		body := decode(t, rr)
		assert.Equal(t, true, body["success"])
		scan := body["scan"].(map[string]any)
		assert.Equal(t, float64(1), scan["new"])
		assert.Equal(t, float64(1), scan["processed"])
		assert.Equal(t, []string{"dir-1"}, api.scanner.scanned)
	})

	t.Run("failure", func(t *testing.T) {
		api := setupAPI(t, testToken)
		api.scanner.err = errors.New("disk unplugged")

		rr := api.do(t, http.MethodPost, "/directories/dir-1/scan", "")

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		body := decode(t, rr)
		assert.Equal(t, false, body["success"])
		assert.Contains(t, body["error"], "disk unplugged")
	})

	t.Run("in progress", func(t *testing.T) {
		api := setupAPI(t, testToken)
		api.scanner.err = domain.ErrScanInProgress

		rr := api.do(t, http.MethodPost, "/directories/dir-1/scan", "")

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, false, decode(t, rr)["success"])
	})

	t.Run("unknown directory", func(t *testing.T) {
		api := setupAPI(t, testToken)
		api.scanner.err = domain.ErrNotFound

		rr := api.do(t, http.MethodPost, "/directories/dir-1/scan", "")

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestScheduler_Status(t *testing.T) {
	api := setupAPI(t, testToken)
	api.scheduler.status.Running = true
	api.scheduler.status.LastCycle = &domain.CycleResult{Trigger: domain.TriggerTimer, Success: true, FilesProcessed: 3}

	rr := api.do(t, http.MethodGet, "/scheduler/status", "")

	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, true, body["running"])
	assert.Equal(t, "5m0s", body["check_interval"])
	cycle := body["last_cycle"].(map[string]any)
	assert.Equal(t, "timer", cycle["trigger"])
	assert.Equal(t, float64(3), cycle["files_processed"])
}

func TestScheduler_ForceRun(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		api := setupAPI(t, testToken)
		api.scheduler.run = domain.RunResult{Success: true, Scans: []domain.ScanResult{{DirectoryID: "dir-1"}}}

		rr := api.do(t, http.MethodPost, "/scheduler/run", "")

		require.Equal(t, http.StatusOK, rr.Code)
		body := decode(t, rr)
		assert.Equal(t, true, body["success"])
		assert.Len(t, body["scans"], 1)
	})

	t.Run("failure", func(t *testing.T) {
		api := setupAPI(t, testToken)
		api.scheduler.run = domain.RunResult{Success: false, Error: "dir-1: directory unavailable"}

		rr := api.do(t, http.MethodPost, "/scheduler/run", "")

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		body := decode(t, rr)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "dir-1: directory unavailable", body["error"])
	})
}

func TestScheduler_SetInterval(t *testing.T) {
	api := setupAPI(t, testToken)

	rr := api.do(t, http.MethodPut, "/scheduler/interval", `{"interval":"10m"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "10m0s", decode(t, rr)["check_interval"])

	rr = api.do(t, http.MethodPut, "/scheduler/interval", `{"interval":"often"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = api.do(t, http.MethodPut, "/scheduler/interval", `{"interval":"-1m"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSchedulerRoutes_Unavailable(t *testing.T) {
	files := memory.NewFileStore()
	handler, err := NewHandler(Deps{Directories: services.NewDirectoryService(memory.NewDirectoryStore(files), files)})
	require.NoError(t, err)

	for _, req := range []struct{ method, path string }{
		{http.MethodGet, "/scheduler/status"},
		{http.MethodPost, "/scheduler/run"},
		{http.MethodPost, "/directories/x/scan"},
	} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(req.method, req.path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code, req.path)
	}
}

func TestStats(t *testing.T) {
	api := setupAPI(t, testToken)
	dir := api.addDirectory(t)
	require.NoError(t, api.files.Save(context.Background(), &domain.MonitoredFile{
		ID:                 "file-1",
		WatchedDirectoryID: dir.ID,
		FilePath:           dir.Path + "/a.txt",
		Status:             domain.StatusError,
	}))

	rr := api.do(t, http.MethodGet, "/stats", "")

	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, float64(1), body["active_directories"])
	assert.Equal(t, float64(1), body["total_directories"])
	assert.Equal(t, float64(1), body["total_files"])
	assert.Equal(t, float64(1), body["errors"])
}
