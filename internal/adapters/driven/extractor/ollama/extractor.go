// Package ollama provides an extractor adapter using Ollama.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 120 * time.Second

	// temperature keeps answers close to the source text.
	temperature = 0.3

	// maxTokens bounds the response length.
	maxTokens = 800
)

// Config holds configuration for the Ollama extractor.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the model to use (default: llama3.2).
	Model string

	// Timeout is the HTTP client timeout (default: 120s).
	// Callers usually bound each call with a shorter context deadline.
	Timeout time.Duration
}

// Extractor derives question/answer records using Ollama's generate API.
type Extractor struct {
	client      *http.Client
	baseURL     string
	model       string
	promptStore driven.PromptStore
}

// generateRequest is the Ollama /api/generate request format.
type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Options *options `json:"options,omitempty"`
}

// options holds generation parameters.
type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// generateResponse is the Ollama /api/generate response format.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// StatusError reports a non-200 response from Ollama.
type StatusError struct {
	StatusCode int
	Body       string

	// RetryAfter is the server's Retry-After hint, zero when absent.
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ollama error (status %d): %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed later.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusServiceUnavailable
}

// RetryAfterHint returns the server's Retry-After hint.
func (e *StatusError) RetryAfterHint() time.Duration {
	return e.RetryAfter
}

// New creates a new Ollama extractor.
func New(cfg Config) *Extractor {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Extractor{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}
}

// SetPromptStore sets the store for the customisable extraction prompt.
// If not set, the extractor uses the built-in prompt.
func (e *Extractor) SetPromptStore(store driven.PromptStore) {
	e.promptStore = store
}

// ModelName returns the name of the model being used.
func (e *Extractor) ModelName() string {
	return e.model
}

// Extract asks the model for records about one document.
func (e *Extractor) Extract(ctx context.Context, req domain.ExtractionRequest) ([]domain.DerivedRecord, error) {
	maxRecords := req.MaxRecords
	if maxRecords <= 0 {
		maxRecords = 1
	}

	prompt := fmt.Sprintf(e.loadPrompt(), req.Filename, req.SuggestedDescription, maxRecords, req.ContentPreview)

	output, err := e.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	records, err := parseRecords(output)
	if err != nil {
		return nil, &domain.ExtractionError{DocumentID: req.DocumentID, Err: err}
	}

	if len(records) > maxRecords {
		records = records[:maxRecords]
	}
	for i := range records {
		records[i].Source = req.Filename
	}
	return records, nil
}

// generate runs one non-streaming completion.
func (e *Extractor) generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Model:  e.model,
		Prompt: prompt,
		Stream: false,
		Options: &options{
			NumPredict:  maxTokens,
			Temperature: temperature,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		e.baseURL+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err != nil {
			body = []byte("failed to read response")
		}
		return "", &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return genResp.Response, nil
}

// defaultPrompt is the fallback prompt when no PromptStore is configured.
const defaultPrompt = `Write up to %[3]d questions with answers about the document below.
Use only the provided text.

DOCUMENT: %[1]s
DESCRIPTION: %[2]s

TEXT:
%[4]s

Respond ONLY with a JSON array: [{"question": "...", "answer": "..."}]`

// loadPrompt loads the prompt from the store, falling back to the default if unavailable.
func (e *Extractor) loadPrompt() string {
	if e.promptStore == nil {
		return defaultPrompt
	}
	prompt, err := e.promptStore.Load(driven.PromptExtract)
	if err != nil {
		return defaultPrompt
	}
	return prompt
}

// Ping validates the service is reachable by checking the /api/tags endpoint.
// This is a lightweight check that validates connectivity without running inference.
func (e *Extractor) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("ollama: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("ollama: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// rawRecord is one record as the model writes it.
type rawRecord struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Context  string `json:"context"`
}

var errNoRecords = errors.New("no question/answer records in response")

// parseRecords decodes model output into records. It accepts a JSON array,
// a single JSON object, and either wrapped in a markdown code fence or
// surrounded by prose. Records missing a question or answer are dropped.
func parseRecords(output string) ([]domain.DerivedRecord, error) {
	body := stripCodeFence(strings.TrimSpace(output))
	if body == "" {
		return nil, errors.New("empty response")
	}

	raw, err := decodeRecords(body)
	if err != nil {
		return nil, err
	}

	records := make([]domain.DerivedRecord, 0, len(raw))
	for _, r := range raw {
		q := strings.TrimSpace(r.Question)
		a := strings.TrimSpace(r.Answer)
		if q == "" || a == "" {
			continue
		}
		records = append(records, domain.DerivedRecord{Question: q, Answer: a})
	}
	if len(records) == 0 {
		return nil, errNoRecords
	}
	return records, nil
}

func decodeRecords(body string) ([]rawRecord, error) {
	var list []rawRecord
	if err := json.Unmarshal([]byte(body), &list); err == nil {
		return list, nil
	}
	var single rawRecord
	if err := json.Unmarshal([]byte(body), &single); err == nil {
		return []rawRecord{single}, nil
	}

	// Fall back to the outermost bracketed span.
	if start, end := strings.Index(body, "["), strings.LastIndex(body, "]"); start >= 0 && end > start {
		if err := json.Unmarshal([]byte(body[start:end+1]), &list); err == nil {
			return list, nil
		}
	}
	if start, end := strings.Index(body, "{"), strings.LastIndex(body, "}"); start >= 0 && end > start {
		if err := json.Unmarshal([]byte(body[start:end+1]), &single); err == nil {
			return []rawRecord{single}, nil
		}
	}

	return nil, fmt.Errorf("malformed response: %q", truncate(body, 80))
}

func stripCodeFence(s string) string {
	start := strings.Index(s, "```")
	if start < 0 {
		return s
	}
	rest := s[start+3:]
	// Drop the info string, e.g. "json".
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
