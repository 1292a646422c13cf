// Package refresh provides driven.CorpusRefresher adapters.
package refresh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
	"github.com/custodia-labs/corpuswatch/internal/logger"
)

// Ensure both refreshers implement the interface.
var (
	_ driven.CorpusRefresher = (*Webhook)(nil)
	_ driven.CorpusRefresher = (*Nop)(nil)
)

// DefaultTimeout bounds one webhook call.
const DefaultTimeout = 30 * time.Second

// webhookPayload is the JSON body posted to the webhook.
type webhookPayload struct {
	DirectoryID    string   `json:"directoryId"`
	DirectoryName  string   `json:"directoryName"`
	ProcessedFiles []string `json:"processedFiles"`
}

// webhookResponse is the optional JSON reply of the webhook.
type webhookResponse struct {
	Success *bool  `json:"success"`
	Items   int    `json:"items"`
	Message string `json:"message"`
}

// Webhook posts refresh requests to an HTTP endpoint.
type Webhook struct {
	client *http.Client
	url    string
	token  string
}

// NewWebhook creates a webhook refresher. If token is set it is sent as a
// bearer token.
func NewWebhook(url, token string) *Webhook {
	return &Webhook{
		client: &http.Client{Timeout: DefaultTimeout},
		url:    url,
		token:  token,
	}
}

// Refresh posts the request. A 2xx response is a success; a JSON body may
// refine the result.
func (w *Webhook) Refresh(ctx context.Context, req domain.RefreshRequest) (domain.RefreshResult, error) {
	files := req.ProcessedFiles
	if files == nil {
		files = []string{}
	}
	body, err := json.Marshal(webhookPayload{
		DirectoryID:    req.DirectoryID,
		DirectoryName:  req.DirectoryName,
		ProcessedFiles: files,
	})
	if err != nil {
		return domain.RefreshResult{}, fmt.Errorf("marshal refresh request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return domain.RefreshResult{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return domain.RefreshResult{}, fmt.Errorf("send refresh request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return domain.RefreshResult{}, fmt.Errorf("read refresh response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.RefreshResult{}, fmt.Errorf("refresh webhook returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(data)))
	}

	result := domain.RefreshResult{Success: true, Items: len(req.ProcessedFiles)}
	var reply webhookResponse
	if len(bytes.TrimSpace(data)) > 0 && json.Unmarshal(data, &reply) == nil {
		if reply.Success != nil {
			result.Success = *reply.Success
		}
		if reply.Items > 0 {
			result.Items = reply.Items
		}
		result.Message = reply.Message
	}
	return result, nil
}

// Nop logs refresh requests without contacting anything.
type Nop struct{}

// NewNop creates a logging-only refresher.
func NewNop() *Nop {
	return &Nop{}
}

// Refresh logs the request and reports success.
func (n *Nop) Refresh(_ context.Context, req domain.RefreshRequest) (domain.RefreshResult, error) {
	logger.Info("Refresh requested for %s (%d files), no webhook configured",
		req.DirectoryName, len(req.ProcessedFiles))
	return domain.RefreshResult{
		Success: true,
		Items:   len(req.ProcessedFiles),
		Message: "no webhook configured",
	}, nil
}
