// Package n8n provides a read-only client for the n8n public REST API.
package n8n

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flowlens/flowlens/pkg/models"
)

const (
	// DefaultTimeout bounds every upstream call. On expiry the error is
	// reported as ErrUpstreamTimeout, never as a hang.
	DefaultTimeout = 15 * time.Second

	apiKeyHeader = "X-N8N-API-KEY"
	pageSize     = 100
)

// ErrUpstreamTimeout is returned when an n8n API call exceeds the client
// deadline.
var ErrUpstreamTimeout = errors.New("upstream request timed out")

// StatusError is a non-2xx response from the n8n API. Message carries the
// upstream "message" field when the error body is JSON, otherwise the raw
// body text.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return fmt.Sprintf("HTTP error! status: %d", e.Status)
}

// IsStatusError extracts a StatusError from an error chain.
func IsStatusError(err error) (*StatusError, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr, true
	}

	return nil, false
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for one n8n instance. A trailing slash on
// baseURL is stripped so request paths compose cleanly.
func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: logger.With("module", "n8n_client"),
	}
}

// BaseURL returns the normalized instance URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type workflowListPage struct {
	Data       []models.WorkflowListItem `json:"data"`
	NextCursor string                    `json:"nextCursor"`
}

// ListWorkflows pages through the workflow list until no continuation cursor
// remains. Any page failure aborts the whole listing: partial workflow sets
// would silently drop schedule triggers downstream.
func (c *Client) ListWorkflows(ctx context.Context) ([]models.WorkflowListItem, error) {
	var (
		all    []models.WorkflowListItem
		cursor string
	)

	for {
		endpoint := c.baseURL + "/api/v1/workflows?limit=" + fmt.Sprint(pageSize)
		if cursor != "" {
			endpoint += "&cursor=" + url.QueryEscape(cursor)
		}

		var page workflowListPage
		if err := c.getJSON(ctx, endpoint, &page); err != nil {
			return nil, fmt.Errorf("list workflows: %w", err)
		}

		all = append(all, page.Data...)

		if page.NextCursor == "" {
			return all, nil
		}

		cursor = page.NextCursor
	}
}

// Ping probes the instance with a one-item workflow list. It verifies both
// reachability and API key validity without pulling the full workflow set.
func (c *Client) Ping(ctx context.Context) error {
	var page workflowListPage
	if err := c.getJSON(ctx, c.baseURL+"/api/v1/workflows?limit=1", &page); err != nil {
		return fmt.Errorf("test connection: %w", err)
	}

	return nil
}

type workflowEnvelope struct {
	Data *models.Workflow `json:"data"`
}

// GetWorkflow fetches the full workflow document, including node parameters
// and credentials. Some n8n versions wrap the document in a "data" envelope;
// both forms are accepted.
func (c *Client) GetWorkflow(ctx context.Context, workflowID string) (*models.Workflow, error) {
	endpoint := c.baseURL + "/api/v1/workflows/" + url.PathEscape(workflowID)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("get workflow %s: %w", workflowID, err)
	}

	var envelope workflowEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Data != nil && envelope.Data.ID != "" {
		return envelope.Data, nil
	}

	var workflow models.Workflow
	if err := json.Unmarshal(body, &workflow); err != nil {
		return nil, fmt.Errorf("get workflow %s: decode response: %w", workflowID, err)
	}

	return &workflow, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.logger.Warn("Upstream request timed out", "endpoint", endpoint)

			return nil, ErrUpstreamTimeout
		}

		return nil, err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Status:  resp.StatusCode,
			Message: errorMessage(body, resp.StatusCode),
		}
	}

	return body, nil
}

// errorMessage pulls the "message" field out of a JSON error body, falling
// back to the raw text and then to a generic status line.
func errorMessage(body []byte, status int) string {
	var payload struct {
		Message string `json:"message"`
	}

	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}

	return fmt.Sprintf("HTTP error! status: %d", status)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr interface{ Timeout() bool }

	return errors.As(err, &netErr) && netErr.Timeout()
}
