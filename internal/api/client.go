// Package api provides the typed HTTP client for the Talentline server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nwerner/talentline/internal/metrics"
	"github.com/nwerner/talentline/internal/models"
)

// Client is an HTTP client for the Talentline REST API. The server is
// an opaque collaborator: the client calls the endpoints exactly as
// named and performs no business computation of its own.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	metrics    *metrics.Collector
}

// Config configures a Client.
type Config struct {
	// BaseURL is the root of the API, e.g. https://app.talentline.io.
	BaseURL string
	// Token is the bearer token issued by the auth provider.
	Token string
	// Timeout applies per request. Defaults to 15s.
	Timeout time.Duration
	// Metrics is optional; request timings are recorded when set.
	Metrics *metrics.Collector
}

// New creates a new API client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		metrics: cfg.Metrics,
	}
}

// do executes one request: bearer auth, JSON bodies both ways, typed
// errors for the statuses the UI distinguishes. No automatic retry;
// failures are surfaced and the user retries manually.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.metrics != nil {
		c.metrics.RecordTiming(metrics.OpAPIRequest, time.Since(start))
	}
	if err != nil {
		return fmt.Errorf("execute request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// Rooms returns the chat rooms the current user participates in.
func (c *Client) Rooms(ctx context.Context) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	if err := c.do(ctx, http.MethodGet, "/api/chat/rooms", nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// Messages returns the full message list for a room in server order.
func (c *Client) Messages(ctx context.Context, roomID int64) ([]models.Message, error) {
	path := fmt.Sprintf("/api/chat/rooms/%d/messages", roomID)
	var messages []models.Message
	if err := c.do(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// PostMessage persists a message over plain HTTP. Fallback path for the
// scriptable CLI when no socket is open; the TUI sends over the socket.
func (c *Client) PostMessage(ctx context.Context, roomID int64, body string) (*models.Message, error) {
	path := fmt.Sprintf("/api/chat/rooms/%d/messages", roomID)
	payload := map[string]string{"body": body}
	var msg models.Message
	if err := c.do(ctx, http.MethodPost, path, payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Notifications returns the notification list, optionally unread only.
func (c *Client) Notifications(ctx context.Context, unreadOnly bool) ([]models.Notification, error) {
	path := "/api/notifications"
	if unreadOnly {
		path += "?unread=true"
	}
	var list []models.Notification
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// UnreadCount returns the number of unread notifications.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var result struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/notifications/unread-count", nil, &result); err != nil {
		return 0, err
	}
	return result.Count, nil
}

// MarkRead flags one notification as read. Idempotent server-side:
// marking an already-read notification succeeds.
func (c *Client) MarkRead(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/api/notifications/%d/read", id)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// MarkAllRead flags every notification as read.
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/notifications/read-all", nil, nil)
}

// AgentTasks returns the agent tasks for an application.
func (c *Client) AgentTasks(ctx context.Context, applicationID int64) ([]models.AgentTask, error) {
	path := "/api/agent-tasks?application_id=" + strconv.FormatInt(applicationID, 10)
	var tasks []models.AgentTask
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// RawSession returns the auth provider's session payload as-is. The
// shape varies by provider version; internal/session normalizes it.
func (c *Client) RawSession(ctx context.Context) (map[string]any, error) {
	var raw map[string]any
	if err := c.do(ctx, http.MethodGet, "/api/auth/session", nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
