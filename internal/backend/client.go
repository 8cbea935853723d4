// Package backend is the HTTP client of the chat service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"chat-widget/internal/content"

	"github.com/rs/zerolog/log"
)

const (
	DefaultQueryPath = "/api/chat/query"
	DefaultClearPath = "/api/clearChatHistory"

	maxBodySize = 4 << 20
)

// Client talks to the chat service.
type Client struct {
	baseURL    string
	queryPath  string
	clearPath  string
	httpClient *http.Client
	timeout    time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithPaths overrides the query and clear-history endpoints. Empty values
// keep the defaults.
func WithPaths(query, clear string) Option {
	return func(c *Client) {
		if query != "" {
			c.queryPath = query
		}
		if clear != "" {
			c.clearPath = clear
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the service at baseURL. Every call is
// bounded by timeout.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		queryPath:  DefaultQueryPath,
		clearPath:  DefaultClearPath,
		httpClient: &http.Client{},
		timeout:    timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query sends a chat message and returns the assistant reply.
func (c *Client) Query(ctx context.Context, req QueryRequest) (Reply, error) {
	const op = "query"

	status, body, err := c.post(ctx, op, c.queryPath, req)
	if err != nil {
		return Reply{}, err
	}

	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Reply{}, &ProtocolError{Op: op, Status: status, Err: err}
	}

	if status < 200 || status > 299 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		log.Debug().Int("status", status).Str("error", eb.Error).Msg("chat query rejected")
		return Reply{}, &ApplicationError{Op: op, Status: status, Message: eb.Error}
	}

	reply := parseReply(raw)
	log.Debug().
		Int("status", status).
		Str("thread_id", reply.ThreadID).
		Str("kind", reply.Content.Kind().String()).
		Msg("chat query answered")
	return reply, nil
}

// ClearHistory asks the service to forget the conversation of userID. The
// response body is ignored.
func (c *Client) ClearHistory(ctx context.Context, userID string) error {
	const op = "clear history"

	status, _, err := c.post(ctx, op, c.clearPath, clearRequest{UserID: userID})
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return &ApplicationError{Op: op, Status: status}
	}
	return nil
}

// parseReply accepts either {"text": ..., "thread_id": ...} or a bare JSON
// string. The text field may itself hold a structured payload.
func parseReply(raw json.RawMessage) Reply {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return Reply{Content: content.Text(s)}
	}

	var body struct {
		Text     json.RawMessage `json:"text"`
		ThreadID json.RawMessage `json:"thread_id"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return Reply{Content: content.Text("")}
	}
	return Reply{
		Content:  content.Decode(body.Text),
		ThreadID: threadID(body.ThreadID),
	}
}

func threadID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func (c *Client) post(ctx context.Context, op, path string, payload any) (int, []byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal %s request: %w", op, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return 0, nil, &TransportError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, &TransportError{Op: op, Err: classify(ctx, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, nil, &TransportError{Op: op, Err: classify(ctx, err)}
	}
	return resp.StatusCode, body, nil
}

// classify tags deadline failures with ErrTimeout.
func classify(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
