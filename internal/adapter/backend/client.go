package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chema-app/chema-core/internal/domain"
)

// Client is the HTTP client for the remote Chema backend. It implements
// port.Biller, port.Assistant, port.ThreadStore, and port.JournalStore.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a backend client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// apiError is the backend's error envelope.
type apiError struct {
	Error string `json:"error"`
}

// statusError carries the backend's HTTP status so callers can map
// specific rejections to port sentinels.
type statusError struct {
	status int
	detail string
}

func (e *statusError) Error() string { return e.detail }

// httpStatus returns the backend status behind err, or 0 when err did
// not come from a backend response.
func httpStatus(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.status
	}
	return 0
}

// do issues a JSON request and decodes the response body into out (if
// non-nil). userID, when set, is sent as the X-User-ID header.
func (c *Client) do(ctx context.Context, method, path, userID string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("backend: encode %s: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("backend: create request %s: %w", path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		detail := fmt.Sprintf("backend: %s %s failed (%d)", method, path, resp.StatusCode)
		var e apiError
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			detail = fmt.Sprintf("backend: %s %s (%d): %s", method, path, resp.StatusCode, e.Error)
		}
		return &statusError{status: resp.StatusCode, detail: detail}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("backend: decode %s: %w", path, err)
		}
	}
	return nil
}

// Ask sends the question with prior history and returns the assistant reply.
func (c *Client) Ask(ctx context.Context, question string, history []domain.Message) (string, error) {
	payload := map[string]interface{}{
		"question": question,
		"messages": history,
	}

	var resp struct {
		Reply string `json:"reply"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/ask", "", payload, &resp); err != nil {
		return "", err
	}
	return resp.Reply, nil
}

// SyncUser asks the backend to provision the user's profile row.
func (c *Client) SyncUser(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodPost, "/sync-user", "", map[string]string{"user_id": userID}, nil)
}
