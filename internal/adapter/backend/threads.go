package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/chema-app/chema-core/internal/domain"
	"github.com/chema-app/chema-core/internal/port"
)

// threadErr maps a backend 404 on a thread-scoped route to the
// thread-not-found sentinel.
func threadErr(err error) error {
	if err != nil && httpStatus(err) == http.StatusNotFound {
		return fmt.Errorf("%w: %v", port.ErrThreadNotFound, err)
	}
	return err
}

// CurrentThread returns the user's active thread, creating one server-side
// if none exists.
func (c *Client) CurrentThread(ctx context.Context, userID string) (*domain.Thread, error) {
	var resp struct {
		Hilo domain.Thread `json:"hilo"`
	}
	path := "/api/hilos/current?user_id=" + url.QueryEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Hilo, nil
}

// Threads lists all threads for a user.
func (c *Client) Threads(ctx context.Context, userID string) ([]domain.Thread, error) {
	var resp struct {
		Hilos []domain.Thread `json:"hilos"`
	}
	path := "/api/hilos?user_id=" + url.QueryEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Hilos, nil
}

// CreateThread creates a new thread with the given title.
func (c *Client) CreateThread(ctx context.Context, userID, title string) (*domain.Thread, error) {
	payload := map[string]string{"user_id": userID, "title": title}

	var resp struct {
		Hilo domain.Thread `json:"hilo"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/hilos", "", payload, &resp); err != nil {
		return nil, err
	}
	return &resp.Hilo, nil
}

// ActivateThread marks a thread as the user's active one.
func (c *Client) ActivateThread(ctx context.Context, threadID string) error {
	return threadErr(c.do(ctx, http.MethodPost, "/api/hilos/"+url.PathEscape(threadID)+"/activate", "", nil, nil))
}

// RenameThread changes a thread's title.
func (c *Client) RenameThread(ctx context.Context, threadID, title string) error {
	payload := map[string]string{"title": title}
	return threadErr(c.do(ctx, http.MethodPatch, "/api/hilos/"+url.PathEscape(threadID), "", payload, nil))
}

// DeleteThread removes a thread and its messages.
func (c *Client) DeleteThread(ctx context.Context, threadID string) error {
	return threadErr(c.do(ctx, http.MethodDelete, "/api/hilos/"+url.PathEscape(threadID), "", nil, nil))
}

// Messages lists the most recent messages of a thread.
func (c *Client) Messages(ctx context.Context, threadID string, limit int) ([]domain.Message, error) {
	var resp struct {
		Messages []domain.Message `json:"messages"`
	}
	path := fmt.Sprintf("/api/hilos/%s/messages?limit=%s",
		url.PathEscape(threadID), strconv.Itoa(limit))
	if err := c.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, threadErr(err)
	}
	return resp.Messages, nil
}

// AppendMessage saves a message to a thread and returns the stored copy.
func (c *Client) AppendMessage(ctx context.Context, threadID string, m domain.Message) (*domain.Message, error) {
	payload := map[string]string{"role": m.Role, "content": m.Content}

	var resp struct {
		Message domain.Message `json:"message"`
	}
	path := "/api/hilos/" + url.PathEscape(threadID) + "/messages"
	if err := c.do(ctx, http.MethodPost, path, "", payload, &resp); err != nil {
		return nil, threadErr(err)
	}
	return &resp.Message, nil
}
