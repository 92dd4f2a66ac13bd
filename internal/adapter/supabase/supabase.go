package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chema-app/chema-core/internal/adapter/localstore"
	"github.com/chema-app/chema-core/internal/domain"
	"github.com/chema-app/chema-core/internal/port"
)

const sessionCacheKey = "auth-session"

// Client implements port.Identity against Supabase's GoTrue auth API
// and PostgREST. The session is persisted in the local cache so a
// restart does not log the user out, and refreshed lazily when the
// access token nears expiry.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	cache      *localstore.Store

	mu      sync.Mutex
	session *domain.Session

	events chan domain.AuthEvent
}

// New creates a Supabase client.
func New(baseURL, anonKey string, cache *localstore.Store) *Client {
	return &Client{
		baseURL:    baseURL,
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cache:      cache,
		events:     make(chan domain.AuthEvent, 8),
	}
}

// Events delivers auth-state transitions the adapter observes on its
// own, currently only lazy token refresh. Sign-in and sign-out are
// driven by the caller, which already handles the resulting session;
// emitting them here too would run that handling twice.
func (c *Client) Events() <-chan domain.AuthEvent {
	return c.events
}

// tokenResponse is GoTrue's grant response.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (t *tokenResponse) session() *domain.Session {
	expires := time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
	if t.ExpiresIn == 0 {
		expires = expiryFromToken(t.AccessToken)
	}
	return &domain.Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    expires,
		User:         domain.User{ID: t.User.ID, Email: t.User.Email},
	}
}

// expiryFromToken reads the exp claim without verifying the signature.
// The client is not the token authority; Supabase and the backend are.
func expiryFromToken(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Now()
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Now()
	}
	return exp.Time
}

// SignIn authenticates with email and password.
func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	payload := map[string]string{"email": email, "password": password}

	var resp tokenResponse
	if err := c.post(ctx, "/auth/v1/token?grant_type=password", "", payload, &resp); err != nil {
		return nil, fmt.Errorf("supabase: sign in: %w", err)
	}

	session := resp.session()
	c.setSession(session)
	return session, nil
}

// SignUp registers a new account and returns its session.
func (c *Client) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	payload := map[string]string{"email": email, "password": password}

	var resp tokenResponse
	if err := c.post(ctx, "/auth/v1/signup", "", payload, &resp); err != nil {
		return nil, fmt.Errorf("supabase: sign up: %w", err)
	}

	session := resp.session()
	c.setSession(session)
	return session, nil
}

// SignOut revokes the current session and clears the persisted copy.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		return nil
	}

	if err := c.post(ctx, "/auth/v1/logout", session.AccessToken, nil, nil); err != nil {
		// The remote session may already be gone; the local state is
		// cleared either way so the user lands logged out.
		slog.Warn("supabase logout call failed", "error", err)
	}

	c.setSession(nil)
	return nil
}

// SendPasswordReset requests a password-reset email.
func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	if err := c.post(ctx, "/auth/v1/recover", "", map[string]string{"email": email}, nil); err != nil {
		return fmt.Errorf("supabase: password reset: %w", err)
	}
	return nil
}

// Session returns the current session, restoring a persisted one and
// refreshing it if the access token has expired. Returns
// port.ErrNotLoggedIn when there is no session to restore.
func (c *Client) Session(ctx context.Context) (*domain.Session, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		restored, err := c.restoreSession(ctx)
		if err != nil {
			return nil, err
		}
		session = restored
	}

	if session.Expired() {
		refreshed, err := c.refreshSession(ctx, session)
		if err != nil {
			return nil, err
		}
		session = refreshed
	}

	return session, nil
}

// Profiles queries the candidate entitlement rows for a user from the
// public.users table. More than one row can come back; callers apply
// domain.SelectProfile.
func (c *Client) Profiles(ctx context.Context, userID string) ([]domain.Profile, error) {
	session, err := c.Session(ctx)
	if err != nil {
		return nil, err
	}

	path := "/rest/v1/users?select=id,plan,stripe_customer_id&id=eq." + url.QueryEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("supabase: create profiles request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase: fetch profiles: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("supabase: profiles query failed (%d): %s", resp.StatusCode, string(body))
	}

	var rows []domain.Profile
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("supabase: decode profiles: %w", err)
	}
	return rows, nil
}

// restoreSession loads the persisted session from the local cache.
func (c *Client) restoreSession(ctx context.Context) (*domain.Session, error) {
	raw, ok, err := c.cache.Get(ctx, sessionCacheKey)
	if err != nil {
		return nil, fmt.Errorf("supabase: restore session: %w", err)
	}
	if !ok {
		return nil, port.ErrNotLoggedIn
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		// Corrupt cache entry; treat as logged out rather than failing forever.
		slog.Warn("discarding unreadable cached session", "error", err)
		_ = c.cache.Delete(ctx, sessionCacheKey)
		return nil, port.ErrNotLoggedIn
	}

	c.mu.Lock()
	c.session = &session
	c.mu.Unlock()
	return &session, nil
}

// refreshSession exchanges the refresh token for a fresh access token.
func (c *Client) refreshSession(ctx context.Context, old *domain.Session) (*domain.Session, error) {
	payload := map[string]string{"refresh_token": old.RefreshToken}

	var resp tokenResponse
	if err := c.post(ctx, "/auth/v1/token?grant_type=refresh_token", "", payload, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrSessionExpired, err)
	}

	session := resp.session()
	c.setSession(session)
	c.emit(domain.AuthEvent{Kind: domain.AuthTokenRefreshed, Session: session})
	return session, nil
}

// setSession replaces the in-memory session and its persisted copy.
func (c *Client) setSession(session *domain.Session) {
	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if session == nil {
		if err := c.cache.Delete(ctx, sessionCacheKey); err != nil {
			slog.Warn("failed to clear persisted session", "error", err)
		}
		return
	}

	raw, err := json.Marshal(session)
	if err == nil {
		err = c.cache.Put(ctx, sessionCacheKey, string(raw))
	}
	if err != nil {
		slog.Warn("failed to persist session", "error", err)
	}
}

func (c *Client) emit(event domain.AuthEvent) {
	select {
	case c.events <- event:
	default:
		slog.Warn("auth event dropped, subscriber not draining", "kind", event.Kind)
	}
}

// post issues a JSON POST to a GoTrue endpoint. bearer overrides the
// anon key in the Authorization header when set.
func (c *Client) post(ctx context.Context, path, bearer string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		var e struct {
			Message     string `json:"msg"`
			Description string `json:"error_description"`
		}
		if json.Unmarshal(raw, &e) == nil {
			if e.Message != "" {
				return fmt.Errorf("auth request failed (%d): %s", resp.StatusCode, e.Message)
			}
			if e.Description != "" {
				return fmt.Errorf("auth request failed (%d): %s", resp.StatusCode, e.Description)
			}
		}
		return fmt.Errorf("auth request failed (%d)", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
