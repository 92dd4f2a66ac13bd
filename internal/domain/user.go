package domain

import "time"

// User is the authenticated identity issued by the identity provider.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session holds the identity provider tokens for the current user.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Expired reports whether the access token has passed its expiry,
// with a small margin so a token is refreshed before it actually lapses.
func (s *Session) Expired() bool {
	if s == nil {
		return true
	}
	return time.Now().After(s.ExpiresAt.Add(-30 * time.Second))
}

// AuthEventKind identifies an identity-provider session transition.
type AuthEventKind string

const (
	AuthSignedIn       AuthEventKind = "signed_in"
	AuthSignedOut      AuthEventKind = "signed_out"
	AuthTokenRefreshed AuthEventKind = "token_refreshed"
)

// AuthEvent is delivered on the identity adapter's event stream.
type AuthEvent struct {
	Kind    AuthEventKind
	Session *Session // nil for signed_out
}
