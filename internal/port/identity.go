package port

import (
	"context"

	"github.com/chema-app/chema-core/internal/domain"
)

// Identity abstracts the hosted identity provider (Supabase).
type Identity interface {
	// SignIn authenticates with email and password.
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)

	// SignUp registers a new account and returns its session.
	SignUp(ctx context.Context, email, password string) (*domain.Session, error)

	// SignOut revokes the current session.
	SignOut(ctx context.Context) error

	// Session returns the current session, restoring a persisted one
	// and refreshing it if the access token has expired.
	Session(ctx context.Context) (*domain.Session, error)

	// SendPasswordReset requests a password-reset email.
	SendPasswordReset(ctx context.Context, email string) error

	// Profiles queries the candidate entitlement rows for a user.
	// More than one row can come back (upstream duplication defect);
	// callers apply domain.SelectProfile.
	Profiles(ctx context.Context, userID string) ([]domain.Profile, error)

	// Events delivers auth-state transitions the provider observes on
	// its own (token refresh); transitions initiated through this
	// interface are not re-announced.
	Events() <-chan domain.AuthEvent
}
