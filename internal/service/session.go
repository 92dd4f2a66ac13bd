package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chema-app/chema-core/internal/adapter/localstore"
	"github.com/chema-app/chema-core/internal/domain"
	"github.com/chema-app/chema-core/internal/port"
)

const profileCacheKey = "entitlement-profile"

// Snapshot is a consistent view of the session state: either both
// fields from before a replace or both from after, never a mix.
type Snapshot struct {
	User    *domain.User    `json:"user"`
	Profile *domain.Profile `json:"profile"`
}

// Plan returns the effective plan tier, free when no profile is loaded.
func (s Snapshot) Plan() domain.PlanTier {
	if s.Profile == nil {
		return domain.PlanFree
	}
	return s.Profile.Plan
}

// SessionService is the single source of truth for who is logged in
// and what plan they have. The entitlement record is replaced
// wholesale after a server-confirmed refresh and never mutated in
// place; a failed refresh retains the previous record so a transient
// network blip does not downgrade a paid user.
type SessionService struct {
	identity port.Identity
	biller   port.Biller
	cache    *localstore.Store

	mu      sync.RWMutex
	user    *domain.User
	profile *domain.Profile

	subsMu sync.Mutex
	subs   []func(Snapshot)
}

// NewSessionService creates the session/entitlement store.
func NewSessionService(identity port.Identity, biller port.Biller, cache *localstore.Store) *SessionService {
	return &SessionService{identity: identity, biller: biller, cache: cache}
}

// Current returns a consistent snapshot for feature gating.
func (s *SessionService) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{User: s.user, Profile: s.profile}
}

// UserID returns the current user id, or port.ErrNotLoggedIn.
func (s *SessionService) UserID() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return "", port.ErrNotLoggedIn
	}
	return s.user.ID, nil
}

// Subscribe registers a callback invoked after every state replace.
func (s *SessionService) Subscribe(fn func(Snapshot)) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	s.subs = append(s.subs, fn)
}

// Start restores the persisted session, provisions the backend profile
// row, loads the entitlement record (cached copy first for a warm
// start), and begins consuming identity events. It returns once the
// initial state is settled; the event loop runs until ctx ends.
func (s *SessionService) Start(ctx context.Context) {
	session, err := s.identity.Session(ctx)
	switch {
	case err == nil:
		s.handleSignIn(ctx, session)
	case errors.Is(err, port.ErrNotLoggedIn):
		slog.Info("no persisted session, starting logged out")
	default:
		slog.Warn("session restore failed", "error", err)
	}

	go s.run(ctx)
}

func (s *SessionService) run(ctx context.Context) {
	for {
		select {
		case event := <-s.identity.Events():
			switch event.Kind {
			case domain.AuthSignedIn:
				s.handleSignIn(ctx, event.Session)
			case domain.AuthSignedOut:
				s.replace(nil, nil)
				s.clearCachedProfile(ctx)
			case domain.AuthTokenRefreshed:
				if err := s.Refresh(ctx); err != nil {
					slog.Warn("refresh after token rotation failed", "error", err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *SessionService) handleSignIn(ctx context.Context, session *domain.Session) {
	user := session.User
	s.replace(&user, s.cachedProfile(ctx, user.ID))

	// Fire-and-forget provisioning; the backend creates the profile
	// row if it does not exist yet.
	if err := s.biller.SyncUser(ctx, user.ID); err != nil {
		slog.Warn("sync-user failed", "user_id", user.ID, "error", err)
	}

	if err := s.Refresh(ctx); err != nil {
		slog.Warn("initial profile refresh failed", "user_id", user.ID, "error", err)
	}
}

// Refresh fetches the entitlement record for the current user, applies
// the multi-row preference rule, and replaces the stored record
// atomically. On failure the previous record is kept.
func (s *SessionService) Refresh(ctx context.Context) error {
	s.mu.RLock()
	user := s.user
	s.mu.RUnlock()

	if user == nil {
		return port.ErrNotLoggedIn
	}

	rows, err := s.identity.Profiles(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("refresh profile: %w", err)
	}

	profile := domain.SelectProfile(rows)
	if profile == nil {
		slog.Warn("no profile row for user", "user_id", user.ID)
	}

	s.replace(user, profile)
	s.cacheProfile(ctx, profile)
	return nil
}

// SignIn authenticates and settles the session state before returning.
func (s *SessionService) SignIn(ctx context.Context, email, password string) error {
	session, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	s.handleSignIn(ctx, session)
	return nil
}

// SignUp registers an account and settles the session state.
func (s *SessionService) SignUp(ctx context.Context, email, password string) error {
	session, err := s.identity.SignUp(ctx, email, password)
	if err != nil {
		return err
	}
	s.handleSignIn(ctx, session)
	return nil
}

// Logout revokes the identity session and clears local state.
func (s *SessionService) Logout(ctx context.Context) error {
	if err := s.identity.SignOut(ctx); err != nil {
		return err
	}
	s.replace(nil, nil)
	s.clearCachedProfile(ctx)
	return nil
}

// SendPasswordReset requests a password-reset email.
func (s *SessionService) SendPasswordReset(ctx context.Context, email string) error {
	return s.identity.SendPasswordReset(ctx, email)
}

// replace swaps the whole record and notifies subscribers. Readers see
// either the old pair or the new pair, never a mix.
func (s *SessionService) replace(user *domain.User, profile *domain.Profile) {
	s.mu.Lock()
	s.user = user
	s.profile = profile
	snapshot := Snapshot{User: user, Profile: profile}
	s.mu.Unlock()

	s.subsMu.Lock()
	subs := make([]func(Snapshot), len(s.subs))
	copy(subs, s.subs)
	s.subsMu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

func (s *SessionService) cachedProfile(ctx context.Context, userID string) *domain.Profile {
	if s.cache == nil {
		return nil
	}
	raw, ok, err := s.cache.Get(ctx, profileCacheKey)
	if err != nil || !ok {
		return nil
	}
	var profile domain.Profile
	if json.Unmarshal([]byte(raw), &profile) != nil || profile.ID != userID {
		return nil
	}
	return &profile
}

func (s *SessionService) cacheProfile(ctx context.Context, profile *domain.Profile) {
	if s.cache == nil {
		return
	}
	if profile == nil {
		s.clearCachedProfile(ctx)
		return
	}
	raw, err := json.Marshal(profile)
	if err == nil {
		err = s.cache.Put(ctx, profileCacheKey, string(raw))
	}
	if err != nil {
		slog.Warn("failed to cache profile", "error", err)
	}
}

func (s *SessionService) clearCachedProfile(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, profileCacheKey); err != nil {
		slog.Warn("failed to clear cached profile", "error", err)
	}
}
