package port

import "errors"

// Sentinel errors used across ports.
var (
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrSessionExpired     = errors.New("session expired")
	ErrStoreUnavailable   = errors.New("store purchases not available on this platform")
	ErrPurchaseInFlight   = errors.New("a purchase is already in progress")
	ErrVerificationFailed = errors.New("receipt verification failed")
	ErrNoSubscription     = errors.New("no active subscription")
	ErrThreadNotFound     = errors.New("thread not found")
	ErrUpgradeRequired    = errors.New("upgrade required")
	ErrUnknownPlan        = errors.New("unknown plan")
)
