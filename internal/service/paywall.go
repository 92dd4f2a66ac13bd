package service

import (
	"context"

	"github.com/chema-app/chema-core/internal/domain"
	"github.com/chema-app/chema-core/internal/port"
)

// UpgradeResult tells the shell how an upgrade proceeds: either the
// native purchase flow was started (result arrives via alerts), or a
// web checkout URL must be opened externally.
type UpgradeResult struct {
	CheckoutURL string `json:"checkout_url,omitempty"`
	Started     bool   `json:"started"`
}

// Paywall is the platform purchase capability. One implementation is
// chosen at startup so platform differences live here instead of in
// scattered conditionals.
type Paywall interface {
	// Upgrade begins the purchase flow for a paid plan.
	Upgrade(ctx context.Context, plan domain.PlanTier) (UpgradeResult, error)
}

// StorePaywall upgrades through the native in-app purchase flow.
type StorePaywall struct {
	reconciler *Reconciler
}

// NewStorePaywall creates the in-app purchase paywall.
func NewStorePaywall(reconciler *Reconciler) *StorePaywall {
	return &StorePaywall{reconciler: reconciler}
}

// Upgrade starts a store purchase; the terminal result is surfaced
// later through the alert center once the store responds.
func (p *StorePaywall) Upgrade(ctx context.Context, plan domain.PlanTier) (UpgradeResult, error) {
	if err := p.reconciler.Purchase(ctx, plan); err != nil {
		return UpgradeResult{}, err
	}
	return UpgradeResult{Started: true}, nil
}

// WebPaywall upgrades through Stripe web checkout.
type WebPaywall struct {
	biller  port.Biller
	session *SessionService
}

// NewWebPaywall creates the web checkout paywall.
func NewWebPaywall(biller port.Biller, session *SessionService) *WebPaywall {
	return &WebPaywall{biller: biller, session: session}
}

// Upgrade creates a checkout session and returns its URL for the shell
// to open externally.
func (p *WebPaywall) Upgrade(ctx context.Context, plan domain.PlanTier) (UpgradeResult, error) {
	if _, ok := domain.ProductForPlan(plan); !ok {
		return UpgradeResult{}, port.ErrUnknownPlan
	}
	userID, err := p.session.UserID()
	if err != nil {
		return UpgradeResult{}, err
	}

	url, err := p.biller.CreateCheckoutSession(ctx, userID, plan)
	if err != nil {
		return UpgradeResult{}, err
	}
	return UpgradeResult{CheckoutURL: url, Started: true}, nil
}
