package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/chema-app/chema-core/internal/domain"
	"github.com/chema-app/chema-core/internal/port"
)

// PurchaseState names the reconciler's position in a purchase attempt.
type PurchaseState int

const (
	StateIdle PurchaseState = iota
	StatePurchasing
	StateVerifying
	StateFinalizing
	StateRefreshing
)

func (s PurchaseState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePurchasing:
		return "purchasing"
	case StateVerifying:
		return "verifying"
	case StateFinalizing:
		return "finalizing"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// Reconciler coordinates the purchase lifecycle so a paid tier is never
// granted without backend-verified proof of payment, and the store and
// the app never disagree about whether a transaction is open.
//
// Per attempt: Idle → Purchasing → Verifying → Finalizing → Refreshing
// → Idle. Verification must succeed before finalization, and
// finalization happens before the entitlement refresh is trusted:
// finalizing first would mark the purchase delivered even if the
// backend rejects the receipt, losing the ability to re-verify it
// through the normal purchase-update channel.
type Reconciler struct {
	store       port.StoreClient
	biller      port.Biller
	session     *SessionService
	notifier    port.Notifier
	environment string // "sandbox" or "production"

	mu    sync.Mutex
	state PurchaseState
	since time.Time
}

// NewReconciler creates the entitlement reconciler.
func NewReconciler(store port.StoreClient, biller port.Biller, session *SessionService, notifier port.Notifier, environment string) *Reconciler {
	return &Reconciler{
		store:       store,
		biller:      biller,
		session:     session,
		notifier:    notifier,
		environment: environment,
	}
}

// State returns the current machine state.
func (r *Reconciler) State() PurchaseState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Run consumes store purchase events until ctx ends. Each event is
// handled to completion before the next is taken, so verify → finalize
// → refresh for one purchase never interleaves with another.
func (r *Reconciler) Run(ctx context.Context) {
	for {
		select {
		case p := <-r.store.Updates():
			r.handlePurchase(ctx, p)
		case e := <-r.store.Errors():
			r.handlePurchaseError(e)
		case <-ctx.Done():
			return
		}
	}
}

// Purchase starts the store purchase flow for a paid plan. While an
// attempt is unresolved, further initiation requests are rejected with
// port.ErrPurchaseInFlight and produce no alert.
func (r *Reconciler) Purchase(ctx context.Context, plan domain.PlanTier) error {
	sku, ok := domain.ProductForPlan(plan)
	if !ok {
		return port.ErrUnknownPlan
	}

	if _, err := r.session.UserID(); err != nil {
		r.notifier.Notify(domain.Alert{
			Kind:    domain.AlertError,
			Title:   "Error",
			Message: "Please log in to subscribe.",
		})
		return err
	}

	r.mu.Lock()
	if r.state != StateIdle {
		state := r.state
		r.mu.Unlock()
		slog.Info("purchase ignored, attempt in flight", "state", state)
		return port.ErrPurchaseInFlight
	}
	r.state = StatePurchasing
	r.since = time.Now()
	r.mu.Unlock()

	if err := r.store.RequestSubscription(ctx, sku); err != nil {
		r.setState(StateIdle)
		if errors.Is(err, port.ErrStoreUnavailable) {
			r.notifier.Notify(domain.Alert{
				Kind:    domain.AlertError,
				Title:   "Not Available",
				Message: "In-app purchases are not available on this device.",
			})
		} else {
			slog.Error("subscription request failed", "sku", sku, "error", err)
			r.notifier.Notify(domain.Alert{
				Kind:    domain.AlertError,
				Title:   "Purchase Failed",
				Message: "Could not start the purchase. Please try again.",
			})
		}
		return err
	}

	slog.Info("purchase requested", "sku", sku, "plan", plan)
	return nil
}

// handlePurchase runs the verify → finalize → refresh sequence for a
// store-delivered purchase result.
func (r *Reconciler) handlePurchase(ctx context.Context, p domain.Purchase) {
	userID, err := r.session.UserID()
	if err != nil {
		// A purchase result with no authenticated user: never contact
		// the backend, leave the transaction open for restore.
		r.setState(StateIdle)
		r.notifier.Notify(domain.Alert{
			Kind:    domain.AlertError,
			Title:   "Error",
			Message: "Please log in to complete your purchase.",
		})
		return
	}

	r.setState(StateVerifying)
	slog.Info("verifying purchase", "product_id", p.ProductID, "transaction_id", p.TransactionID)

	verification := domain.ReceiptVerification{
		ReceiptData:   p.TransactionReceipt,
		ProductID:     p.ProductID,
		TransactionID: p.TransactionID,
		Environment:   r.environment,
	}
	if err := r.biller.VerifyReceipt(ctx, userID, verification); err != nil {
		// Not finalized: the store keeps the transaction open so it
		// stays reachable through retry or restore.
		slog.Error("receipt verification failed", "transaction_id", p.TransactionID, "error", err)
		r.setState(StateIdle)
		r.notifier.Notify(domain.Alert{
			Kind:    domain.AlertError,
			Title:   "Verification Failed",
			Message: "We couldn't verify your purchase. Please try again or use Restore Purchases.",
		})
		return
	}

	r.setState(StateFinalizing)
	if err := r.store.FinishTransaction(ctx, p, false); err != nil {
		// The backend has already granted the plan; the store will
		// redeliver the open transaction and finalization is retried
		// through the normal purchase-update path.
		slog.Warn("finish transaction failed", "transaction_id", p.TransactionID, "error", err)
	}

	r.setState(StateRefreshing)
	if err := r.session.Refresh(ctx); err != nil {
		slog.Warn("entitlement refresh after purchase failed", "error", err)
	}

	r.setState(StateIdle)
	r.notifier.Notify(domain.Alert{
		Kind:    domain.AlertSuccess,
		Title:   "Success!",
		Message: "Your subscription is now active.",
	})
}

// handlePurchaseError maps a store purchase failure back to Idle.
// User cancellation is silent; everything else surfaces one alert.
func (r *Reconciler) handlePurchaseError(e domain.PurchaseError) {
	r.setState(StateIdle)

	if e.Cancelled() {
		slog.Info("purchase cancelled by user")
		return
	}

	slog.Error("purchase failed", "code", e.Code, "message", e.Message)
	r.notifier.Notify(domain.Alert{
		Kind:    domain.AlertError,
		Title:   "Purchase Failed",
		Message: "Something went wrong with your purchase. Please try again.",
	})
}

// Restore re-derives entitlement from previously-owned store purchases:
// every owned purchase with a receipt is re-verified with the backend,
// the entitlement record is refreshed once, and one aggregate alert is
// emitted. Zero owned purchases means zero backend calls.
func (r *Reconciler) Restore(ctx context.Context) (domain.RestoreSummary, error) {
	var summary domain.RestoreSummary

	userID, err := r.session.UserID()
	if err != nil {
		r.notifier.Notify(domain.Alert{
			Kind:    domain.AlertError,
			Title:   "Error",
			Message: "Please log in to restore purchases.",
		})
		return summary, err
	}

	purchases, err := r.store.AvailablePurchases(ctx)
	if err != nil {
		if errors.Is(err, port.ErrStoreUnavailable) {
			r.notifier.Notify(domain.Alert{
				Kind:    domain.AlertError,
				Title:   "Not Available",
				Message: "Restore purchases is not available on this device.",
			})
		} else {
			slog.Error("available purchases lookup failed", "error", err)
			r.notifier.Notify(domain.Alert{
				Kind:    domain.AlertError,
				Title:   "Error",
				Message: "Could not restore purchases. Please try again.",
			})
		}
		return summary, err
	}

	summary.Found = len(purchases)
	if summary.Found == 0 {
		r.notifier.Notify(domain.Alert{
			Kind:    domain.AlertInfo,
			Title:   "No Purchases",
			Message: "No previous purchases found to restore.",
		})
		return summary, nil
	}

	slog.Info("restoring purchases", "found", summary.Found)

	for _, p := range purchases {
		if p.TransactionReceipt == "" {
			// Not a failure: nothing to verify without a receipt.
			slog.Warn("skipping purchase with no receipt", "product_id", p.ProductID)
			continue
		}

		verification := domain.ReceiptVerification{
			ReceiptData:   p.TransactionReceipt,
			ProductID:     p.ProductID,
			TransactionID: p.TransactionID,
			Environment:   r.environment,
		}
		if err := r.biller.VerifyReceipt(ctx, userID, verification); err != nil {
			slog.Warn("restore verification failed", "transaction_id", p.TransactionID, "error", err)
			continue
		}
		summary.Restored++
	}

	if err := r.session.Refresh(ctx); err != nil {
		slog.Warn("entitlement refresh after restore failed", "error", err)
	}

	if summary.Restored > 0 {
		r.notifier.Notify(domain.Alert{
			Kind:    domain.AlertSuccess,
			Title:   "Success!",
			Message: "Your purchases have been restored.",
		})
	} else {
		r.notifier.Notify(domain.Alert{
			Kind:    domain.AlertError,
			Title:   "Restore Failed",
			Message: "Could not verify your previous purchases. Please contact support.",
		})
	}

	slog.Info("restore complete", "restored", summary.Restored, "found", summary.Found)
	return summary, nil
}

// HandleForeground clears a stuck in-flight guard. The store never
// times out a purchase sheet, so a Purchasing state can stay open
// indefinitely; foregrounding resets it. Verifying and Finalizing are
// bounded HTTP round trips and are left to finish.
func (r *Reconciler) HandleForeground() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StatePurchasing {
		slog.Info("clearing stale purchase guard on foreground", "stuck_for", time.Since(r.since))
		r.state = StateIdle
	}
}

func (r *Reconciler) setState(next PurchaseState) {
	r.mu.Lock()
	prev := r.state
	r.state = next
	r.since = time.Now()
	r.mu.Unlock()

	if prev != next {
		slog.Debug("purchase state", "from", prev, "to", next)
	}
}
