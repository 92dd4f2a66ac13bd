package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/chema-app/chema-core/internal/domain"
	"github.com/chema-app/chema-core/internal/port"
)

// VerifyReceipt forwards a store receipt for server-side verification.
// Any non-2xx response or transport failure maps to
// port.ErrVerificationFailed so the caller never finalizes the
// transaction on an unverified receipt.
func (c *Client) VerifyReceipt(ctx context.Context, userID string, v domain.ReceiptVerification) error {
	if err := c.do(ctx, http.MethodPost, "/api/verify-iap-receipt", userID, v, nil); err != nil {
		return fmt.Errorf("%w: %v", port.ErrVerificationFailed, err)
	}
	return nil
}

// CreateCheckoutSession starts a Stripe web checkout and returns the URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, userID string, plan domain.PlanTier) (string, error) {
	payload := map[string]string{
		"plan_name": string(plan),
		"user_id":   userID,
	}

	var resp struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/stripe/create-checkout-session", userID, payload, &resp); err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", fmt.Errorf("backend: checkout session returned no url")
	}
	return resp.URL, nil
}

// CreatePortalSession opens the billing management portal.
func (c *Client) CreatePortalSession(ctx context.Context, userID string) (string, error) {
	payload := map[string]string{"user_id": userID}

	var resp struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/stripe/create-portal-session", userID, payload, &resp); err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", fmt.Errorf("backend: portal session returned no url")
	}
	return resp.URL, nil
}

// UpdatePlan directly mutates the user's plan (fallback path when no
// store receipt is involved).
func (c *Client) UpdatePlan(ctx context.Context, userID string, plan domain.PlanTier) error {
	err := c.do(ctx, http.MethodPost, "/api/update-plan", userID, map[string]string{"plan": string(plan)}, nil)
	if err != nil && strings.Contains(err.Error(), "upgrade_required") {
		return port.ErrUpgradeRequired
	}
	return err
}
