package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chema-app/chema-core/internal/domain"
	"github.com/chema-app/chema-core/internal/port"
)

func TestStorePaywallStartsNativeFlow(t *testing.T) {
	store := newFakeStore()
	biller := &fakeBiller{}
	r := newTestReconciler(store, biller, signedInSession(newFakeIdentity(), biller), &fakeNotifier{})
	p := NewStorePaywall(r)

	result, err := p.Upgrade(context.Background(), domain.PlanLeader)

	require.NoError(t, err)
	assert.True(t, result.Started)
	assert.Empty(t, result.CheckoutURL)
	assert.Equal(t, []string{domain.SKULeader}, store.requested)
}

func TestStorePaywallPropagatesGuard(t *testing.T) {
	store := newFakeStore()
	biller := &fakeBiller{}
	r := newTestReconciler(store, biller, signedInSession(newFakeIdentity(), biller), &fakeNotifier{})
	p := NewStorePaywall(r)

	_, err := p.Upgrade(context.Background(), domain.PlanLeader)
	require.NoError(t, err)

	_, err = p.Upgrade(context.Background(), domain.PlanLeader)
	require.ErrorIs(t, err, port.ErrPurchaseInFlight)
}

func TestWebPaywallReturnsCheckoutURL(t *testing.T) {
	biller := &fakeBiller{checkoutURL: "https://checkout.stripe.com/c/pay_abc"}
	p := NewWebPaywall(biller, signedInSession(newFakeIdentity(), biller))

	result, err := p.Upgrade(context.Background(), domain.PlanFounder)

	require.NoError(t, err)
	assert.True(t, result.Started)
	assert.Equal(t, "https://checkout.stripe.com/c/pay_abc", result.CheckoutURL)
}

func TestWebPaywallRequiresLogin(t *testing.T) {
	biller := &fakeBiller{checkoutURL: "https://checkout.stripe.com/c/pay_abc"}
	p := NewWebPaywall(biller, NewSessionService(newFakeIdentity(), biller, nil))

	_, err := p.Upgrade(context.Background(), domain.PlanLeader)
	require.ErrorIs(t, err, port.ErrNotLoggedIn)
}

func TestWebPaywallRejectsFreePlan(t *testing.T) {
	biller := &fakeBiller{}
	p := NewWebPaywall(biller, signedInSession(newFakeIdentity(), biller))

	_, err := p.Upgrade(context.Background(), domain.PlanFree)
	require.ErrorIs(t, err, port.ErrUnknownPlan)
}
