package service

import (
	"context"

	"github.com/chema-app/chema-core/internal/domain"
	"github.com/chema-app/chema-core/internal/port"
)

// trace records cross-fake call order so tests can assert sequencing.
type trace struct {
	calls []string
}

func (t *trace) add(name string) {
	t.calls = append(t.calls, name)
}

type fakeIdentity struct {
	tr       *trace
	session  *domain.Session
	signErr  error
	profiles []domain.Profile
	profErr  error
	events   chan domain.AuthEvent

	signOutCalls int
	resetEmails  []string
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{events: make(chan domain.AuthEvent, 4)}
}

func (f *fakeIdentity) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	if f.signErr != nil {
		return nil, f.signErr
	}
	return f.session, nil
}

func (f *fakeIdentity) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	return f.SignIn(ctx, email, password)
}

func (f *fakeIdentity) SignOut(ctx context.Context) error {
	f.signOutCalls++
	return nil
}

func (f *fakeIdentity) Session(ctx context.Context) (*domain.Session, error) {
	if f.session == nil {
		return nil, port.ErrNotLoggedIn
	}
	return f.session, nil
}

func (f *fakeIdentity) SendPasswordReset(ctx context.Context, email string) error {
	f.resetEmails = append(f.resetEmails, email)
	return nil
}

func (f *fakeIdentity) Profiles(ctx context.Context, userID string) ([]domain.Profile, error) {
	if f.tr != nil {
		f.tr.add("profiles")
	}
	if f.profErr != nil {
		return nil, f.profErr
	}
	return f.profiles, nil
}

func (f *fakeIdentity) Events() <-chan domain.AuthEvent {
	return f.events
}

type fakeBiller struct {
	tr *trace

	verifyErr     error
	verifications []domain.ReceiptVerification
	verifyUsers   []string

	checkoutURL string
	checkoutErr error
	portalURL   string

	updatePlans []domain.PlanTier
	syncUsers   []string
}

func (f *fakeBiller) VerifyReceipt(ctx context.Context, userID string, v domain.ReceiptVerification) error {
	if f.tr != nil {
		f.tr.add("verify")
	}
	f.verifications = append(f.verifications, v)
	f.verifyUsers = append(f.verifyUsers, userID)
	return f.verifyErr
}

func (f *fakeBiller) CreateCheckoutSession(ctx context.Context, userID string, plan domain.PlanTier) (string, error) {
	if f.checkoutErr != nil {
		return "", f.checkoutErr
	}
	return f.checkoutURL, nil
}

func (f *fakeBiller) CreatePortalSession(ctx context.Context, userID string) (string, error) {
	return f.portalURL, nil
}

func (f *fakeBiller) UpdatePlan(ctx context.Context, userID string, plan domain.PlanTier) error {
	f.updatePlans = append(f.updatePlans, plan)
	return nil
}

func (f *fakeBiller) SyncUser(ctx context.Context, userID string) error {
	f.syncUsers = append(f.syncUsers, userID)
	return nil
}

type fakeStore struct {
	tr *trace

	requested  []string
	requestErr error

	finished  []domain.Purchase
	finishErr error

	available    []domain.Purchase
	availableErr error

	updates chan domain.Purchase
	errs    chan domain.PurchaseError
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		updates: make(chan domain.Purchase, 4),
		errs:    make(chan domain.PurchaseError, 4),
	}
}

func (f *fakeStore) InitConnection(ctx context.Context) error { return nil }
func (f *fakeStore) EndConnection() error                     { return nil }

func (f *fakeStore) Subscriptions(ctx context.Context, skus []string) ([]domain.Product, error) {
	return nil, nil
}

func (f *fakeStore) RequestSubscription(ctx context.Context, sku string) error {
	f.requested = append(f.requested, sku)
	return f.requestErr
}

func (f *fakeStore) Updates() <-chan domain.Purchase     { return f.updates }
func (f *fakeStore) Errors() <-chan domain.PurchaseError { return f.errs }

func (f *fakeStore) FinishTransaction(ctx context.Context, p domain.Purchase, consumable bool) error {
	if f.tr != nil {
		f.tr.add("finish")
	}
	f.finished = append(f.finished, p)
	return f.finishErr
}

func (f *fakeStore) AvailablePurchases(ctx context.Context) ([]domain.Purchase, error) {
	if f.availableErr != nil {
		return nil, f.availableErr
	}
	return f.available, nil
}

type fakeNotifier struct {
	alerts []domain.Alert
}

func (f *fakeNotifier) Notify(a domain.Alert) {
	f.alerts = append(f.alerts, a)
}

// signedInSession builds a session service already holding a user.
func signedInSession(identity port.Identity, biller port.Biller) *SessionService {
	s := NewSessionService(identity, biller, nil)
	s.replace(&domain.User{ID: "user-1", Email: "user@example.com"}, nil)
	return s
}
