package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofiber/fiber/v3"

	"github.com/chema-app/chema-core/internal/adapter/storekit"
	"github.com/chema-app/chema-core/internal/domain"
	"github.com/chema-app/chema-core/internal/middleware"
	"github.com/chema-app/chema-core/internal/notify"
	"github.com/chema-app/chema-core/internal/port"
	"github.com/chema-app/chema-core/internal/service"
)

type stubIdentity struct {
	session  *domain.Session
	profiles []domain.Profile
	events   chan domain.AuthEvent
}

func newStubIdentity(profiles []domain.Profile) *stubIdentity {
	return &stubIdentity{
		session: &domain.Session{
			AccessToken: "tok",
			User:        domain.User{ID: "user-1", Email: "user@example.com"},
		},
		profiles: profiles,
		events:   make(chan domain.AuthEvent, 4),
	}
}

func (s *stubIdentity) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	return s.session, nil
}

func (s *stubIdentity) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	return s.session, nil
}

func (s *stubIdentity) SignOut(ctx context.Context) error { return nil }

func (s *stubIdentity) Session(ctx context.Context) (*domain.Session, error) {
	if s.session == nil {
		return nil, port.ErrNotLoggedIn
	}
	return s.session, nil
}

func (s *stubIdentity) SendPasswordReset(ctx context.Context, email string) error { return nil }

func (s *stubIdentity) Profiles(ctx context.Context, userID string) ([]domain.Profile, error) {
	return s.profiles, nil
}

func (s *stubIdentity) Events() <-chan domain.AuthEvent { return s.events }

type stubBiller struct {
	portalURL   string
	checkoutURL string
}

func (s *stubBiller) VerifyReceipt(ctx context.Context, userID string, v domain.ReceiptVerification) error {
	return nil
}

func (s *stubBiller) CreateCheckoutSession(ctx context.Context, userID string, plan domain.PlanTier) (string, error) {
	return s.checkoutURL, nil
}

func (s *stubBiller) CreatePortalSession(ctx context.Context, userID string) (string, error) {
	return s.portalURL, nil
}

func (s *stubBiller) UpdatePlan(ctx context.Context, userID string, plan domain.PlanTier) error {
	return nil
}

func (s *stubBiller) SyncUser(ctx context.Context, userID string) error { return nil }

// signedInService builds a session service whose user is logged in with
// the given profile rows.
func signedInService(t *testing.T, biller port.Biller, profiles []domain.Profile) *service.SessionService {
	t.Helper()
	s := service.NewSessionService(newStubIdentity(profiles), biller, nil)
	require.NoError(t, s.SignIn(context.Background(), "user@example.com", "secret"))
	return s
}

func doRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestFailStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{port.ErrNotLoggedIn, fiber.StatusUnauthorized},
		{port.ErrSessionExpired, fiber.StatusUnauthorized},
		{port.ErrPurchaseInFlight, fiber.StatusConflict},
		{port.ErrUpgradeRequired, fiber.StatusPaymentRequired},
		{port.ErrNoSubscription, fiber.StatusNotFound},
		{port.ErrThreadNotFound, fiber.StatusNotFound},
		{port.ErrUnknownPlan, fiber.StatusBadRequest},
		{port.ErrStoreUnavailable, fiber.StatusNotImplemented},
		{io.ErrUnexpectedEOF, fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			app := fiber.New()
			app.Get("/boom", func(c fiber.Ctx) error {
				return fail(c, tt.err)
			})

			resp, body := doRequest(t, app, http.MethodGet, "/boom", "")
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestHealth(t *testing.T) {
	app := fiber.New()
	alerts := notify.NewCenter()
	session := service.NewSessionService(newStubIdentity(nil), &stubBiller{}, nil)
	reconciler := service.NewReconciler(storekit.NewDisabled(), &stubBiller{}, session, alerts, "production")
	NewSystemHandler(alerts, reconciler, "Chema Bridge").Register(app)

	resp, body := doRequest(t, app, http.MethodGet, "/health", "")

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "Chema Bridge", body["app"])
}

func TestAlertsDrainOnce(t *testing.T) {
	app := fiber.New()
	alerts := notify.NewCenter()
	session := service.NewSessionService(newStubIdentity(nil), &stubBiller{}, nil)
	reconciler := service.NewReconciler(storekit.NewDisabled(), &stubBiller{}, session, alerts, "production")
	NewSystemHandler(alerts, reconciler, "Chema Bridge").Register(app)

	alerts.Notify(domain.Alert{Kind: domain.AlertSuccess, Title: "Success!"})

	_, body := doRequest(t, app, http.MethodGet, "/alerts", "")
	list, ok := body["alerts"].([]interface{})
	require.True(t, ok)
	require.Len(t, list, 1)

	_, body = doRequest(t, app, http.MethodGet, "/alerts", "")
	assert.Empty(t, body["alerts"])
}

func TestSessionEndpointLoggedOut(t *testing.T) {
	app := fiber.New()
	session := service.NewSessionService(newStubIdentity(nil), &stubBiller{}, nil)
	NewAuthHandler(session).Register(app)

	resp, body := doRequest(t, app, http.MethodGet, "/session", "")

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Nil(t, body["user"])
	assert.Equal(t, "free", body["plan"])
}

func TestSignInValidation(t *testing.T) {
	app := fiber.New()
	session := service.NewSessionService(newStubIdentity(nil), &stubBiller{}, nil)
	NewAuthHandler(session).Register(app)

	resp, _ := doRequest(t, app, http.MethodPost, "/auth/signin", `{"email":"user@example.com"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSignInEstablishesSession(t *testing.T) {
	app := fiber.New()
	session := service.NewSessionService(
		newStubIdentity([]domain.Profile{{ID: "user-1", Plan: domain.PlanLeader}}),
		&stubBiller{}, nil)
	NewAuthHandler(session).Register(app)

	resp, _ := doRequest(t, app, http.MethodPost, "/auth/signin",
		`{"email":"user@example.com","password":"secret"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	_, body := doRequest(t, app, http.MethodGet, "/session", "")
	assert.Equal(t, "leader", body["plan"])
}

func TestSubscriptionStatus(t *testing.T) {
	biller := &stubBiller{}
	session := signedInService(t, biller, []domain.Profile{
		{ID: "user-1", Plan: domain.PlanFounder, StripeCustomerID: "cus_123"},
	})
	reconciler := service.NewReconciler(storekit.NewDisabled(), biller, session, notify.NewCenter(), "production")
	paywall := service.NewWebPaywall(biller, session)

	app := fiber.New()
	NewSubscriptionHandler(paywall, reconciler, biller, session).Register(app)

	_, body := doRequest(t, app, http.MethodGet, "/subscription/", "")

	assert.Equal(t, "founder", body["plan"])
	assert.Equal(t, true, body["has_billing_link"])
}

func TestUpgradeThroughWebPaywall(t *testing.T) {
	biller := &stubBiller{checkoutURL: "https://checkout.stripe.com/c/pay_abc"}
	session := signedInService(t, biller, nil)
	reconciler := service.NewReconciler(storekit.NewDisabled(), biller, session, notify.NewCenter(), "production")
	paywall := service.NewWebPaywall(biller, session)

	app := fiber.New()
	NewSubscriptionHandler(paywall, reconciler, biller, session).Register(app)

	resp, body := doRequest(t, app, http.MethodPost, "/subscription/upgrade", `{"plan":"leader"}`)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://checkout.stripe.com/c/pay_abc", body["checkout_url"])
	assert.Equal(t, true, body["started"])
}

func TestUpgradeRejectsUnknownPlan(t *testing.T) {
	biller := &stubBiller{}
	session := signedInService(t, biller, nil)
	reconciler := service.NewReconciler(storekit.NewDisabled(), biller, session, notify.NewCenter(), "production")
	paywall := service.NewWebPaywall(biller, session)

	app := fiber.New()
	NewSubscriptionHandler(paywall, reconciler, biller, session).Register(app)

	resp, _ := doRequest(t, app, http.MethodPost, "/subscription/upgrade", `{"plan":"platinum"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestPortalRequiresBillingLink(t *testing.T) {
	biller := &stubBiller{portalURL: "https://billing.stripe.com/p/session_abc"}
	session := signedInService(t, biller, []domain.Profile{{ID: "user-1", Plan: domain.PlanFree}})
	reconciler := service.NewReconciler(storekit.NewDisabled(), biller, session, notify.NewCenter(), "production")
	paywall := service.NewWebPaywall(biller, session)

	app := fiber.New()
	protected := app.Group("", middleware.RequireSession(session))
	NewSubscriptionHandler(paywall, reconciler, biller, session).Register(protected)

	resp, _ := doRequest(t, app, http.MethodPost, "/subscription/portal", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestPortalWithBillingLink(t *testing.T) {
	biller := &stubBiller{portalURL: "https://billing.stripe.com/p/session_abc"}
	session := signedInService(t, biller, []domain.Profile{
		{ID: "user-1", Plan: domain.PlanLeader, StripeCustomerID: "cus_123"},
	})
	reconciler := service.NewReconciler(storekit.NewDisabled(), biller, session, notify.NewCenter(), "production")
	paywall := service.NewWebPaywall(biller, session)

	app := fiber.New()
	protected := app.Group("", middleware.RequireSession(session))
	NewSubscriptionHandler(paywall, reconciler, biller, session).Register(protected)

	resp, body := doRequest(t, app, http.MethodPost, "/subscription/portal", "")

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://billing.stripe.com/p/session_abc", body["url"])
}

func TestStoreHandlerCommandRoundTrip(t *testing.T) {
	bridge := storekit.NewBridge()
	app := fiber.New()
	NewStoreHandler(bridge).Register(app)

	// A pending native call queues a command for the shell to poll.
	callDone := make(chan error, 1)
	go func() {
		callDone <- bridge.InitConnection(context.Background())
	}()

	_, cmd := doRequest(t, app, http.MethodGet, "/store/commands", "")
	require.Equal(t, "init_connection", cmd["op"])
	id, ok := cmd["id"].(string)
	require.True(t, ok)

	resp, _ := doRequest(t, app, http.MethodPost, "/store/results", `{"id":"`+id+`"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, <-callDone)
}

func TestStoreHandlerRejectsResultWithoutID(t *testing.T) {
	bridge := storekit.NewBridge()
	app := fiber.New()
	NewStoreHandler(bridge).Register(app)

	resp, _ := doRequest(t, app, http.MethodPost, "/store/results", `{}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestStoreHandlerEventFansIn(t *testing.T) {
	bridge := storekit.NewBridge()
	app := fiber.New()
	NewStoreHandler(bridge).Register(app)

	resp, _ := doRequest(t, app, http.MethodPost, "/store/events",
		`{"type":"purchase_updated","purchase":{"product_id":"leader.subscription","transaction_id":"txn-1","transaction_receipt":"blob"}}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	p := <-bridge.Updates()
	assert.Equal(t, "txn-1", p.TransactionID)

	resp, _ = doRequest(t, app, http.MethodPost, "/store/events", `{"type":"mystery"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestStoreHandlerReportsEventBacklog(t *testing.T) {
	bridge := storekit.NewBridge()
	app := fiber.New()
	NewStoreHandler(bridge).Register(app)

	event := `{"type":"purchase_error","error":{"code":"E_UNKNOWN"}}`
	for {
		resp, _ := doRequest(t, app, http.MethodPost, "/store/events", event)
		if resp.StatusCode != fiber.StatusOK {
			assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
			break
		}
	}
}
