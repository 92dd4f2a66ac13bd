package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/chema-app/chema-core/internal/domain"
	"github.com/chema-app/chema-core/internal/middleware"
	"github.com/chema-app/chema-core/internal/port"
	"github.com/chema-app/chema-core/internal/service"
)

// SubscriptionHandler handles upgrade, restore, and billing management.
type SubscriptionHandler struct {
	paywall    service.Paywall
	reconciler *service.Reconciler
	biller     port.Biller
	session    *service.SessionService
}

// NewSubscriptionHandler creates a new subscription handler.
func NewSubscriptionHandler(paywall service.Paywall, reconciler *service.Reconciler, biller port.Biller, session *service.SessionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		paywall:    paywall,
		reconciler: reconciler,
		biller:     biller,
		session:    session,
	}
}

// Register sets up subscription routes.
func (h *SubscriptionHandler) Register(router fiber.Router) {
	sub := router.Group("/subscription")
	sub.Get("/", h.Status)
	sub.Post("/upgrade", h.Upgrade)
	sub.Post("/restore", h.Restore)
	sub.Post("/portal", h.Portal)
}

// Status returns the current plan for feature gating.
func (h *SubscriptionHandler) Status(c fiber.Ctx) error {
	snapshot := h.session.Current()
	return c.JSON(fiber.Map{
		"plan":             snapshot.Plan(),
		"has_billing_link": snapshot.Profile.HasBillingLink(),
	})
}

// Upgrade starts the purchase flow for a paid plan through the
// platform's paywall capability.
func (h *SubscriptionHandler) Upgrade(c fiber.Ctx) error {
	var body struct {
		Plan string `json:"plan"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	plan, err := domain.ParsePlanTier(body.Plan)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	result, err := h.paywall.Upgrade(c.Context(), plan)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(result)
}

// Restore replays previously-owned purchases through verification.
func (h *SubscriptionHandler) Restore(c fiber.Ctx) error {
	summary, err := h.reconciler.Restore(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(summary)
}

// Portal opens the billing management portal for users with a linked
// billing customer.
func (h *SubscriptionHandler) Portal(c fiber.Ctx) error {
	user := middleware.GetUser(c)
	snapshot := h.session.Current()
	if !snapshot.Profile.HasBillingLink() {
		return fail(c, port.ErrNoSubscription)
	}

	url, err := h.biller.CreatePortalSession(c.Context(), user.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}
