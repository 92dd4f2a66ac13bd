package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/chema-app/chema-core/internal/middleware"
	"github.com/chema-app/chema-core/internal/port"
)

// JournalHandler handles the record-keeping screens: decisions,
// outcomes, milestones, and weekly reviews.
type JournalHandler struct {
	journal port.JournalStore
}

// NewJournalHandler creates a new journal handler.
func NewJournalHandler(journal port.JournalStore) *JournalHandler {
	return &JournalHandler{journal: journal}
}

// Register sets up journal routes.
func (h *JournalHandler) Register(router fiber.Router) {
	router.Get("/decisions", h.Decisions)
	router.Post("/decisions/:id/resolve", h.ResolveDecision)
	router.Delete("/decisions/:id", h.DeleteDecision)

	router.Get("/outcomes", h.Outcomes)
	router.Delete("/outcomes/:id", h.DeleteOutcome)

	router.Get("/milestones", h.Milestones)
	router.Delete("/milestones/:id", h.DeleteMilestone)

	review := router.Group("/weekly-review")
	review.Get("/latest", h.LatestReview)
	review.Post("/generate", h.GenerateReview)
}

// Decisions lists the user's decisions.
func (h *JournalHandler) Decisions(c fiber.Ctx) error {
	user := middleware.GetUser(c)
	decisions, err := h.journal.Decisions(c.Context(), user.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"decisions": decisions})
}

// ResolveDecision logs an outcome against a decision.
func (h *JournalHandler) ResolveDecision(c fiber.Ctx) error {
	user := middleware.GetUser(c)

	var body struct {
		Content string `json:"content"`
		HiloID  string `json:"hilo_id"`
	}
	if err := c.Bind().JSON(&body); err != nil || body.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "content required"})
	}

	if err := h.journal.ResolveDecision(c.Context(), c.Params("id"), user.ID, body.Content, body.HiloID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// DeleteDecision removes a decision.
func (h *JournalHandler) DeleteDecision(c fiber.Ctx) error {
	if err := h.journal.DeleteDecision(c.Context(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// Outcomes lists the user's outcomes.
func (h *JournalHandler) Outcomes(c fiber.Ctx) error {
	user := middleware.GetUser(c)
	outcomes, err := h.journal.Outcomes(c.Context(), user.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"outcomes": outcomes})
}

// DeleteOutcome removes an outcome.
func (h *JournalHandler) DeleteOutcome(c fiber.Ctx) error {
	if err := h.journal.DeleteOutcome(c.Context(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// Milestones lists the user's milestones.
func (h *JournalHandler) Milestones(c fiber.Ctx) error {
	user := middleware.GetUser(c)
	milestones, err := h.journal.Milestones(c.Context(), user.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"milestones": milestones})
}

// DeleteMilestone removes a milestone.
func (h *JournalHandler) DeleteMilestone(c fiber.Ctx) error {
	if err := h.journal.DeleteMilestone(c.Context(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// LatestReview fetches the most recent weekly review.
func (h *JournalHandler) LatestReview(c fiber.Ctx) error {
	user := middleware.GetUser(c)
	review, err := h.journal.LatestWeeklyReview(c.Context(), user.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"review": review})
}

// GenerateReview asks the backend to generate a fresh weekly review.
func (h *JournalHandler) GenerateReview(c fiber.Ctx) error {
	user := middleware.GetUser(c)

	var body struct {
		TestMode bool `json:"test_mode"`
	}
	// An empty body means a normal generation request.
	_ = c.Bind().JSON(&body)

	review, err := h.journal.GenerateWeeklyReview(c.Context(), user.ID, body.TestMode)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"review": review})
}
