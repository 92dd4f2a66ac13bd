package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/chema-app/chema-core/internal/service"
)

// ThreadHandler handles conversation threads and chat.
type ThreadHandler struct {
	threads *service.ThreadService
}

// NewThreadHandler creates a new thread handler.
func NewThreadHandler(threads *service.ThreadService) *ThreadHandler {
	return &ThreadHandler{threads: threads}
}

// Register sets up thread routes.
func (h *ThreadHandler) Register(router fiber.Router) {
	hilos := router.Group("/hilos")
	hilos.Get("/", h.List)
	hilos.Post("/", h.Create)
	hilos.Get("/current", h.Current)
	hilos.Post("/:id/activate", h.Activate)
	hilos.Patch("/:id", h.Rename)
	hilos.Delete("/:id", h.Delete)
	hilos.Get("/:id/messages", h.Messages)
	hilos.Post("/:id/ask", h.Ask)
}

// Current returns the active thread with its recent messages.
func (h *ThreadHandler) Current(c fiber.Ctx) error {
	thread, messages, err := h.threads.Current(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"hilo": thread, "messages": messages})
}

// List returns all threads.
func (h *ThreadHandler) List(c fiber.Ctx) error {
	threads, err := h.threads.List(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"hilos": threads})
}

// Create makes a new thread and switches to it.
func (h *ThreadHandler) Create(c fiber.Ctx) error {
	var body struct {
		Title string `json:"title"`
	}
	if err := c.Bind().JSON(&body); err != nil || body.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title required"})
	}

	thread, err := h.threads.Create(c.Context(), body.Title)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"hilo": thread})
}

// Activate switches to a thread and returns its messages.
func (h *ThreadHandler) Activate(c fiber.Ctx) error {
	messages, err := h.threads.Switch(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"messages": messages})
}

// Rename changes a thread's title.
func (h *ThreadHandler) Rename(c fiber.Ctx) error {
	var body struct {
		Title string `json:"title"`
	}
	if err := c.Bind().JSON(&body); err != nil || body.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title required"})
	}

	if err := h.threads.Rename(c.Context(), c.Params("id"), body.Title); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// Delete removes a thread.
func (h *ThreadHandler) Delete(c fiber.Ctx) error {
	if err := h.threads.Delete(c.Context(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// Messages returns the recent messages of a thread.
func (h *ThreadHandler) Messages(c fiber.Ctx) error {
	messages, err := h.threads.Messages(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"messages": messages})
}

// Ask sends a question to the assistant within a thread.
func (h *ThreadHandler) Ask(c fiber.Ctx) error {
	var body struct {
		Question string `json:"question"`
	}
	if err := c.Bind().JSON(&body); err != nil || body.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "question required"})
	}

	reply, err := h.threads.Ask(c.Context(), c.Params("id"), body.Question)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": reply})
}
