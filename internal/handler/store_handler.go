package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/chema-app/chema-core/internal/adapter/storekit"
)

// StoreHandler is the shell-facing side of the store bridge: the shell
// long-polls commands to run against the native store SDK and posts
// results and listener events back.
type StoreHandler struct {
	bridge *storekit.Bridge
}

// NewStoreHandler creates a new store bridge handler.
func NewStoreHandler(bridge *storekit.Bridge) *StoreHandler {
	return &StoreHandler{bridge: bridge}
}

// Register sets up store bridge routes.
func (h *StoreHandler) Register(router fiber.Router) {
	store := router.Group("/store")
	store.Get("/commands", h.Commands)
	store.Post("/results", h.Results)
	store.Post("/events", h.Events)
}

// Commands long-polls for the next store command. Returns 204 when no
// command arrives within the poll window.
func (h *StoreHandler) Commands(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 25*time.Second)
	defer cancel()

	cmd, err := h.bridge.NextCommand(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return fail(c, err)
	}
	return c.JSON(cmd)
}

// Results delivers the shell's reply for a command.
func (h *StoreHandler) Results(c fiber.Ctx) error {
	var result storekit.Result
	if err := c.Bind().JSON(&result); err != nil || result.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid result"})
	}

	h.bridge.PostResult(result)
	return c.JSON(fiber.Map{"ok": true})
}

// Events ingests a store listener event (purchase update or error).
func (h *StoreHandler) Events(c fiber.Ctx) error {
	var event storekit.Event
	if err := c.Bind().JSON(&event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid event"})
	}

	if err := h.bridge.PostEvent(event); err != nil {
		if errors.Is(err, storekit.ErrEventBacklog) {
			// The shell retries delivery; the purchase stays open with
			// the store until an update is consumed.
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"ok": true})
}
