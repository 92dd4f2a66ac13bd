package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/chema-app/chema-core/internal/notify"
	"github.com/chema-app/chema-core/internal/service"
)

// SystemHandler covers app lifecycle and alert delivery.
type SystemHandler struct {
	alerts     *notify.Center
	reconciler *service.Reconciler
	appName    string
}

// NewSystemHandler creates a new system handler.
func NewSystemHandler(alerts *notify.Center, reconciler *service.Reconciler, appName string) *SystemHandler {
	return &SystemHandler{alerts: alerts, reconciler: reconciler, appName: appName}
}

// Register sets up system routes.
func (h *SystemHandler) Register(router fiber.Router) {
	router.Get("/health", h.Health)
	router.Get("/alerts", h.Alerts)
	router.Post("/app/foreground", h.Foreground)
}

// Health reports bridge liveness.
func (h *SystemHandler) Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"app":    h.appName,
	})
}

// Alerts drains pending alerts for the shell to present.
func (h *SystemHandler) Alerts(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"alerts": h.alerts.Drain()})
}

// Foreground notes that the app returned to the foreground, clearing a
// purchase guard stuck on a store sheet that never resolved.
func (h *SystemHandler) Foreground(c fiber.Ctx) error {
	h.reconciler.HandleForeground()
	return c.JSON(fiber.Map{"ok": true})
}
