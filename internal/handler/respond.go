package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/chema-app/chema-core/internal/port"
)

// fail maps a service error to a bridge API response. Sentinels get
// stable status codes; anything else is an internal error.
func fail(c fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, port.ErrNotLoggedIn), errors.Is(err, port.ErrSessionExpired):
		status = fiber.StatusUnauthorized
	case errors.Is(err, port.ErrPurchaseInFlight):
		status = fiber.StatusConflict
	case errors.Is(err, port.ErrUpgradeRequired):
		status = fiber.StatusPaymentRequired
	case errors.Is(err, port.ErrNoSubscription), errors.Is(err, port.ErrThreadNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, port.ErrUnknownPlan):
		status = fiber.StatusBadRequest
	case errors.Is(err, port.ErrStoreUnavailable):
		status = fiber.StatusNotImplemented
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
