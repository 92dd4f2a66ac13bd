package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/chema-app/chema-core/internal/service"
)

// AuthHandler handles authentication endpoints for the shell.
type AuthHandler struct {
	session *service.SessionService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(session *service.SessionService) *AuthHandler {
	return &AuthHandler{session: session}
}

// Register sets up auth routes. These are public: the shell calls them
// to establish the session that protects everything else.
func (h *AuthHandler) Register(router fiber.Router) {
	auth := router.Group("/auth")
	auth.Post("/signin", h.SignIn)
	auth.Post("/signup", h.SignUp)
	auth.Post("/signout", h.SignOut)
	auth.Post("/recover", h.Recover)

	router.Get("/session", h.Session)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn authenticates with email and password.
func (h *AuthHandler) SignIn(c fiber.Ctx) error {
	var body credentials
	if err := c.Bind().JSON(&body); err != nil || body.Email == "" || body.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "email and password required"})
	}

	if err := h.session.SignIn(c.Context(), body.Email, body.Password); err != nil {
		return fail(c, err)
	}
	return c.JSON(h.session.Current())
}

// SignUp registers a new account.
func (h *AuthHandler) SignUp(c fiber.Ctx) error {
	var body credentials
	if err := c.Bind().JSON(&body); err != nil || body.Email == "" || body.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "email and password required"})
	}

	if err := h.session.SignUp(c.Context(), body.Email, body.Password); err != nil {
		return fail(c, err)
	}
	return c.JSON(h.session.Current())
}

// SignOut ends the session.
func (h *AuthHandler) SignOut(c fiber.Ctx) error {
	if err := h.session.Logout(c.Context()); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// Recover requests a password-reset email.
func (h *AuthHandler) Recover(c fiber.Ctx) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.Bind().JSON(&body); err != nil || body.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "email required"})
	}

	if err := h.session.SendPasswordReset(c.Context(), body.Email); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// Session returns the current user and entitlement snapshot, which the
// shell reads to gate features.
func (h *AuthHandler) Session(c fiber.Ctx) error {
	snapshot := h.session.Current()
	return c.JSON(fiber.Map{
		"user":    snapshot.User,
		"profile": snapshot.Profile,
		"plan":    snapshot.Plan(),
	})
}
