package handler

import (
	"strings"

	"go-pharma-exchange/internal/middleware"
	"go-pharma-exchange/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CompleteProfileRequest struct {
	RegistrationToken string `json:"registration_token"`
	service.ProfileInput
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Login handles pharmacy and admin authentication
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Email and password are required"})
	}

	response, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return fail(c, "auth", err)
	}
	return c.JSON(response)
}

// Register creates the credential of a new pharmacy
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	response, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		return fail(c, "auth", err)
	}
	return c.Status(fiber.StatusCreated).JSON(response)
}

// CompleteProfile saves the profile of a freshly registered pharmacy
// POST /api/v1/auth/complete-profile
func (h *AuthHandler) CompleteProfile(c *fiber.Ctx) error {
	var req CompleteProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	response, err := h.authService.CompleteProfile(c.UserContext(), req.RegistrationToken, req.ProfileInput)
	if err != nil {
		return fail(c, "auth", err)
	}
	return c.JSON(response)
}

// ChangePassword verifies the current password before replacing it
// POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	if err := h.authService.ChangePassword(c.UserContext(), middleware.Session(c), req.CurrentPassword, req.NewPassword); err != nil {
		return fail(c, "auth", err)
	}
	return c.JSON(fiber.Map{"message": "Password updated successfully"})
}

// Logout ends the current session and lists the client keys to clear
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	keys, err := h.authService.Logout(c.UserContext(), middleware.Session(c))
	if err != nil {
		return fail(c, "auth", err)
	}
	return c.JSON(fiber.Map{"message": "Logged out", "clear": keys})
}

// Session returns the persisted-state view of the current session
// GET /api/v1/session
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	view, err := h.authService.SessionView(c.UserContext(), middleware.Session(c))
	if err != nil {
		return fail(c, "auth", err)
	}
	return c.JSON(view)
}

// ValidateToken checks a token without requiring the auth middleware
// GET /api/v1/auth/validate
func (h *AuthHandler) ValidateToken(c *fiber.Ctx) error {
	token := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"valid": false, "error": "Missing authorization token"})
	}

	view, err := h.authService.ValidateToken(c.UserContext(), token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"valid": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"valid": true, "session": view})
}
