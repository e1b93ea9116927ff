package handler

import (
	"io"

	"go-pharma-exchange/internal/middleware"
	"go-pharma-exchange/internal/service"

	"github.com/gofiber/fiber/v2"
)

const maxAvatarBytes = 5 << 20

type ProfileHandler struct {
	service service.ProfileService
}

func NewProfileHandler(s service.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: s}
}

func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	view, err := h.service.Get(c.UserContext(), middleware.Session(c))
	if err != nil {
		return fail(c, "profile", err)
	}
	return c.JSON(view)
}

func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	var req service.ProfileInput
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	profile, err := h.service.Update(c.UserContext(), middleware.Session(c), req)
	if err != nil {
		return fail(c, "profile", err)
	}
	return c.JSON(fiber.Map{"message": "Profile updated", "data": profile})
}

// UploadAvatar accepts a multipart "avatar" file
// POST /api/v1/profile/avatar
func (h *ProfileHandler) UploadAvatar(c *fiber.Ctx) error {
	file, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file is required"})
	}
	if file.Size > maxAvatarBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "avatar must be 5MB or smaller"})
	}

	f, err := file.Open()
	if err != nil {
		return fail(c, "profile", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return fail(c, "profile", err)
	}

	url, err := h.service.UploadAvatar(c.UserContext(), middleware.Session(c), file.Filename, data)
	if err != nil {
		return fail(c, "profile", err)
	}
	return c.JSON(fiber.Map{"message": "Avatar updated", "profile_pic": url})
}
