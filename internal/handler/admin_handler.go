package handler

import (
	"go-pharma-exchange/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	service service.AdminService
}

func NewAdminHandler(s service.AdminService) *AdminHandler {
	return &AdminHandler{service: s}
}

type LegalRequest struct {
	Content string `json:"content"`
}

func (h *AdminHandler) GetStats(c *fiber.Ctx) error {
	return c.JSON(h.service.Stats(c.UserContext()))
}

func (h *AdminHandler) GetPending(c *fiber.Ctx) error {
	items, err := h.service.ListPending(c.UserContext())
	if err != nil {
		return fail(c, "admin", err)
	}
	return c.JSON(items)
}

// ApprovePending moves a proposal into the catalog
// POST /api/v1/admin/pending/:id/approve
func (h *AdminHandler) ApprovePending(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, "admin", err)
	}
	drug, err := h.service.ApprovePending(c.UserContext(), id)
	if err != nil {
		return fail(c, "admin", err)
	}
	return c.JSON(fiber.Map{"message": "Approved", "data": drug})
}

// DELETE /api/v1/admin/pending/:id
func (h *AdminHandler) RejectPending(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, "admin", err)
	}
	if err := h.service.RejectPending(c.UserContext(), id); err != nil {
		return fail(c, "admin", err)
	}
	return c.JSON(fiber.Map{"message": "Rejected"})
}

func (h *AdminHandler) GetPharmacies(c *fiber.Ctx) error {
	pharmacies, err := h.service.ListPharmacies(c.UserContext())
	if err != nil {
		return fail(c, "admin", err)
	}
	return c.JSON(pharmacies)
}

// ToggleBlacklist flips a pharmacy between active and blacklisted
// POST /api/v1/admin/pharmacies/:pid/blacklist
func (h *AdminHandler) ToggleBlacklist(c *fiber.Ctx) error {
	id, err := paramPharmacyID(c, "pid")
	if err != nil {
		return fail(c, "admin", err)
	}
	status, err := h.service.ToggleBlacklist(c.UserContext(), id)
	if err != nil {
		return fail(c, "admin", err)
	}
	return c.JSON(fiber.Map{"message": "Status updated", "account_status": status})
}

// DeletePharmacy removes a pharmacy for good; requires ?confirm=true
// DELETE /api/v1/admin/pharmacies/:pid
func (h *AdminHandler) DeletePharmacy(c *fiber.Ctx) error {
	id, err := paramPharmacyID(c, "pid")
	if err != nil {
		return fail(c, "admin", err)
	}
	if err := h.service.DeletePharmacy(c.UserContext(), id, confirmed(c)); err != nil {
		return fail(c, "admin", err)
	}
	return c.JSON(fiber.Map{"message": "Pharmacy deleted"})
}

func (h *AdminHandler) GetAdmins(c *fiber.Ctx) error {
	admins, err := h.service.ListAdmins(c.UserContext())
	if err != nil {
		return fail(c, "admin", err)
	}
	return c.JSON(admins)
}

func (h *AdminHandler) CreateAdmin(c *fiber.Ctx) error {
	var req service.AdminInput
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	admin, err := h.service.AddAdmin(c.UserContext(), req)
	if err != nil {
		return fail(c, "admin", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Admin created", "data": admin})
}

func (h *AdminHandler) DeleteAdmin(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, "admin", err)
	}
	if err := h.service.DeleteAdmin(c.UserContext(), id, confirmed(c)); err != nil {
		return fail(c, "admin", err)
	}
	return c.JSON(fiber.Map{"message": "Admin deleted"})
}

func (h *AdminHandler) GetMarketPosts(c *fiber.Ctx) error {
	posts, err := h.service.ListMarketPosts(c.UserContext())
	if err != nil {
		return fail(c, "admin", err)
	}
	return c.JSON(posts)
}

// DELETE /api/v1/admin/posts/:kind/:id
func (h *AdminHandler) DeleteMarketPost(c *fiber.Ctx) error {
	kind, id, err := itemRef(c)
	if err != nil {
		return fail(c, "admin", err)
	}
	if err := h.service.DeleteMarketPost(c.UserContext(), kind, id, confirmed(c)); err != nil {
		return fail(c, "admin", err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

func (h *AdminHandler) GetRatings(c *fiber.Ctx) error {
	ratings, err := h.service.ListRatings(c.UserContext())
	if err != nil {
		return fail(c, "admin", err)
	}
	return c.JSON(ratings)
}

func (h *AdminHandler) DeleteRating(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, "admin", err)
	}
	if err := h.service.DeleteRating(c.UserContext(), id, confirmed(c)); err != nil {
		return fail(c, "admin", err)
	}
	return c.JSON(fiber.Map{"message": "Rating deleted"})
}

// PUT /api/v1/admin/legal/:type
func (h *AdminHandler) UpsertLegal(c *fiber.Ctx) error {
	var req LegalRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	content, err := h.service.UpsertLegal(c.UserContext(), c.Params("type"), req.Content)
	if err != nil {
		return fail(c, "admin", err)
	}
	return c.JSON(content)
}

// GetLegal is public
// GET /api/v1/legal/:type
func (h *AdminHandler) GetLegal(c *fiber.Ctx) error {
	content, err := h.service.GetLegal(c.UserContext(), c.Params("type"))
	if err != nil {
		return fail(c, "legal", err)
	}
	return c.JSON(content)
}
