package handler

import (
	"go-pharma-exchange/internal/middleware"
	"go-pharma-exchange/internal/model"
	"go-pharma-exchange/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

type QuantityRequest struct {
	Quantity int `json:"quantity"`
}

type ArchiveRequest struct {
	Quantity   int              `json:"quantity"`
	ActionType model.ActionType `json:"action_type"`
}

func (h *InventoryHandler) GetOffers(c *fiber.Ctx) error {
	offers, err := h.service.ListOffers(c.UserContext(), middleware.Session(c))
	if err != nil {
		return fail(c, "inventory", err)
	}
	return c.JSON(offers)
}

func (h *InventoryHandler) GetRequests(c *fiber.Ctx) error {
	requests, err := h.service.ListRequests(c.UserContext(), middleware.Session(c))
	if err != nil {
		return fail(c, "inventory", err)
	}
	return c.JSON(requests)
}

// CreateOffer accepts the offer and hands it to the add-offer workflow
// POST /api/v1/offers
func (h *InventoryHandler) CreateOffer(c *fiber.Ctx) error {
	var req service.OfferInput
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	if err := h.service.CreateOffer(c.UserContext(), middleware.Session(c), req); err != nil {
		return fail(c, "inventory", err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message": "Offer submitted"})
}

// POST /api/v1/requests
func (h *InventoryHandler) CreateRequest(c *fiber.Ctx) error {
	var req service.RequestInput
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	if err := h.service.CreateRequest(c.UserContext(), middleware.Session(c), req); err != nil {
		return fail(c, "inventory", err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message": "Request submitted"})
}

// PUT /api/v1/offers/:id
func (h *InventoryHandler) UpdateOffer(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, "inventory", err)
	}
	var req service.OfferEdit
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	offer, err := h.service.EditOffer(c.UserContext(), middleware.Session(c), id, req)
	if err != nil {
		return fail(c, "inventory", err)
	}
	return c.JSON(fiber.Map{"message": "Offer updated", "data": offer})
}

// PUT /api/v1/requests/:id
func (h *InventoryHandler) UpdateRequest(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, "inventory", err)
	}
	var req service.RequestEdit
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	request, err := h.service.EditRequest(c.UserContext(), middleware.Session(c), id, req)
	if err != nil {
		return fail(c, "inventory", err)
	}
	return c.JSON(fiber.Map{"message": "Request updated", "data": request})
}

// Restock adds quantity to an owned item
// POST /api/v1/inventory/:kind/:id/restock
func (h *InventoryHandler) Restock(c *fiber.Ctx) error {
	kind, id, err := itemRef(c)
	if err != nil {
		return fail(c, "inventory", err)
	}
	var req QuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	qty, err := h.service.Restock(c.UserContext(), middleware.Session(c), kind, id, req.Quantity)
	if err != nil {
		return fail(c, "inventory", err)
	}
	return c.JSON(fiber.Map{"message": "Restocked", "quantity": qty})
}

// Cancel archives the whole remaining quantity and removes the item
// POST /api/v1/inventory/:kind/:id/cancel
func (h *InventoryHandler) Cancel(c *fiber.Ctx) error {
	kind, id, err := itemRef(c)
	if err != nil {
		return fail(c, "inventory", err)
	}
	var req ArchiveRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	res, err := h.service.FullCancel(c.UserContext(), middleware.Session(c), kind, id, req.ActionType)
	if err != nil {
		return fail(c, "inventory", err)
	}
	return c.JSON(res)
}

// Deduct archives part of an item
// POST /api/v1/inventory/:kind/:id/deduct
func (h *InventoryHandler) Deduct(c *fiber.Ctx) error {
	kind, id, err := itemRef(c)
	if err != nil {
		return fail(c, "inventory", err)
	}
	var req ArchiveRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	res, err := h.service.Deduct(c.UserContext(), middleware.Session(c), kind, id, req.Quantity, req.ActionType)
	if err != nil {
		return fail(c, "inventory", err)
	}
	return c.JSON(res)
}

// GetActions lists the owner action labels for a kind
// GET /api/v1/inventory/:kind/actions
func (h *InventoryHandler) GetActions(c *fiber.Ctx) error {
	kind, err := paramKind(c)
	if err != nil {
		return fail(c, "inventory", err)
	}
	return c.JSON(model.OwnerActions(kind))
}

func itemRef(c *fiber.Ctx) (model.ItemKind, uint, error) {
	kind, err := paramKind(c)
	if err != nil {
		return "", 0, err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return "", 0, err
	}
	return kind, id, nil
}
