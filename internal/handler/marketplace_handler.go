package handler

import (
	"go-pharma-exchange/internal/middleware"
	"go-pharma-exchange/internal/service"

	"github.com/gofiber/fiber/v2"
)

type MarketplaceHandler struct {
	service service.MarketplaceService
	ratings service.RatingService
}

func NewMarketplaceHandler(s service.MarketplaceService, ratings service.RatingService) *MarketplaceHandler {
	return &MarketplaceHandler{service: s, ratings: ratings}
}

// GetListings returns open offers or requests of every pharmacy
// GET /api/v1/marketplace/:kind?q=&city=&min_discount=
func (h *MarketplaceHandler) GetListings(c *fiber.Ctx) error {
	kind, err := paramKind(c)
	if err != nil {
		return fail(c, "marketplace", err)
	}
	filters := service.Filters{
		Query:       c.Query("q"),
		City:        c.Query("city"),
		MinDiscount: c.QueryInt("min_discount", 0),
	}

	listings, err := h.service.Listings(c.UserContext(), middleware.Session(c), kind, filters)
	if err != nil {
		return fail(c, "marketplace", err)
	}
	return c.JSON(listings)
}

// Transact consumes part or all of another pharmacy's listing
// POST /api/v1/marketplace/:kind/:id/transact
func (h *MarketplaceHandler) Transact(c *fiber.Ctx) error {
	kind, id, err := itemRef(c)
	if err != nil {
		return fail(c, "marketplace", err)
	}
	var req QuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	res, err := h.service.Transact(c.UserContext(), middleware.Session(c), kind, id, req.Quantity)
	if err != nil {
		return fail(c, "marketplace", err)
	}
	return c.JSON(res)
}

// Rate records a review of a counterparty
// POST /api/v1/ratings
func (h *MarketplaceHandler) Rate(c *fiber.Ctx) error {
	var req service.RatingInput
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	res, err := h.ratings.Submit(c.UserContext(), middleware.Session(c), req)
	if err != nil {
		return fail(c, "rating", err)
	}
	if res.Duplicate {
		return c.JSON(fiber.Map{"message": "Already rated", "duplicate": true})
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}
