package handler

import (
	"encoding/json"
	"time"

	"go-pharma-exchange/internal/middleware"
	"go-pharma-exchange/internal/search"
	"go-pharma-exchange/internal/service"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type CatalogHandler struct {
	service  service.CatalogService
	debounce time.Duration
	log      *logrus.Logger
}

func NewCatalogHandler(s service.CatalogService, debounce time.Duration, log *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{service: s, debounce: debounce, log: log}
}

// Search runs one catalog lookup
// GET /api/v1/catalog/search?q=
func (h *CatalogHandler) Search(c *fiber.Ctx) error {
	return c.JSON(h.service.Search(c.UserContext(), c.Query("q")))
}

// ProposeMissing queues a drug that is not in the catalog for moderation
// POST /api/v1/catalog/pending
func (h *CatalogHandler) ProposeMissing(c *fiber.Ctx) error {
	var req service.PendingInput
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	item, err := h.service.ProposeMissing(c.UserContext(), middleware.Session(c), req)
	if err != nil {
		return fail(c, "catalog", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Submitted for review", "data": item})
}

type searchInput struct {
	Query string `json:"query"`
}

// SearchSocket debounces keystrokes sent over a websocket and answers with the latest results only.
// GET /api/v1/ws/search
func (h *CatalogHandler) SearchSocket() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		d := search.NewDebouncer(h.debounce, h.service.Lookup, func(r search.Result) {
			if err := conn.WriteJSON(r); err != nil {
				h.log.WithError(err).Debug("search socket write failed")
			}
		})
		defer d.Close()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var in searchInput
			if err := json.Unmarshal(msg, &in); err != nil {
				in.Query = string(msg)
			}
			d.Input(in.Query)
		}
	})
}
