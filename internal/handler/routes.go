package handler

import (
	"go-pharma-exchange/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// Handlers bundles everything mounted under /api/v1.
type Handlers struct {
	Auth        *AuthHandler
	Catalog     *CatalogHandler
	Inventory   *InventoryHandler
	Marketplace *MarketplaceHandler
	Profile     *ProfileHandler
	Dashboard   *DashboardHandler
	Admin       *AdminHandler
}

// upgradeOnly rejects plain HTTP requests to websocket endpoints.
func upgradeOnly(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return c.SendStatus(fiber.StatusUpgradeRequired)
}

func Register(app *fiber.App, h Handlers, sessions middleware.SessionResolver) {
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", h.Auth.Login)
	auth.Post("/register", h.Auth.Register)
	auth.Post("/complete-profile", h.Auth.CompleteProfile)
	auth.Get("/validate", h.Auth.ValidateToken)

	api.Get("/legal/:type", h.Admin.GetLegal)

	// ============ PROTECTED ROUTES ============
	requireAuth := middleware.RequireAuth(sessions)

	api.Get("/ws/search", upgradeOnly, requireAuth, h.Catalog.SearchSocket())

	protected := api.Group("", requireAuth)
	protected.Get("/session", h.Auth.Session)
	protected.Post("/auth/logout", h.Auth.Logout)
	protected.Post("/auth/change-password", middleware.RequirePharmacy(), h.Auth.ChangePassword)

	protected.Get("/catalog/search", h.Catalog.Search)

	// ============ ADMIN ROUTES ============
	// must stay above the pharmacy group: its middleware has no prefix
	admin := protected.Group("/admin", middleware.RequireAdmin())
	admin.Get("/stats", h.Admin.GetStats)
	admin.Get("/pending", h.Admin.GetPending)
	admin.Post("/pending/:id/approve", h.Admin.ApprovePending)
	admin.Delete("/pending/:id", h.Admin.RejectPending)
	admin.Get("/pharmacies", h.Admin.GetPharmacies)
	admin.Post("/pharmacies/:pid/blacklist", h.Admin.ToggleBlacklist)
	admin.Delete("/pharmacies/:pid", h.Admin.DeletePharmacy)
	admin.Get("/admins", h.Admin.GetAdmins)
	admin.Post("/admins", h.Admin.CreateAdmin)
	admin.Delete("/admins/:id", h.Admin.DeleteAdmin)
	admin.Get("/posts", h.Admin.GetMarketPosts)
	admin.Delete("/posts/:kind/:id", h.Admin.DeleteMarketPost)
	admin.Get("/ratings", h.Admin.GetRatings)
	admin.Delete("/ratings/:id", h.Admin.DeleteRating)
	admin.Put("/legal/:type", h.Admin.UpsertLegal)

	// ============ PHARMACY ROUTES ============
	pharmacy := protected.Group("", middleware.RequirePharmacy())
	pharmacy.Post("/catalog/pending", h.Catalog.ProposeMissing)

	pharmacy.Get("/offers", h.Inventory.GetOffers)
	pharmacy.Post("/offers", h.Inventory.CreateOffer)
	pharmacy.Put("/offers/:id", h.Inventory.UpdateOffer)
	pharmacy.Get("/requests", h.Inventory.GetRequests)
	pharmacy.Post("/requests", h.Inventory.CreateRequest)
	pharmacy.Put("/requests/:id", h.Inventory.UpdateRequest)

	pharmacy.Get("/inventory/:kind/actions", h.Inventory.GetActions)
	pharmacy.Post("/inventory/:kind/:id/restock", h.Inventory.Restock)
	pharmacy.Post("/inventory/:kind/:id/cancel", h.Inventory.Cancel)
	pharmacy.Post("/inventory/:kind/:id/deduct", h.Inventory.Deduct)

	pharmacy.Get("/marketplace/:kind", h.Marketplace.GetListings)
	pharmacy.Post("/marketplace/:kind/:id/transact", h.Marketplace.Transact)
	pharmacy.Post("/ratings", h.Marketplace.Rate)

	pharmacy.Get("/profile", h.Profile.GetProfile)
	pharmacy.Put("/profile", h.Profile.UpdateProfile)
	pharmacy.Post("/profile/avatar", h.Profile.UploadAvatar)

	pharmacy.Get("/dashboard/stats", h.Dashboard.GetDashboardStats)
	pharmacy.Get("/reports/archive", h.Dashboard.GetArchiveReport)
}
