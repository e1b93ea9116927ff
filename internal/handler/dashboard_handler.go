package handler

import (
	"go-pharma-exchange/internal/middleware"
	"go-pharma-exchange/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.DashboardService
	reports service.ReportService
}

func NewDashboardHandler(s service.DashboardService, reports service.ReportService) *DashboardHandler {
	return &DashboardHandler{service: s, reports: reports}
}

// GetDashboardStats returns the pharmacy's overview statistics
// GET /api/v1/dashboard/stats
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext(), middleware.Session(c))
	if err != nil {
		return fail(c, "dashboard", err)
	}
	return c.JSON(stats)
}

// GetArchiveReport returns the archive for a range
// Query params: range (today, week, month, all; default all)
func (h *DashboardHandler) GetArchiveReport(c *fiber.Ctx) error {
	r, err := service.ParseReportRange(c.Query("range", "all"))
	if err != nil {
		return fail(c, "report", err)
	}

	report, err := h.reports.Archive(c.UserContext(), middleware.Session(c), r)
	if err != nil {
		return fail(c, "report", err)
	}
	return c.JSON(report)
}
