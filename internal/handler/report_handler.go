package handler

import (
	"go-pos-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ReportHandler struct {
	service service.ReportService
	log     *zap.Logger
}

func NewReportHandler(s service.ReportService, log *zap.Logger) *ReportHandler {
	return &ReportHandler{service: s, log: log}
}

func (h *ReportHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.Dashboard(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(stats)
}

// GetSalesSummary expects ?from=YYYY-MM-DD&to=YYYY-MM-DD, both inclusive.
func (h *ReportHandler) GetSalesSummary(c *fiber.Ctx) error {
	from, err := service.ParseDate("from", c.Query("from"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	to, err := service.ParseDate("to", c.Query("to"))
	if err != nil {
		return writeError(c, h.log, err)
	}

	summary, err := h.service.SalesSummary(c.UserContext(), from, to)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(summary)
}

func (h *ReportHandler) GetTodaySummary(c *fiber.Ctx) error {
	summary, err := h.service.TodaySummary(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(summary)
}

// GetTopProducts accepts ?n= and ?days=, defaulting to 5 and 30.
func (h *ReportHandler) GetTopProducts(c *fiber.Ctx) error {
	n := c.QueryInt("n", service.DefaultTopProducts)
	days := c.QueryInt("days", service.DefaultTopDays)

	top, err := h.service.TopProducts(c.UserContext(), n, days)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(top)
}
