package handler

import (
	"go-pos-inventory/internal/middleware"
	"go-pos-inventory/internal/model"
	"go-pos-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SaleHandler struct {
	service service.SaleService
	log     *zap.Logger
}

func NewSaleHandler(s service.SaleService, log *zap.Logger) *SaleHandler {
	return &SaleHandler{service: s, log: log}
}

// RecordSale runs the atomic sale. The client is told when stock ran short
// (409) or the store was busy (503); it must not retry a 5xx blindly.
func (h *SaleHandler) RecordSale(c *fiber.Ctx) error {
	var req service.RecordSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	res, err := h.service.RecordSale(c.UserContext(), req, middleware.Actor(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Sale recorded", "data": res})
}

// GetSales lists sales, narrowed by ?from=&to= dates or ?user_id=.
func (h *SaleHandler) GetSales(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var (
		sales []model.Sale
		err   error
	)

	switch {
	case c.Query("from") != "" || c.Query("to") != "":
		from, perr := service.ParseDate("from", c.Query("from"))
		if perr != nil {
			return writeError(c, h.log, perr)
		}
		to, perr := service.ParseDate("to", c.Query("to"))
		if perr != nil {
			return writeError(c, h.log, perr)
		}
		sales, err = h.service.GetBetween(ctx, from, to)
	case c.Query("user_id") != "":
		userID, perr := uuid.Parse(c.Query("user_id"))
		if perr != nil {
			return badRequest(c, "Invalid user ID")
		}
		sales, err = h.service.GetByUser(ctx, userID)
	default:
		sales, err = h.service.GetAll(ctx)
	}
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(sales)
}

func (h *SaleHandler) GetSale(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid sale ID")
	}
	sale, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(sale)
}

func (h *SaleHandler) UpdateSale(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid sale ID")
	}
	var req service.UpdateSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	sale, err := h.service.UpdateSale(c.UserContext(), id, req, middleware.Actor(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Sale updated, stock was not adjusted", "data": sale})
}

func (h *SaleHandler) DeleteSale(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid sale ID")
	}
	if err := h.service.DeleteSale(c.UserContext(), id, middleware.Actor(c)); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Sale deleted, stock was not adjusted"})
}
