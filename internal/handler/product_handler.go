package handler

import (
	"go-pos-inventory/internal/middleware"
	"go-pos-inventory/internal/model"
	"go-pos-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ProductHandler struct {
	service service.ProductService
	log     *zap.Logger
}

func NewProductHandler(s service.ProductService, log *zap.Logger) *ProductHandler {
	return &ProductHandler{service: s, log: log}
}

func productResponses(products []model.Product) []model.ProductResponse {
	out := make([]model.ProductResponse, len(products))
	for i := range products {
		out[i] = products[i].ToResponse()
	}
	return out
}

// GetProducts lists the catalog, filtered by name when ?q= is given.
func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.service.Search(c.UserContext(), c.Query("q"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(productResponses(products))
}

func (h *ProductHandler) GetLowStock(c *fiber.Ctx) error {
	products, err := h.service.LowStock(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(productResponses(products))
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid product ID")
	}
	product, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(product.ToResponse())
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var in service.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	product, err := h.service.Create(c.UserContext(), in, middleware.Actor(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product created", "data": product.ToResponse()})
}

func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid product ID")
	}
	var in service.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	updated, err := h.service.Update(c.UserContext(), id, in, middleware.Actor(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": updated.ToResponse()})
}

func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid product ID")
	}
	if err := h.service.Delete(c.UserContext(), id, middleware.Actor(c)); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}

func (h *ProductHandler) Restock(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid product ID")
	}
	var req service.RestockRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	product, err := h.service.Restock(c.UserContext(), id, req, middleware.Actor(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Stock added", "data": product.ToResponse()})
}
