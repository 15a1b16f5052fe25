package handler

import (
	"go-pos-inventory/internal/middleware"
	"go-pos-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type UserHandler struct {
	service service.UserService
	log     *zap.Logger
}

func NewUserHandler(s service.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{service: s, log: log}
}

func (h *UserHandler) GetAllUsers(c *fiber.Ctx) error {
	users, err := h.service.GetAllUsers(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(users)
}

func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid user ID")
	}
	user, err := h.service.GetUserByID(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(user)
}

func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req service.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	user, err := h.service.CreateUser(c.UserContext(), &req, middleware.Actor(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid user ID")
	}
	var req service.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	user, err := h.service.UpdateUser(c.UserContext(), id, &req, middleware.Actor(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(user)
}

func (h *UserHandler) GetRoles(c *fiber.Ctx) error {
	roles, err := h.service.GetRoles(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(roles)
}
