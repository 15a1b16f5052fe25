package handler

import (
	"go-pos-inventory/internal/middleware"
	"go-pos-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	service service.AuthService
	log     *zap.Logger
}

func NewAuthHandler(s service.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{service: s, log: log}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	if req.Username == "" || req.Password == "" {
		return badRequest(c, "Username and password are required")
	}

	resp, err := h.service.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := h.service.Me(c.UserContext(), middleware.Actor(c).UserID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(user)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.service.Logout(c.UserContext(), middleware.Actor(c).UserID); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req service.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	err := h.service.ChangePassword(c.UserContext(), middleware.Actor(c).UserID, req.OldPassword, req.NewPassword)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Password changed, please log in again"})
}
