package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/converse-chat/converse/internal/middleware"
	"github.com/converse-chat/converse/internal/service"
)

type UserHandler struct {
	users *service.UserService
	log   *zap.SugaredLogger
}

func NewUserHandler(users *service.UserService, log *zap.SugaredLogger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

// List returns every user except the caller, for the contact picker.
func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.Context(), middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(users)
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	u, err := h.users.Get(c.Context(), middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(u)
}

type settingsRequest struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

func (h *UserHandler) UpdateSettings(c *fiber.Ctx) error {
	var req settingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	u, err := h.users.UpdateSettings(c.Context(), middleware.UserID(c), req.Name, req.Image)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(u)
}
