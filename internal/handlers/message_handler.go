package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/converse-chat/converse/internal/middleware"
	"github.com/converse-chat/converse/internal/service"
)

type MessageHandler struct {
	messages *service.MessageService
	log      *zap.SugaredLogger
}

func NewMessageHandler(messages *service.MessageService, log *zap.SugaredLogger) *MessageHandler {
	return &MessageHandler{messages: messages, log: log}
}

type sendMessageRequest struct {
	Body  string `json:"body"`
	Image string `json:"image"`
}

func (h *MessageHandler) Create(c *fiber.Ctx) error {
	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	msg, err := h.messages.Send(c.Context(), middleware.UserID(c), c.Params("id"), req.Body, req.Image)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *MessageHandler) List(c *fiber.Ctx) error {
	limit := int64(c.QueryInt("limit", 50))
	var before time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid before timestamp"})
		}
		before = t
	}
	msgs, err := h.messages.List(c.Context(), middleware.UserID(c), c.Params("id"), limit, before)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(msgs)
}
