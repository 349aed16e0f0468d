package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/converse-chat/converse/internal/middleware"
	"github.com/converse-chat/converse/internal/service"
)

type ConversationHandler struct {
	conversations *service.ConversationService
	log           *zap.SugaredLogger
}

func NewConversationHandler(conversations *service.ConversationService, log *zap.SugaredLogger) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, log: log}
}

func (h *ConversationHandler) List(c *fiber.Ctx) error {
	convs, err := h.conversations.ListForUser(c.Context(), middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(convs)
}

type createConversationRequest struct {
	UserID  string   `json:"user_id"`
	IsGroup bool     `json:"is_group"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

func (h *ConversationHandler) Create(c *fiber.Ctx) error {
	var req createConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	caller := middleware.UserID(c)
	if req.IsGroup {
		conv, err := h.conversations.CreateGroup(c.Context(), caller, req.Name, req.Members)
		if err != nil {
			return fail(c, h.log, err)
		}
		return c.Status(fiber.StatusCreated).JSON(conv)
	}
	conv, err := h.conversations.CreateDirect(c.Context(), caller, req.UserID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(conv)
}

func (h *ConversationHandler) Get(c *fiber.Ctx) error {
	conv, err := h.conversations.Get(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(conv)
}

func (h *ConversationHandler) Delete(c *fiber.Ctx) error {
	if err := h.conversations.Delete(c.Context(), middleware.UserID(c), c.Params("id")); err != nil {
		return fail(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Seen records the caller as having seen the newest message.
func (h *ConversationHandler) Seen(c *fiber.Ctx) error {
	conv, err := h.conversations.MarkSeen(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(conv)
}
