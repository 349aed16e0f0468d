package handlers

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/converse-chat/converse/internal/media"
	"github.com/converse-chat/converse/internal/middleware"
)

type MediaHandler struct {
	media *media.Service
	log   *zap.SugaredLogger
}

func NewMediaHandler(m *media.Service, log *zap.SugaredLogger) *MediaHandler {
	return &MediaHandler{media: m, log: log}
}

// Upload accepts a multipart image and returns its URL for use as a message
// image.
func (h *MediaHandler) Upload(c *fiber.Ctx) error {
	if h.media == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "media storage not configured"})
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing file"})
	}
	f, err := fh.Open()
	if err != nil {
		return fail(c, h.log, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return fail(c, h.log, err)
	}

	img, err := h.media.UploadImage(c.Context(), middleware.UserID(c), fh.Filename, fh.Header.Get("Content-Type"), data)
	if err != nil {
		h.log.Warnw("image upload rejected", "err", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "upload failed"})
	}
	return c.Status(fiber.StatusCreated).JSON(img)
}
