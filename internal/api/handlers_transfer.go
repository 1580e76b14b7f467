package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mistermandob/mandob/internal/services"
)

type importInput struct {
	Payload string `json:"payload" form:"payload"`
}

func (handler *Handler) ExportData(c *fiber.Ctx) error {
	wrapBase64 := strings.EqualFold(c.Query("encoding"), "base64")

	payload, err := handler.transfer.Export(wrapBase64)
	if err != nil {
		if errors.Is(err, services.ErrNoActiveSession) {
			return apiError(c, fiber.StatusConflict, "no active session")
		}
		return apiError(c, fiber.StatusInternalServerError, "export failed")
	}

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	return c.SendString(payload)
}

func (handler *Handler) ImportData(c *fiber.Ctx) error {
	var input importInput
	if err := c.BodyParser(&input); err != nil {
		// Allow posting the raw payload without a JSON wrapper.
		input.Payload = string(c.Body())
	}
	if strings.TrimSpace(input.Payload) == "" {
		return apiError(c, fiber.StatusBadRequest, "payload is required")
	}

	if err := handler.transfer.Import(input.Payload); err != nil {
		switch {
		case errors.Is(err, services.ErrDecodeFailure):
			return apiError(c, fiber.StatusUnprocessableEntity, "invalid or corrupt payload")
		case errors.Is(err, services.ErrNoActiveSession):
			return apiError(c, fiber.StatusConflict, "no active session")
		default:
			return apiError(c, fiber.StatusInternalServerError, "import failed")
		}
	}
	return c.JSON(fiber.Map{"ok": true})
}
