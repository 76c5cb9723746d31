package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/autopost-api/internal/models"
	"github.com/maheshrc27/autopost-api/internal/service"
)

type SettingsHandler struct {
	s service.SettingsService
}

func NewSettingsHandler(service service.SettingsService) *SettingsHandler {
	return &SettingsHandler{s: service}
}

func (h *SettingsHandler) GetStatus(c *fiber.Ctx) error {
	return c.JSON(h.s.Status(c.UserContext()))
}

func (h *SettingsHandler) GetConfig(c *fiber.Ctx) error {
	return c.JSON(h.s.Config(c.UserContext()))
}

func (h *SettingsHandler) UpdateConfig(c *fiber.Ctx) error {
	var patch models.SchedulerConfigPatch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	cfg, err := h.s.UpdateConfig(c.UserContext(), patch)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(cfg)
}
