package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/autopost-api/internal/service"
	"github.com/maheshrc27/autopost-api/internal/transfer"
)

type AutoPostHandler struct {
	as service.AutoPostService
}

func NewAutoPostHandler(as service.AutoPostService) *AutoPostHandler {
	return &AutoPostHandler{as: as}
}

func (h *AutoPostHandler) ListConfigs(c *fiber.Ctx) error {
	userID := GetUserID(c)

	configs, err := h.as.List(c.UserContext(), userID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(configs)
}

// SaveConfig creates or replaces the schedule for a platform and starts it.
func (h *AutoPostHandler) SaveConfig(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.AutoPostConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	cfg, err := h.as.Save(c.UserContext(), userID, req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(cfg)
}

func (h *AutoPostHandler) StopConfig(c *fiber.Ctx) error {
	userID := GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid schedule id",
		})
	}

	if err := h.as.Stop(c.UserContext(), userID, int64(id)); err != nil {
		if errors.Is(err, service.ErrAutoPostConfigNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Auto-post schedule stopped",
	})
}
