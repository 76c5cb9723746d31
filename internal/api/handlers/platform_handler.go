package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/autopost-api/internal/service"
	"github.com/maheshrc27/autopost-api/internal/transfer"
)

type PlatformHandler struct {
	ps service.PlatformService
}

func NewPlatformHandler(ps service.PlatformService) *PlatformHandler {
	return &PlatformHandler{ps: ps}
}

func (h *PlatformHandler) ListPlatforms(c *fiber.Ctx) error {
	userID := GetUserID(c)

	platforms, err := h.ps.List(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list platforms",
		})
	}

	return c.Status(fiber.StatusOK).JSON(platforms)
}

func (h *PlatformHandler) AddPlatform(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.PlatformRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	platform, err := h.ps.Add(c.UserContext(), userID, req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(platform)
}

// CheckConnection tries the site with the stored credential.
func (h *PlatformHandler) CheckConnection(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platformID := c.QueryInt("id", 0)
	if platformID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id is required",
		})
	}

	info, err := h.ps.CheckConnection(c.UserContext(), userID, int64(platformID))
	if err != nil {
		if errors.Is(err, service.ErrPlatformNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(info)
}
