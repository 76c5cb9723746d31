package handlers

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/autopost-api/internal/queue"
	"github.com/maheshrc27/autopost-api/internal/repository"
	"github.com/maheshrc27/autopost-api/internal/service"
	"github.com/maheshrc27/autopost-api/internal/transfer"
)

type PostingHandler struct {
	ps      service.PostingService
	js      service.JobService
	ph      repository.PostingHistoryRepository
	enqueue queue.Enqueuer
}

func NewPostingHandler(ps service.PostingService, js service.JobService, ph repository.PostingHistoryRepository, enqueue queue.Enqueuer) *PostingHandler {
	return &PostingHandler{ps: ps, js: js, ph: ph, enqueue: enqueue}
}

// RunPost runs a posting job synchronously and returns its result.
func (h *PostingHandler) RunPost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	req, err := parsePostingRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	job, err := h.js.Build(c.UserContext(), userID, req)
	if err != nil {
		return errorResponse(c, err)
	}

	result := h.ps.Run(c.UserContext(), job)
	if !result.Success {
		return c.Status(statusForKind(result.ErrorKind)).JSON(result)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// EnqueuePost validates the request and hands it to the worker queue,
// optionally delayed until process_at.
func (h *PostingHandler) EnqueuePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	req, err := parsePostingRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if _, err := h.js.Build(c.UserContext(), userID, req); err != nil {
		return errorResponse(c, err)
	}

	var delay time.Duration
	if v := c.FormValue("process_at"); v != "" {
		processAt, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "process_at must be an RFC3339 timestamp",
			})
		}
		delay = max(time.Until(processAt), 0)
	}

	info, err := queue.EnqueuePost(c.UserContext(), h.enqueue, queue.RunPostPayload{UserID: userID, Request: *req}, delay)
	if err != nil {
		slog.Error("enqueue posting task", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error scheduling post",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(transfer.EnqueueResponse{
		TaskID:    info.ID,
		Queue:     info.Queue,
		ProcessAt: info.NextProcessAt.Format(time.RFC3339),
		Message:   "Post scheduled successfully",
	})
}

func (h *PostingHandler) ListHistory(c *fiber.Ctx) error {
	userID := GetUserID(c)
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	history, err := h.ph.GetByUserID(c.UserContext(), userID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list posting history",
		})
	}

	return c.Status(fiber.StatusOK).JSON(history)
}

func (h *PostingHandler) GetHistory(c *fiber.Ctx) error {
	userID := GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid history id",
		})
	}

	entry, err := h.ph.GetByID(c.UserContext(), int64(id))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to load posting history",
		})
	}
	if entry == nil || entry.UserID != userID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "History entry not found",
		})
	}

	return c.Status(fiber.StatusOK).JSON(entry)
}
