package handlers

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/autopost-api/internal/queue"
	"github.com/maheshrc27/autopost-api/internal/service"
	"github.com/maheshrc27/autopost-api/internal/transfer"
)

type ScheduleHandler struct {
	js      service.JobService
	ss      service.ScheduleService
	enqueue queue.Enqueuer
}

func NewScheduleHandler(js service.JobService, ss service.ScheduleService, enqueue queue.Enqueuer) *ScheduleHandler {
	return &ScheduleHandler{js: js, ss: ss, enqueue: enqueue}
}

// ScheduleBatch spreads post_count posts over time and queues one task per
// slot. Keywords rotate across the slots.
func (h *ScheduleHandler) ScheduleBatch(c *fiber.Ctx) error {
	userID := GetUserID(c)

	req, err := parsePostingRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	count := 1
	if v := c.FormValue("post_count"); v != "" {
		if count, err = strconv.Atoi(v); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "post_count must be a number",
			})
		}
	}
	frequency := c.FormValue("frequency", service.FrequencyImmediate)

	// each slot carries its own time through the queue delay
	req.ScheduledAt = ""

	job, err := h.js.Build(c.UserContext(), userID, req)
	if err != nil {
		return errorResponse(c, err)
	}
	keywords, err := service.KeywordList(job)
	if err != nil {
		return errorResponse(c, err)
	}

	slots, err := h.ss.Plan(c.UserContext(), userID, job.Plan, frequency, count)
	if err != nil {
		return errorResponse(c, err)
	}

	resp := transfer.BatchResponse{Scheduled: make([]transfer.ScheduledPost, 0, len(slots))}
	for i, slot := range slots {
		slotReq := *req
		slotReq.Keyword = keywords[i%len(keywords)]
		slotReq.Keywords = ""

		info, err := queue.EnqueuePost(c.UserContext(), h.enqueue, queue.RunPostPayload{UserID: userID, Request: slotReq}, max(time.Until(slot), 0))
		if err != nil {
			slog.Error("enqueue batch post", "user_id", userID, "slot", i, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":     "Error scheduling posts",
				"scheduled": resp.Scheduled,
			})
		}
		resp.Scheduled = append(resp.Scheduled, transfer.ScheduledPost{
			TaskID:    info.ID,
			Keyword:   slotReq.Keyword,
			ProcessAt: slot.Format(time.RFC3339),
		})
	}

	resp.Message = fmt.Sprintf("%d posts scheduled", len(resp.Scheduled))
	return c.Status(fiber.StatusCreated).JSON(resp)
}
