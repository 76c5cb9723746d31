package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/maheshrc27/autopost-api/internal/models"
	"github.com/maheshrc27/autopost-api/internal/service"
)

// HandleRunPostTask runs a queued job. Only rate-limited jobs are handed back
// to asynq for a retry; every other outcome is final.
func (q *Queue) HandleRunPostTask(ctx context.Context, task *asynq.Task) error {
	var payload RunPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	job, err := q.js.Build(ctx, payload.UserID, &payload.Request)
	if err != nil {
		// a daily quota refusal clears up, so let asynq retry it
		if service.KindOf(err) == service.KindRateLimited {
			return fmt.Errorf("build job: %w", err)
		}
		slog.Error("queued job rejected", "user_id", payload.UserID, "error", err)
		return fmt.Errorf("build job: %v: %w", err, asynq.SkipRetry)
	}
	job.Trigger = models.TriggerQueue

	result := q.ps.Run(ctx, job)
	if result.Success {
		return nil
	}
	if result.ErrorKind == string(service.KindRateLimited) {
		return fmt.Errorf("rate limited: %s", result.Error)
	}
	return fmt.Errorf("%s: %s: %w", result.ErrorKind, result.Error, asynq.SkipRetry)
}
