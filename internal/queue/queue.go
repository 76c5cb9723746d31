package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

func EnqueuePost(ctx context.Context, client Enqueuer, payload RunPostPayload, delay time.Duration) (*asynq.TaskInfo, error) {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	task := asynq.NewTask(TaskTypeRunPost, taskPayload, asynq.MaxRetry(3), asynq.Timeout(15*time.Minute))

	info, err := client.EnqueueContext(ctx, task, asynq.ProcessIn(delay))
	if err != nil {
		return nil, err
	}

	slog.Info("posting task enqueued", "task_id", info.ID, "user_id", payload.UserID, "keyword", payload.Request.Keyword, "delay", delay)
	return info, nil
}
