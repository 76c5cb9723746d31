package queue

import (
	"github.com/maheshrc27/autopost-api/internal/service"
	"github.com/maheshrc27/autopost-api/internal/transfer"
)

type Queue struct {
	ps service.PostingService
	js service.JobService
}

func NewQueue(ps service.PostingService, js service.JobService) *Queue {
	return &Queue{
		ps: ps,
		js: js,
	}
}

const TaskTypeRunPost = "autopost:run"

// RunPostPayload carries the request, not the job: the credential is
// resolved again when the task runs so no secret is stored in Redis.
type RunPostPayload struct {
	UserID  int64                   `json:"user_id"`
	Request transfer.PostingRequest `json:"request"`
}
