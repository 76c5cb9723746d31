package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/autopost-api/internal/models"
	"github.com/maheshrc27/autopost-api/internal/service"
)

// schedules handled per tick
const dueBatchSize = 20

// AutoPostJob is the unattended timer run: one rotated keyword per tick
// when the gate is open, then every user schedule that has come due.
type AutoPostJob struct {
	rl      *service.RateLimiter
	ps      service.PostingService
	pf      service.PlatformService
	as      service.AutoPostService
	js      service.JobService
	timeout time.Duration
	running sync.Mutex
}

// NewAutoPostJob accepts a nil as, which disables user schedules.
func NewAutoPostJob(rl *service.RateLimiter, ps service.PostingService, pf service.PlatformService, as service.AutoPostService, js service.JobService) *AutoPostJob {
	return &AutoPostJob{
		rl:      rl,
		ps:      ps,
		pf:      pf,
		as:      as,
		js:      js,
		timeout: 15 * time.Minute,
	}
}

// Run is registered with cron. Overlapping ticks are skipped.
func (j *AutoPostJob) Run() {
	if !j.running.TryLock() {
		slog.Info("previous auto-post run still active, skipping tick")
		return
	}
	defer j.running.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	j.RunOnce(ctx)
	j.RunUserSchedules(ctx)
}

// RunOnce returns nil when the tick was skipped.
func (j *AutoPostJob) RunOnce(ctx context.Context) *models.PipelineResult {
	if !j.rl.CanPostNow() {
		slog.Info("auto-post skipped, gate closed")
		return nil
	}

	keyword, ok := j.rl.NextKeyword()
	if !ok {
		slog.Info("auto-post skipped, no keywords configured")
		return nil
	}

	result := j.ps.Run(ctx, &models.PostJob{
		Keyword:         keyword,
		Plan:            models.PlanTierPremium,
		Credential:      j.pf.DefaultCredential(),
		ContentStrategy: models.ContentStrategyAI,
		ImageStrategy:   models.ImageStrategyStock,
		Trigger:         models.TriggerTimer,
	})
	if !result.Success {
		slog.Info("auto-post attempt failed", "keyword", keyword, "kind", result.ErrorKind, "error", result.Error)
	}
	return result
}

// RunUserSchedules runs every due user schedule once. A schedule that hit a
// rate limit stays due and is retried on the next tick; any other outcome
// moves it to its next keyword and run time.
func (j *AutoPostJob) RunUserSchedules(ctx context.Context) []*models.PipelineResult {
	if j.as == nil {
		return nil
	}

	due, err := j.as.Due(ctx, dueBatchSize)
	if err != nil {
		slog.Error("listing due auto-post schedules", "error", err)
		return nil
	}

	var results []*models.PipelineResult
	for _, cfg := range due {
		if ctx.Err() != nil {
			break
		}

		job, err := j.js.Build(ctx, cfg.UserID, service.AutoPostRequest(cfg))
		if err != nil {
			slog.Info("auto-post schedule rejected", "config_id", cfg.ID, "user_id", cfg.UserID, "error", err)
			if service.KindOf(err) != service.KindRateLimited {
				j.advance(ctx, cfg)
			}
			continue
		}
		job.Trigger = models.TriggerTimer

		result := j.ps.Run(ctx, job)
		results = append(results, result)
		if !result.Success {
			slog.Info("auto-post schedule attempt failed", "config_id", cfg.ID, "keyword", result.Keyword, "kind", result.ErrorKind, "error", result.Error)
			if result.ErrorKind == string(service.KindRateLimited) {
				continue
			}
		}
		j.advance(ctx, cfg)
	}
	return results
}

func (j *AutoPostJob) advance(ctx context.Context, cfg *models.AutoPostConfig) {
	if err := j.as.Advance(ctx, cfg); err != nil {
		slog.Error("auto-post schedule not advanced", "config_id", cfg.ID, "error", err)
	}
}
