package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/autopost-api/internal/models"
	"github.com/maheshrc27/autopost-api/internal/transfer"
)

var scheduledAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// JobService turns a request from a signed-in user into a PostJob.
type JobService interface {
	Build(ctx context.Context, userID int64, req *transfer.PostingRequest) (*models.PostJob, error)
}

type jobService struct {
	platforms PlatformService
	plans     PlanService
	quota     QuotaService
}

// NewJobService accepts a nil quota, which leaves the daily allowance
// unchecked.
func NewJobService(platforms PlatformService, plans PlanService, quota QuotaService) JobService {
	return &jobService{
		platforms: platforms,
		plans:     plans,
		quota:     quota,
	}
}

func (s *jobService) Build(ctx context.Context, userID int64, req *transfer.PostingRequest) (*models.PostJob, error) {
	if req == nil {
		err := errors.New("posting request is nil")
		slog.Error(err.Error())
		return nil, newError(KindInvalidInput, "job.build", err.Error(), nil)
	}

	job := &models.PostJob{
		UserID:          userID,
		Keyword:         strings.TrimSpace(req.Keyword),
		Keywords:        req.Keywords,
		Plan:            s.plans.Resolve(ctx, userID),
		ContentStrategy: models.ContentStrategy(req.ContentStrategy),
		ImageStrategy:   models.ParseImageStrategy(req.ImageStrategy),
		Style:           models.ContentStyle(strings.ToLower(strings.TrimSpace(req.Style))),
		Complexity:      req.Complexity,
		Title:           req.Title,
		Content:         req.Content,
		Uploads:         req.Uploads,
		DryRun:          req.DryRun,
		SaveToLibrary:   req.SaveToLibrary,
		Trigger:         models.TriggerUser,
	}
	if job.ContentStrategy == "" {
		job.ContentStrategy = models.ContentStrategyAI
		if strings.TrimSpace(req.Content) != "" {
			job.ContentStrategy = models.ContentStrategyCustom
		}
	}
	if job.ContentStrategy == models.ContentStrategyAI {
		job.Content = ""
	}

	if req.ScheduledAt != "" {
		t, err := parseScheduledAt(req.ScheduledAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, newError(KindInvalidInput, "job.build", "invalid scheduled time format", err)
		}
		job.ScheduledAt = &t
	}

	if s.quota != nil && !job.DryRun {
		if err := s.quota.Check(ctx, userID, job.Plan, 1); err != nil {
			return nil, err
		}
	}

	if req.PlatformID != 0 {
		cred, err := s.platforms.Credential(ctx, userID, req.PlatformID)
		if err != nil {
			if errors.Is(err, ErrPlatformNotFound) {
				return nil, newError(KindInvalidInput, "job.build", fmt.Sprintf("platform %d does not exist", req.PlatformID), nil)
			}
			return nil, err
		}
		job.Credential = cred
	} else if !req.DryRun {
		return nil, newError(KindCredentialMissing, "job.build", "platform_id is required", nil)
	}

	return job, nil
}

func parseScheduledAt(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range scheduledAtLayouts {
		t, err := time.ParseInLocation(layout, strings.TrimSpace(s), time.Local)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
