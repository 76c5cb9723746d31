package service

import (
	"context"

	"github.com/maheshrc27/autopost-api/internal/models"
)

// SettingsService exposes the scheduler configuration and status.
type SettingsService interface {
	Status(ctx context.Context) models.SchedulerStatus
	Config(ctx context.Context) models.SchedulerConfig
	UpdateConfig(ctx context.Context, patch models.SchedulerConfigPatch) (models.SchedulerConfig, error)
}

type settingsService struct {
	rl *RateLimiter
}

func NewSettingsService(rl *RateLimiter) SettingsService {
	return &settingsService{
		rl: rl,
	}
}

func (s *settingsService) Status(ctx context.Context) models.SchedulerStatus {
	return s.rl.Status()
}

func (s *settingsService) Config(ctx context.Context) models.SchedulerConfig {
	return s.rl.Config()
}

func (s *settingsService) UpdateConfig(ctx context.Context, patch models.SchedulerConfigPatch) (models.SchedulerConfig, error) {
	return s.rl.UpdateConfig(ctx, patch)
}
