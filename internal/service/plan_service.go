package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/autopost-api/internal/models"
	"github.com/maheshrc27/autopost-api/internal/repository"
)

type PlanService interface {
	Resolve(ctx context.Context, userID int64) models.PlanTier
}

type planService struct {
	s   repository.SubscriptionRepository
	now func() time.Time
}

func NewPlanService(s repository.SubscriptionRepository) PlanService {
	return &planService{s: s, now: time.Now}
}

// Resolve falls back to the base tier when the lookup fails.
func (p *planService) Resolve(ctx context.Context, userID int64) models.PlanTier {
	sub, exists, err := p.s.GetByUserID(ctx, userID)
	if err != nil {
		slog.Warn("plan lookup failed, using base tier", "user_id", userID, "error", err)
		return models.PlanTierBase
	}
	if !exists {
		return models.PlanTierBase
	}
	return sub.Plan(p.now())
}
