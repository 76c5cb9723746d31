package service

import (
	"context"
	"fmt"
	"time"

	"github.com/maheshrc27/autopost-api/internal/models"
	"github.com/maheshrc27/autopost-api/internal/repository"
)

// DailyQuota is the number of published posts a user may make per calendar
// day on each plan. Zero or less means unlimited.
type DailyQuota struct {
	Base    int
	Premium int
}

var DefaultDailyQuota = DailyQuota{Base: 5, Premium: 100}

func (q DailyQuota) Limit(plan models.PlanTier) int {
	if plan == models.PlanTierPremium {
		return q.Premium
	}
	return q.Base
}

// QuotaService enforces the per-plan daily post allowance, counted from the
// posting history.
type QuotaService interface {
	Check(ctx context.Context, userID int64, plan models.PlanTier, n int) error
}

type quotaService struct {
	history repository.PostingHistoryRepository
	limits  DailyQuota
	loc     *time.Location
	now     func() time.Time
}

func NewQuotaService(history repository.PostingHistoryRepository, limits DailyQuota, loc *time.Location) QuotaService {
	if loc == nil {
		loc = time.Local
	}
	return &quotaService{
		history: history,
		limits:  limits,
		loc:     loc,
		now:     time.Now,
	}
}

// Check fails with KindRateLimited when n more posts would exceed today's
// allowance.
func (q *quotaService) Check(ctx context.Context, userID int64, plan models.PlanTier, n int) error {
	limit := q.limits.Limit(plan)
	if userID == 0 || n <= 0 || limit <= 0 {
		return nil
	}
	if n > limit {
		return newError(KindRateLimited, "quota", fmt.Sprintf("the %s plan allows %d posts per day", plan, limit), nil)
	}

	now := q.now().In(q.loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, q.loc)
	used, err := q.history.CountPostedSince(ctx, userID, midnight)
	if err != nil {
		return newError(KindInternal, "quota", "count today's posts", err)
	}
	if used+n > limit {
		return newError(KindRateLimited, "quota",
			fmt.Sprintf("daily limit of %d posts for the %s plan reached (%d used today)", limit, plan, used), nil)
	}
	return nil
}
