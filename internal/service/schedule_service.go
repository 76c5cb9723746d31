package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/maheshrc27/autopost-api/internal/models"
)

const (
	FrequencyImmediate = "immediate"
	FrequencyRandom    = "random"

	MaxBatchPosts = 100

	// random batches average one post every eight hours, give or take 20%
	randomBaseInterval = 8 * time.Hour
	randomJitter       = 0.2

	// slots landing between 01:00 and 05:59 move to 09:xx the same morning
	quietStartHour = 1
	quietEndHour   = 5
	quietMoveHour  = 9
)

// ScheduleService plans a batch of posts spread over time.
type ScheduleService interface {
	Plan(ctx context.Context, userID int64, plan models.PlanTier, frequency string, count int) ([]time.Time, error)
}

type scheduleService struct {
	quota QuotaService
	rnd   *Random
	loc   *time.Location
	now   func() time.Time
}

// NewScheduleService accepts a nil quota, which leaves the daily allowance
// unchecked.
func NewScheduleService(quota QuotaService, rnd *Random, loc *time.Location) ScheduleService {
	if loc == nil {
		loc = time.Local
	}
	return &scheduleService{
		quota: quota,
		rnd:   rnd,
		loc:   loc,
		now:   time.Now,
	}
}

// Plan validates the batch against the plan and the daily allowance, then
// returns the publish time of every post in order.
func (s *scheduleService) Plan(ctx context.Context, userID int64, plan models.PlanTier, frequency string, count int) ([]time.Time, error) {
	frequency = strings.ToLower(strings.TrimSpace(frequency))
	if frequency == FrequencyImmediate {
		count = 1
	}
	if count < 1 || count > MaxBatchPosts {
		return nil, newError(KindInvalidInput, "schedule", fmt.Sprintf("post_count must be between 1 and %d", MaxBatchPosts), nil)
	}
	if frequency == FrequencyRandom && plan != models.PlanTierPremium {
		return nil, newError(KindInvalidInput, "schedule", "random frequency requires the premium plan", nil)
	}

	slots, err := PostingSchedule(s.rnd, s.now().In(s.loc), frequency, count)
	if err != nil {
		return nil, err
	}

	if s.quota != nil {
		if err := s.quota.Check(ctx, userID, plan, len(slots)); err != nil {
			return nil, err
		}
	}
	return slots, nil
}

// PostingSchedule spaces count posts after now. frequency is "immediate",
// "random", or a fixed interval of 1 to 24 hours.
func PostingSchedule(rnd *Random, now time.Time, frequency string, count int) ([]time.Time, error) {
	switch frequency {
	case FrequencyImmediate:
		return []time.Time{now}, nil
	case FrequencyRandom:
		return randomSchedule(rnd, now, count), nil
	}

	hours, err := strconv.Atoi(frequency)
	if err != nil || hours < 1 || hours > 24 {
		return nil, newError(KindInvalidInput, "schedule", fmt.Sprintf("invalid frequency %q", frequency), nil)
	}

	slots := make([]time.Time, count)
	next := now
	for i := range slots {
		next = next.Add(time.Duration(hours) * time.Hour)
		slots[i] = next
	}
	return slots, nil
}

func randomSchedule(rnd *Random, now time.Time, count int) []time.Time {
	slots := make([]time.Time, count)
	next := now
	for i := range slots {
		variation := rnd.Float64()*2*randomJitter - randomJitter
		next = next.Add(time.Duration(float64(randomBaseInterval) * (1 + variation)))

		if h := next.Hour(); h >= quietStartHour && h <= quietEndHour {
			next = time.Date(next.Year(), next.Month(), next.Day(), quietMoveHour, rnd.Intn(60), next.Second(), next.Nanosecond(), next.Location())
		}
		slots[i] = next
	}
	return slots
}
