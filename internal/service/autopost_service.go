package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/maheshrc27/autopost-api/internal/models"
	"github.com/maheshrc27/autopost-api/internal/repository"
	"github.com/maheshrc27/autopost-api/internal/transfer"
)

const baseFrequencyHours = 24

var ErrAutoPostConfigNotFound = errors.New("auto-post schedule not found")

// AutoPostService manages per-user recurring schedules and hands due ones
// to the timer job.
type AutoPostService interface {
	Save(ctx context.Context, userID int64, req transfer.AutoPostConfigRequest) (*models.AutoPostConfig, error)
	List(ctx context.Context, userID int64) ([]*models.AutoPostConfig, error)
	Stop(ctx context.Context, userID, id int64) error
	Due(ctx context.Context, limit int) ([]*models.AutoPostConfig, error)
	Advance(ctx context.Context, cfg *models.AutoPostConfig) error
}

type autoPostService struct {
	repo      repository.AutoPostConfigRepository
	platforms PlatformService
	plans     PlanService
	rnd       *Random
	now       func() time.Time
}

func NewAutoPostService(repo repository.AutoPostConfigRepository, platforms PlatformService, plans PlanService, rnd *Random) AutoPostService {
	return &autoPostService{
		repo:      repo,
		platforms: platforms,
		plans:     plans,
		rnd:       rnd,
		now:       time.Now,
	}
}

// Save validates the schedule against the user's plan and stores it. Base
// plan schedules always run once a day; random intervals need premium.
func (s *autoPostService) Save(ctx context.Context, userID int64, req transfer.AutoPostConfigRequest) (*models.AutoPostConfig, error) {
	if req.PlatformID == 0 {
		return nil, newError(KindInvalidInput, "autopost.save", "platform_id is required", nil)
	}
	keywords, err := ParseKeywords(req.Keywords)
	if err != nil {
		return nil, err
	}

	cfg := &models.AutoPostConfig{
		UserID:        userID,
		PlatformID:    req.PlatformID,
		Keywords:      keywords,
		Style:         strings.ToLower(strings.TrimSpace(req.Style)),
		ImageStrategy: string(models.ParseImageStrategy(req.ImageStrategy)),
		Active:        true,
		NextRunAt:     s.now(),
	}

	plan := s.plans.Resolve(ctx, userID)
	if err := s.applyFrequency(cfg, plan, req.Frequency); err != nil {
		return nil, err
	}

	if _, err := s.platforms.Credential(ctx, userID, req.PlatformID); err != nil {
		if errors.Is(err, ErrPlatformNotFound) {
			return nil, newError(KindInvalidInput, "autopost.save", fmt.Sprintf("platform %d does not exist", req.PlatformID), nil)
		}
		return nil, err
	}

	id, err := s.repo.Upsert(ctx, cfg)
	if err != nil {
		return nil, newError(KindInternal, "autopost.save", "unable to save schedule", err)
	}
	cfg.ID = id
	return cfg, nil
}

func (s *autoPostService) applyFrequency(cfg *models.AutoPostConfig, plan models.PlanTier, frequency string) error {
	frequency = strings.ToLower(strings.TrimSpace(frequency))

	if frequency == FrequencyRandom {
		if plan != models.PlanTierPremium {
			return newError(KindInvalidInput, "autopost.save", "random frequency requires the premium plan", nil)
		}
		cfg.RandomFrequency = true
		cfg.FrequencyHours = s.rnd.IntRange(1, 24)
		return nil
	}

	hours := baseFrequencyHours
	if frequency != "" && frequency != FrequencyImmediate {
		n, err := strconv.Atoi(frequency)
		if err != nil || n < 1 || n > 24 {
			return newError(KindInvalidInput, "autopost.save", fmt.Sprintf("invalid frequency %q", frequency), nil)
		}
		hours = n
	}
	if plan != models.PlanTierPremium && hours != baseFrequencyHours {
		return newError(KindInvalidInput, "autopost.save", "the base plan posts once a day", nil)
	}
	cfg.FrequencyHours = hours
	return nil
}

func (s *autoPostService) List(ctx context.Context, userID int64) ([]*models.AutoPostConfig, error) {
	configs, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, newError(KindInternal, "autopost.list", "unable to list schedules", err)
	}
	if configs == nil {
		configs = []*models.AutoPostConfig{}
	}
	return configs, nil
}

func (s *autoPostService) Stop(ctx context.Context, userID, id int64) error {
	found, err := s.repo.SetActive(ctx, id, userID, false)
	if err != nil {
		return newError(KindInternal, "autopost.stop", "unable to stop schedule", err)
	}
	if !found {
		return ErrAutoPostConfigNotFound
	}
	return nil
}

func (s *autoPostService) Due(ctx context.Context, limit int) ([]*models.AutoPostConfig, error) {
	return s.repo.ListDue(ctx, s.now(), limit)
}

// Advance moves the schedule to its next keyword and run time. Random
// schedules draw a fresh 1 to 24 hour interval every run.
func (s *autoPostService) Advance(ctx context.Context, cfg *models.AutoPostConfig) error {
	now := s.now()
	hours := cfg.FrequencyHours
	if cfg.RandomFrequency {
		hours = s.rnd.IntRange(1, 24)
	}
	if hours <= 0 {
		hours = baseFrequencyHours
	}

	next := 0
	if len(cfg.Keywords) > 0 {
		next = (cfg.KeywordIndex + 1) % len(cfg.Keywords)
	}
	return s.repo.MarkRun(ctx, cfg.ID, next, now, now.Add(time.Duration(hours)*time.Hour))
}

// AutoPostRequest is the posting request for the schedule's next run.
func AutoPostRequest(cfg *models.AutoPostConfig) *transfer.PostingRequest {
	return &transfer.PostingRequest{
		Keyword:       cfg.NextKeyword(),
		Style:         cfg.Style,
		ImageStrategy: cfg.ImageStrategy,
		PlatformID:    cfg.PlatformID,
	}
}
