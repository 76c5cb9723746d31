package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/maheshrc27/autopost-api/internal/models"
	"github.com/maheshrc27/autopost-api/internal/repository"
)

const counterDateLayout = "2006-01-02"

// DefaultSchedulerConfig is written on first run when no config exists.
var DefaultSchedulerConfig = models.SchedulerConfig{
	Enabled:            true,
	MinIntervalMinutes: 60,
	MaxPostsPerDay:     24,
	KeywordRotation:    true,
	Keywords:           []string{},
}

type RateLimiterOptions struct {
	Defaults models.SchedulerConfig
	TestMode bool
	Location *time.Location
	Now      func() time.Time
}

// RateLimiter owns the scheduler state. One instance per process is shared
// by the timer job, the queue worker and the HTTP handlers.
type RateLimiter struct {
	mu       sync.Mutex
	repo     repository.SchedulerStateRepository
	config   models.SchedulerConfig
	counters models.SchedulerCounters
	inFlight int
	testMode bool
	loc      *time.Location
	now      func() time.Time
}

// NewRateLimiter loads persisted state, creating missing documents from
// the defaults, and applies the date rollover before anything is checked.
func NewRateLimiter(ctx context.Context, repo repository.SchedulerStateRepository, opts RateLimiterOptions) (*RateLimiter, error) {
	r := &RateLimiter{
		repo:     repo,
		testMode: opts.TestMode,
		loc:      opts.Location,
		now:      opts.Now,
	}
	if r.loc == nil {
		r.loc = time.Local
	}
	if r.now == nil {
		r.now = time.Now
	}

	cfg, ok, err := repo.LoadConfig(ctx)
	if errors.Is(err, repository.ErrCorruptState) {
		slog.Error("scheduler config unreadable, recreating from defaults", "error", err)
		ok, err = false, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load scheduler config: %w", err)
	}
	if !ok {
		cfg = cloneConfig(opts.Defaults)
		if err := repo.SaveConfig(ctx, cfg); err != nil {
			return nil, fmt.Errorf("create scheduler config: %w", err)
		}
		slog.Info("scheduler config created with defaults")
	}
	r.config = *cfg

	counters, ok, err := repo.LoadCounters(ctx)
	if errors.Is(err, repository.ErrCorruptState) {
		slog.Error("scheduler counters unreadable, starting from zero", "error", err)
		ok, err = false, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load scheduler counters: %w", err)
	}
	if !ok {
		counters = &models.SchedulerCounters{Date: r.today()}
		if err := repo.SaveCounters(ctx, counters); err != nil {
			return nil, fmt.Errorf("create scheduler counters: %w", err)
		}
	}
	r.counters = *counters
	r.rollover()

	return r, nil
}

func (r *RateLimiter) today() string {
	return r.now().In(r.loc).Format(counterDateLayout)
}

// rollover resets the daily count when the calendar date has changed.
// Callers hold r.mu or own r exclusively.
func (r *RateLimiter) rollover() {
	if today := r.today(); r.counters.Date != today {
		if r.counters.Date != "" {
			slog.Info("scheduler day rolled over", "previous", r.counters.Date, "today", today, "posts", r.counters.TodayPostCount)
		}
		r.counters.Date = today
		r.counters.TodayPostCount = 0
	}
}

func (r *RateLimiter) eligible() (bool, string) {
	if r.testMode {
		return true, ""
	}
	if !r.config.Enabled {
		return false, "posting is disabled"
	}
	if r.counters.TodayPostCount+r.inFlight >= r.config.MaxPostsPerDay {
		return false, fmt.Sprintf("daily limit of %d posts reached", r.config.MaxPostsPerDay)
	}
	if r.config.MinIntervalMinutes > 0 {
		if r.inFlight > 0 {
			return false, "another post is in progress"
		}
		if last := r.counters.LastPostTime; last != nil {
			next := last.Add(time.Duration(r.config.MinIntervalMinutes) * time.Minute)
			if r.now().Before(next) {
				return false, fmt.Sprintf("next post allowed after %s", next.In(r.loc).Format(time.RFC3339))
			}
		}
	}
	return true, ""
}

func (r *RateLimiter) CanPostNow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rollover()
	ok, _ := r.eligible()
	return ok
}

// Reservation holds one slot between the gate check and the post record.
type Reservation struct {
	r    *RateLimiter
	once sync.Once
}

// Acquire checks the gate and holds a slot so that concurrent jobs cannot
// pass on the same remaining slot.
func (r *RateLimiter) Acquire() (*Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rollover()
	if ok, reason := r.eligible(); !ok {
		return nil, newError(KindRateLimited, "ratelimit", reason, nil)
	}
	r.inFlight++
	return &Reservation{r: r}, nil
}

// Commit records the post and frees the slot.
func (res *Reservation) Commit(ctx context.Context) error {
	var err error
	committed := false
	res.once.Do(func() {
		committed = true
		res.r.mu.Lock()
		defer res.r.mu.Unlock()
		res.r.inFlight--
		err = res.r.recordLocked(ctx)
	})
	if !committed {
		return errors.New("reservation already settled")
	}
	return err
}

// Release frees the slot without recording a post.
func (res *Reservation) Release() {
	res.once.Do(func() {
		res.r.mu.Lock()
		defer res.r.mu.Unlock()
		res.r.inFlight--
	})
}

// RecordPost stamps the post time, bumps today's count and persists the
// counters before returning.
func (r *RateLimiter) RecordPost(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recordLocked(ctx)
}

func (r *RateLimiter) recordLocked(ctx context.Context) error {
	r.rollover()
	now := r.now()
	r.counters.LastPostTime = &now
	r.counters.TodayPostCount++

	counters := r.counters
	if err := r.repo.SaveCounters(ctx, &counters); err != nil {
		slog.Error("persist scheduler counters", "error", err)
		return newError(KindInternal, "ratelimit.record", "persist counters", err)
	}
	return nil
}

// NextKeyword returns the keyword for the next unattended run. The rotation
// index is persisted with the next recorded post.
func (r *RateLimiter) NextKeyword() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keywords := r.config.Keywords
	if len(keywords) == 0 {
		return "", false
	}
	if !r.config.KeywordRotation {
		return keywords[0], true
	}

	idx := r.counters.KeywordRotationIndex % len(keywords)
	if idx < 0 {
		idx = 0
	}
	r.counters.KeywordRotationIndex = (idx + 1) % len(keywords)
	return keywords[idx], true
}

// UpdateConfig merges patch into the config. The merged config is persisted
// before it replaces the in-memory one, so a failed write changes nothing.
func (r *RateLimiter) UpdateConfig(ctx context.Context, patch models.SchedulerConfigPatch) (models.SchedulerConfig, error) {
	if err := validatePatch(patch); err != nil {
		return models.SchedulerConfig{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	merged := cloneConfig(r.config)
	if patch.Enabled != nil {
		merged.Enabled = *patch.Enabled
	}
	if patch.MinIntervalMinutes != nil {
		merged.MinIntervalMinutes = *patch.MinIntervalMinutes
	}
	if patch.MaxPostsPerDay != nil {
		merged.MaxPostsPerDay = *patch.MaxPostsPerDay
	}
	if patch.KeywordRotation != nil {
		merged.KeywordRotation = *patch.KeywordRotation
	}
	if patch.Keywords != nil {
		merged.Keywords = cleanKeywordList(patch.Keywords)
	}

	if err := r.repo.SaveConfig(ctx, merged); err != nil {
		return r.config, newError(KindInternal, "ratelimit.config", "persist config", err)
	}
	r.config = *merged
	return *cloneConfig(r.config), nil
}

func (r *RateLimiter) Config() models.SchedulerConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *cloneConfig(r.config)
}

func (r *RateLimiter) Status() models.SchedulerStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rollover()
	ok, _ := r.eligible()
	var last *time.Time
	if r.counters.LastPostTime != nil {
		t := *r.counters.LastPostTime
		last = &t
	}
	return models.SchedulerStatus{
		Enabled:             r.config.Enabled,
		Interval:            r.config.MinIntervalMinutes,
		MaxPostsPerDay:      r.config.MaxPostsPerDay,
		TodayPostCount:      r.counters.TodayPostCount,
		LastPostTime:        last,
		NextPostEligible:    ok,
		Keywords:            append([]string(nil), r.config.Keywords...),
		CurrentKeywordIndex: r.counters.KeywordRotationIndex,
		TestMode:            r.testMode,
	}
}

func validatePatch(p models.SchedulerConfigPatch) error {
	if p.MinIntervalMinutes != nil && *p.MinIntervalMinutes < 0 {
		return newError(KindInvalidInput, "ratelimit.config", "min_interval_minutes must not be negative", nil)
	}
	if p.MaxPostsPerDay != nil && *p.MaxPostsPerDay < 0 {
		return newError(KindInvalidInput, "ratelimit.config", "max_posts_per_day must not be negative", nil)
	}
	return nil
}

func cleanKeywordList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, k := range in {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func cloneConfig(c models.SchedulerConfig) *models.SchedulerConfig {
	c.Keywords = append([]string{}, c.Keywords...)
	return &c
}
