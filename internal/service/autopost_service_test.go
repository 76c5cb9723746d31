package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/autopost-api/internal/models"
	"github.com/maheshrc27/autopost-api/internal/repository"
	"github.com/maheshrc27/autopost-api/internal/transfer"
)

type fakeAutoPostConfigs struct {
	repository.AutoPostConfigRepository
	saved     *models.AutoPostConfig
	owned     map[int64]int64
	stopped   []int64
	marked    map[int64]int
	nextRunAt time.Time
	err       error
}

func (f *fakeAutoPostConfigs) Upsert(_ context.Context, c *models.AutoPostConfig) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.saved = c
	return 11, nil
}

func (f *fakeAutoPostConfigs) ListByUserID(context.Context, int64) ([]*models.AutoPostConfig, error) {
	return nil, f.err
}

func (f *fakeAutoPostConfigs) SetActive(_ context.Context, id, userID int64, _ bool) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.owned[id] != userID {
		return false, nil
	}
	f.stopped = append(f.stopped, id)
	return true, nil
}

func (f *fakeAutoPostConfigs) MarkRun(_ context.Context, id int64, keywordIndex int, _, nextRunAt time.Time) error {
	if f.marked == nil {
		f.marked = map[int64]int{}
	}
	f.marked[id] = keywordIndex
	f.nextRunAt = nextRunAt
	return nil
}

var autoPostNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func newTestAutoPost(repo *fakeAutoPostConfigs, plan models.PlanTier) *autoPostService {
	s := NewAutoPostService(repo, &fakePlatformService{creds: map[int64]models.PlatformCredential{
		1: testCredential("https://blog.test", models.ProtocolREST),
	}}, fixedPlan(plan), NewRandom(3)).(*autoPostService)
	s.now = func() time.Time { return autoPostNow }
	return s
}

func TestAutoPostSave(t *testing.T) {
	repo := &fakeAutoPostConfigs{}
	s := newTestAutoPost(repo, models.PlanTierPremium)

	cfg, err := s.Save(context.Background(), 7, transfer.AutoPostConfigRequest{
		PlatformID:    1,
		Keywords:      `["coffee", " ", "tea"]`,
		Frequency:     "6",
		Style:         " QA ",
		ImageStrategy: "library",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(11), cfg.ID)
	assert.Same(t, cfg, repo.saved)
	assert.Equal(t, []string{"coffee", "tea"}, cfg.Keywords)
	assert.Equal(t, 6, cfg.FrequencyHours)
	assert.False(t, cfg.RandomFrequency)
	assert.Equal(t, "qa", cfg.Style)
	assert.Equal(t, "library", cfg.ImageStrategy)
	assert.True(t, cfg.Active)
	assert.Equal(t, autoPostNow, cfg.NextRunAt)
}

func TestAutoPostSaveFrequencyByPlan(t *testing.T) {
	tests := []struct {
		name      string
		plan      models.PlanTier
		frequency string
		hours     int
		random    bool
		kind      ErrorKind
	}{
		{"base default", models.PlanTierBase, "", 24, false, ""},
		{"base immediate runs daily", models.PlanTierBase, "immediate", 24, false, ""},
		{"base explicit daily", models.PlanTierBase, "24", 24, false, ""},
		{"base hourly", models.PlanTierBase, "1", 0, false, KindInvalidInput},
		{"base random", models.PlanTierBase, "random", 0, false, KindInvalidInput},
		{"premium hourly", models.PlanTierPremium, "1", 1, false, ""},
		{"premium random", models.PlanTierPremium, "random", 0, true, ""},
		{"out of range", models.PlanTierPremium, "48", 0, false, KindInvalidInput},
		{"not a number", models.PlanTierPremium, "weekly", 0, false, KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := newTestAutoPost(&fakeAutoPostConfigs{}, tt.plan).Save(context.Background(), 7, transfer.AutoPostConfigRequest{
				PlatformID: 1,
				Keywords:   "tea",
				Frequency:  tt.frequency,
			})
			if tt.kind != "" {
				assert.Equal(t, tt.kind, KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.random, cfg.RandomFrequency)
			if tt.random {
				assert.GreaterOrEqual(t, cfg.FrequencyHours, 1)
				assert.LessOrEqual(t, cfg.FrequencyHours, 24)
			} else {
				assert.Equal(t, tt.hours, cfg.FrequencyHours)
			}
		})
	}
}

func TestAutoPostSaveErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestAutoPost(&fakeAutoPostConfigs{}, models.PlanTierPremium)

	_, err := s.Save(ctx, 7, transfer.AutoPostConfigRequest{Keywords: "tea"})
	assert.Equal(t, KindInvalidInput, KindOf(err))

	_, err = s.Save(ctx, 7, transfer.AutoPostConfigRequest{PlatformID: 1, Keywords: " , "})
	assert.Equal(t, KindInvalidInput, KindOf(err))

	_, err = s.Save(ctx, 7, transfer.AutoPostConfigRequest{PlatformID: 9, Keywords: "tea"})
	assert.Equal(t, KindInvalidInput, KindOf(err))

	failing := newTestAutoPost(&fakeAutoPostConfigs{err: errors.New("db down")}, models.PlanTierPremium)
	_, err = failing.Save(ctx, 7, transfer.AutoPostConfigRequest{PlatformID: 1, Keywords: "tea"})
	assert.Equal(t, KindInternal, KindOf(err))
}

func TestAutoPostStop(t *testing.T) {
	repo := &fakeAutoPostConfigs{owned: map[int64]int64{4: 7}}
	s := newTestAutoPost(repo, models.PlanTierBase)

	require.NoError(t, s.Stop(context.Background(), 7, 4))
	assert.Equal(t, []int64{4}, repo.stopped)

	assert.ErrorIs(t, s.Stop(context.Background(), 8, 4), ErrAutoPostConfigNotFound)
	assert.ErrorIs(t, s.Stop(context.Background(), 7, 5), ErrAutoPostConfigNotFound)
}

func TestAutoPostList(t *testing.T) {
	configs, err := newTestAutoPost(&fakeAutoPostConfigs{}, models.PlanTierBase).List(context.Background(), 7)
	require.NoError(t, err)
	assert.NotNil(t, configs)
	assert.Empty(t, configs)
}

func TestAutoPostAdvance(t *testing.T) {
	repo := &fakeAutoPostConfigs{}
	s := newTestAutoPost(repo, models.PlanTierBase)

	cfg := &models.AutoPostConfig{ID: 4, Keywords: []string{"coffee", "tea"}, KeywordIndex: 1, FrequencyHours: 6}
	assert.Equal(t, "tea", cfg.NextKeyword())
	require.NoError(t, s.Advance(context.Background(), cfg))
	assert.Equal(t, 0, repo.marked[4])
	assert.Equal(t, autoPostNow.Add(6*time.Hour), repo.nextRunAt)

	random := &models.AutoPostConfig{ID: 5, Keywords: []string{"tea"}, RandomFrequency: true, FrequencyHours: 3}
	require.NoError(t, s.Advance(context.Background(), random))
	gap := repo.nextRunAt.Sub(autoPostNow)
	assert.GreaterOrEqual(t, gap, time.Hour)
	assert.LessOrEqual(t, gap, 24*time.Hour)

	req := AutoPostRequest(&models.AutoPostConfig{PlatformID: 1, Keywords: []string{"a", "b"}, KeywordIndex: 3, Style: "qa"})
	assert.Equal(t, "b", req.Keyword)
	assert.Equal(t, int64(1), req.PlatformID)
	assert.Equal(t, "qa", req.Style)
}
