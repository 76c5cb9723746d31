package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/autopost-api/internal/models"
	"github.com/maheshrc27/autopost-api/internal/transfer"
)

type fakePlatformService struct {
	PlatformService
	creds map[int64]models.PlatformCredential
	err   error
}

func (f *fakePlatformService) Credential(_ context.Context, _ int64, platformID int64) (models.PlatformCredential, error) {
	if f.err != nil {
		return models.PlatformCredential{}, f.err
	}
	cred, ok := f.creds[platformID]
	if !ok {
		return models.PlatformCredential{}, ErrPlatformNotFound
	}
	return cred, nil
}

type fixedPlan models.PlanTier

func (p fixedPlan) Resolve(context.Context, int64) models.PlanTier { return models.PlanTier(p) }

func newTestJobService() JobService {
	return NewJobService(&fakePlatformService{creds: map[int64]models.PlatformCredential{
		1: testCredential("https://blog.test", models.ProtocolREST),
	}}, fixedPlan(models.PlanTierPremium), nil)
}

func TestJobBuild(t *testing.T) {
	job, err := newTestJobService().Build(context.Background(), 8, &transfer.PostingRequest{
		Keyword:       " tea ",
		Style:         "QA",
		Complexity:    7,
		ImageStrategy: "ai",
		PlatformID:    1,
		ScheduledAt:   "2024-07-01T10:30",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(8), job.UserID)
	assert.Equal(t, "tea", job.Keyword)
	assert.Equal(t, models.PlanTierPremium, job.Plan)
	assert.Equal(t, models.StyleQA, job.Style)
	assert.Equal(t, models.ImageStrategyStock, job.ImageStrategy)
	assert.Equal(t, models.ContentStrategyAI, job.ContentStrategy)
	assert.Equal(t, "editor", job.Credential.Username)
	assert.Equal(t, models.TriggerUser, job.Trigger)
	require.NotNil(t, job.ScheduledAt)
	assert.Equal(t, time.Date(2024, 7, 1, 10, 30, 0, 0, time.Local), *job.ScheduledAt)
}

func TestJobBuildContentStrategy(t *testing.T) {
	s := newTestJobService()

	job, err := s.Build(context.Background(), 1, &transfer.PostingRequest{Keyword: "tea", Content: "<p>mine</p>", PlatformID: 1})
	require.NoError(t, err)
	assert.Equal(t, models.ContentStrategyCustom, job.ContentStrategy)
	assert.Equal(t, "<p>mine</p>", job.Content)

	job, err = s.Build(context.Background(), 1, &transfer.PostingRequest{Keyword: "tea", Content: "<p>mine</p>", ContentStrategy: "ai_only", PlatformID: 1})
	require.NoError(t, err)
	assert.Empty(t, job.Content)
}

func TestJobBuildErrors(t *testing.T) {
	s := newTestJobService()
	ctx := context.Background()

	_, err := s.Build(ctx, 1, nil)
	assert.Equal(t, KindInvalidInput, KindOf(err))

	_, err = s.Build(ctx, 1, &transfer.PostingRequest{Keyword: "tea", PlatformID: 1, ScheduledAt: "next tuesday"})
	assert.Equal(t, KindInvalidInput, KindOf(err))

	_, err = s.Build(ctx, 1, &transfer.PostingRequest{Keyword: "tea", PlatformID: 42})
	assert.Equal(t, KindInvalidInput, KindOf(err))

	_, err = s.Build(ctx, 1, &transfer.PostingRequest{Keyword: "tea"})
	assert.Equal(t, KindCredentialMissing, KindOf(err))

	job, err := s.Build(ctx, 1, &transfer.PostingRequest{Keyword: "tea", DryRun: true})
	require.NoError(t, err)
	assert.True(t, job.DryRun)

	failing := NewJobService(&fakePlatformService{err: errors.New("db down")}, fixedPlan(models.PlanTierBase), nil)
	_, err = failing.Build(ctx, 1, &transfer.PostingRequest{Keyword: "tea", PlatformID: 1})
	assert.Error(t, err)
}
