package job

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/autopost-api/internal/models"
	"github.com/maheshrc27/autopost-api/internal/repository"
	"github.com/maheshrc27/autopost-api/internal/service"
	"github.com/maheshrc27/autopost-api/internal/transfer"
)

type stubPosting struct {
	jobs []*models.PostJob
	// keyword -> error kind of a failed run
	fail map[string]service.ErrorKind
}

func (s *stubPosting) Run(_ context.Context, job *models.PostJob) *models.PipelineResult {
	s.jobs = append(s.jobs, job)
	if kind, ok := s.fail[job.Keyword]; ok {
		return &models.PipelineResult{Keyword: job.Keyword, ErrorKind: string(kind), Error: "failed"}
	}
	return &models.PipelineResult{Success: true, Keyword: job.Keyword}
}

type stubPlatforms struct{}

func (stubPlatforms) List(context.Context, int64) ([]*models.Platform, error) { return nil, nil }

func (stubPlatforms) Add(context.Context, int64, transfer.PlatformRequest) (*models.Platform, error) {
	return nil, nil
}

func (stubPlatforms) Credential(context.Context, int64, int64) (models.PlatformCredential, error) {
	return models.PlatformCredential{}, nil
}

func (stubPlatforms) DefaultCredential() models.PlatformCredential {
	return models.PlatformCredential{BaseURL: "https://blog.test", Username: "bot", Secret: "pw"}
}

func (stubPlatforms) CheckConnection(context.Context, int64, int64) (*transfer.ConnectionInfo, error) {
	return nil, nil
}

func newLimiter(t *testing.T, cfg models.SchedulerConfig) *service.RateLimiter {
	t.Helper()
	repo, err := repository.NewFileStateRepository(t.TempDir())
	require.NoError(t, err)
	rl, err := service.NewRateLimiter(context.Background(), repo, service.RateLimiterOptions{Defaults: cfg})
	require.NoError(t, err)
	return rl
}

func TestRunOnceRotatesKeywords(t *testing.T) {
	rl := newLimiter(t, models.SchedulerConfig{Enabled: true, MaxPostsPerDay: 10, KeywordRotation: true, Keywords: []string{"tea", "coffee"}})
	ps := &stubPosting{}
	j := NewAutoPostJob(rl, ps, stubPlatforms{}, nil, nil)

	require.NotNil(t, j.RunOnce(context.Background()))
	require.NotNil(t, j.RunOnce(context.Background()))

	require.Len(t, ps.jobs, 2)
	assert.Equal(t, "tea", ps.jobs[0].Keyword)
	assert.Equal(t, "coffee", ps.jobs[1].Keyword)

	job := ps.jobs[0]
	assert.Equal(t, models.PlanTierPremium, job.Plan)
	assert.Equal(t, models.ImageStrategyStock, job.ImageStrategy)
	assert.Equal(t, models.ContentStrategyAI, job.ContentStrategy)
	assert.Equal(t, models.TriggerTimer, job.Trigger)
	assert.Equal(t, "https://blog.test", job.Credential.BaseURL)
}

func TestRunOnceSkips(t *testing.T) {
	ps := &stubPosting{}

	closed := NewAutoPostJob(newLimiter(t, models.SchedulerConfig{Enabled: false, MaxPostsPerDay: 10, Keywords: []string{"tea"}}), ps, stubPlatforms{}, nil, nil)
	assert.Nil(t, closed.RunOnce(context.Background()))

	empty := NewAutoPostJob(newLimiter(t, models.SchedulerConfig{Enabled: true, MaxPostsPerDay: 10}), ps, stubPlatforms{}, nil, nil)
	assert.Nil(t, empty.RunOnce(context.Background()))

	assert.Empty(t, ps.jobs)
}

type stubSchedules struct {
	service.AutoPostService
	due      []*models.AutoPostConfig
	advanced []int64
}

func (s *stubSchedules) Due(context.Context, int) ([]*models.AutoPostConfig, error) {
	return s.due, nil
}

func (s *stubSchedules) Advance(_ context.Context, cfg *models.AutoPostConfig) error {
	s.advanced = append(s.advanced, cfg.ID)
	return nil
}

type stubJobs struct {
	reject map[string]service.ErrorKind
}

func (s stubJobs) Build(_ context.Context, userID int64, req *transfer.PostingRequest) (*models.PostJob, error) {
	if kind, ok := s.reject[req.Keyword]; ok {
		return nil, &service.Error{Kind: kind, Op: "job.build", Msg: "rejected"}
	}
	return &models.PostJob{
		UserID:  userID,
		Keyword: req.Keyword,
		Style:   models.ContentStyle(req.Style),
		Trigger: models.TriggerUser,
	}, nil
}

func TestRunUserSchedules(t *testing.T) {
	ps := &stubPosting{fail: map[string]service.ErrorKind{
		"busy":   service.KindRateLimited,
		"broken": service.KindRemoteRejected,
	}}
	schedules := &stubSchedules{due: []*models.AutoPostConfig{
		{ID: 1, UserID: 7, PlatformID: 3, Keywords: []string{"coffee", "tea"}, KeywordIndex: 1, Style: "qa"},
		{ID: 2, UserID: 8, Keywords: []string{"busy"}},
		{ID: 3, UserID: 8, Keywords: []string{"broken"}},
		{ID: 4, UserID: 9, Keywords: []string{"over quota"}},
		{ID: 5, UserID: 9, Keywords: []string{"gone"}},
	}}
	jobs := stubJobs{reject: map[string]service.ErrorKind{
		"over quota": service.KindRateLimited,
		"gone":       service.KindInvalidInput,
	}}
	j := NewAutoPostJob(newLimiter(t, models.SchedulerConfig{Enabled: true, MaxPostsPerDay: 10}), ps, stubPlatforms{}, schedules, jobs)

	results := j.RunUserSchedules(context.Background())

	require.Len(t, results, 3)
	require.Len(t, ps.jobs, 3)
	first := ps.jobs[0]
	assert.Equal(t, int64(7), first.UserID)
	assert.Equal(t, "tea", first.Keyword)
	assert.Equal(t, models.ContentStyle("qa"), first.Style)
	assert.Equal(t, models.TriggerTimer, first.Trigger)

	// rate-limited schedules stay due
	assert.Equal(t, []int64{1, 3, 5}, schedules.advanced)
}

func TestRunUserSchedulesDisabled(t *testing.T) {
	j := NewAutoPostJob(newLimiter(t, models.SchedulerConfig{Enabled: true, MaxPostsPerDay: 10}), &stubPosting{}, stubPlatforms{}, nil, nil)
	assert.Nil(t, j.RunUserSchedules(context.Background()))
}
