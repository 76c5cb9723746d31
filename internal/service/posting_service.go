package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/maheshrc27/autopost-api/internal/models"
	"github.com/maheshrc27/autopost-api/internal/repository"
)

// Pipeline stage names, used in logs and error ops.
const (
	StageValidate  = "validate"
	StageGate      = "gate"
	StageTransform = "transform"
	StageCompose   = "compose"
	StageImages    = "images"
	StagePublish   = "publish"
	StageRecord    = "record"
)

type PostingService interface {
	Run(ctx context.Context, job *models.PostJob) *models.PipelineResult
}

type PostingDeps struct {
	Limiter   *RateLimiter
	Keywords  KeywordService
	Content   ContentService
	Images    ImageService
	Publisher PublishService
	Notifier  Notifier
	History   repository.PostingHistoryRepository
}

type postingService struct {
	limiter   *RateLimiter
	keywords  KeywordService
	content   ContentService
	images    ImageService
	publisher PublishService
	notifier  Notifier
	history   repository.PostingHistoryRepository
	now       func() time.Time
}

func NewPostingService(deps PostingDeps) PostingService {
	return &postingService{
		limiter:   deps.Limiter,
		keywords:  deps.Keywords,
		content:   deps.Content,
		images:    deps.Images,
		publisher: deps.Publisher,
		notifier:  deps.Notifier,
		history:   deps.History,
		now:       time.Now,
	}
}

// Run executes one job end to end. It always returns a result and never
// panics; failures are logged, notified and reported in the result.
func (s *postingService) Run(ctx context.Context, job *models.PostJob) (result *models.PipelineResult) {
	stage := StageValidate
	keyword := ""
	if job == nil {
		job = &models.PostJob{}
	}

	defer func() {
		if p := recover(); p != nil {
			slog.Error("posting pipeline panicked",
				"stage", stage,
				"keyword", keyword,
				"panic", p,
				"stack", string(debug.Stack()))
			result = s.fail(ctx, job, keyword, stage, newError(KindInternal, stage, fmt.Sprintf("unexpected failure: %v", p), nil))
		}
	}()

	seed, err := ResolveKeyword(job)
	if err != nil {
		return s.fail(ctx, job, "", stage, err)
	}
	keyword = seed
	if job.Keyword != seed {
		resolved := *job
		resolved.Keyword = seed
		job = &resolved
	}

	stage = StageGate
	reservation, err := s.limiter.Acquire()
	if err != nil {
		return s.fail(ctx, job, keyword, stage, err)
	}
	settled := false
	defer func() {
		if !settled {
			reservation.Release()
		}
	}()

	stage = StageTransform
	derived, err := s.keywords.Transform(ctx, seed)
	if err != nil || derived == "" {
		slog.Info("keeping seed keyword", "seed", seed, "error", err)
		derived = seed
	}
	keyword = derived

	stage = StageCompose
	article := s.compose(ctx, job, derived)

	stage = StageImages
	var uploader MediaUploader = s.publisher
	if job.DryRun {
		uploader = &dryRunUploader{}
	}
	images := s.images.Assemble(ctx, job, article, uploader)
	body := PlaceFragments(article.BodyHTML, images.Fragments)

	stage = StagePublish
	var published *models.PublishResult
	if job.DryRun {
		published = &models.PublishResult{PostURL: dryRunPostURL(derived)}
	} else {
		published, err = s.publisher.PublishPost(ctx, job.Credential, models.PostPayload{
			Title:           article.Title,
			BodyHTML:        body,
			FeaturedMediaID: images.FeaturedMediaID,
			ScheduledAt:     job.ScheduledAt,
		})
		if err != nil {
			return s.fail(ctx, job, keyword, stage, err)
		}
	}

	stage = StageRecord
	settled = true
	if err := reservation.Commit(ctx); err != nil {
		slog.Error("post published but not recorded", "keyword", keyword, "post_url", published.PostURL, "error", err)
		notifyAsync(ctx, s.notifier, "Auto-post counter not saved", fmt.Sprintf("keyword: %s\nurl: %s\nerror: %v", keyword, published.PostURL, err))
	}

	result = &models.PipelineResult{
		Success:         true,
		PostID:          published.PostID,
		PostURL:         published.PostURL,
		Title:           article.Title,
		Keyword:         derived,
		ImageCount:      len(images.Fragments),
		FeaturedMediaID: images.FeaturedMediaID,
		DryRun:          job.DryRun,
		FinishedAt:      s.now(),
	}
	slog.Info("posting job finished",
		"keyword", derived,
		"seed", seed,
		"post_url", result.PostURL,
		"images", result.ImageCount,
		"dry_run", job.DryRun,
		"trigger", job.Trigger)
	s.recordHistory(ctx, job, result)
	return result
}

// compose prefers caller content and falls back to generation. A caller title
// always wins over the extracted one.
func (s *postingService) compose(ctx context.Context, job *models.PostJob, keyword string) *models.GeneratedArticle {
	var article *models.GeneratedArticle
	if strings.TrimSpace(job.Content) != "" {
		article = &models.GeneratedArticle{
			Title:              ExtractTitle(job.Content, keyword),
			BodyHTML:           job.Content,
			TransformedKeyword: keyword,
		}
	} else {
		article = s.content.Generate(ctx, keyword, GenerateOptions{
			Style:      job.Style,
			Complexity: job.Complexity,
			Plan:       job.Plan,
		})
	}
	if t := strings.TrimSpace(job.Title); t != "" {
		article.Title = t
	}
	return article
}

func (s *postingService) fail(ctx context.Context, job *models.PostJob, keyword, stage string, err error) *models.PipelineResult {
	kind := KindOf(err)
	result := &models.PipelineResult{
		Success:    false,
		Keyword:    keyword,
		DryRun:     job.DryRun,
		ErrorKind:  string(kind),
		Error:      err.Error(),
		FinishedAt: s.now(),
	}

	switch kind {
	case KindInvalidInput, KindRateLimited:
		slog.Info("posting job rejected", "stage", stage, "kind", kind, "keyword", keyword, "trigger", job.Trigger, "reason", err)
	default:
		slog.Error("posting job failed",
			"stage", stage,
			"kind", kind,
			"keyword", keyword,
			"user_id", job.UserID,
			"site", job.Credential.BaseURL,
			"protocol", job.Credential.Protocol,
			"trigger", job.Trigger,
			"error", err)
		notifyAsync(ctx, s.notifier,
			fmt.Sprintf("Auto-post failed: %s", kind),
			fmt.Sprintf("stage: %s\nkeyword: %s\nsite: %s\nerror: %v", stage, keyword, job.Credential.BaseURL, err))
	}

	s.recordHistory(ctx, job, result)
	return result
}

func (s *postingService) recordHistory(ctx context.Context, job *models.PostJob, result *models.PipelineResult) {
	if s.history == nil || job.UserID == 0 {
		return
	}

	status := models.PostStatusPosted
	switch {
	case !result.Success:
		status = models.PostStatusFailed
	case result.DryRun:
		status = models.PostStatusDryRun
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	_, err := s.history.Create(ctx, &models.PostingHistory{
		UserID:       job.UserID,
		Keyword:      result.Keyword,
		Title:        result.Title,
		PostURL:      result.PostURL,
		Trigger:      job.Trigger,
		Status:       status,
		ErrorKind:    result.ErrorKind,
		ErrorMessage: result.Error,
	})
	if err != nil {
		slog.Warn("posting history not saved", "user_id", job.UserID, "error", err)
	}
}

// ResolveKeyword takes the explicit keyword, or the first entry of the
// keywords field given as a JSON list or a comma separated string.
func ResolveKeyword(job *models.PostJob) (string, error) {
	list, err := KeywordList(job)
	if err != nil {
		return "", err
	}
	return list[0], nil
}

// KeywordList returns the explicit keyword alone, or every non-blank entry of
// the keywords field. It never returns an empty list without an error.
func KeywordList(job *models.PostJob) ([]string, error) {
	if k := strings.TrimSpace(job.Keyword); k != "" {
		return []string{k}, nil
	}
	return ParseKeywords(job.Keywords)
}

// ParseKeywords reads a JSON list or a comma or newline separated string.
func ParseKeywords(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	var list []string
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, newError(KindInvalidInput, StageValidate, "keywords is not a valid JSON list", err)
		}
	} else {
		list = strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' })
	}

	keywords := list[:0]
	for _, k := range list {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	if len(keywords) == 0 {
		return nil, newError(KindInvalidInput, StageValidate, "keyword is required", nil)
	}
	return keywords, nil
}
