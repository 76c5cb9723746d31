package models

import (
	"time"
)

type PlanTier string

const (
	PlanTierBase    PlanTier = "base"
	PlanTierPremium PlanTier = "premium"
)

type ContentStrategy string

const (
	ContentStrategyAI     ContentStrategy = "ai_only"
	ContentStrategyCustom ContentStrategy = "custom"
)

type ImageStrategy string

const (
	ImageStrategyNone    ImageStrategy = "none"
	ImageStrategyStock   ImageStrategy = "stock"
	ImageStrategyLibrary ImageStrategy = "library"
	ImageStrategyMixed   ImageStrategy = "mixed"
)

// ParseImageStrategy accepts the legacy "ai" selector as stock search.
func ParseImageStrategy(s string) ImageStrategy {
	switch ImageStrategy(s) {
	case ImageStrategyNone, ImageStrategyStock, ImageStrategyLibrary, ImageStrategyMixed:
		return ImageStrategy(s)
	case "ai", "unsplash":
		return ImageStrategyStock
	case "":
		return ImageStrategyStock
	}
	return ImageStrategyNone
}

func (s ImageStrategy) AllowsStock() bool {
	return s == ImageStrategyStock || s == ImageStrategyMixed
}

func (s ImageStrategy) AllowsLibrary() bool {
	return s == ImageStrategyLibrary || s == ImageStrategyMixed
}

type ContentStyle string

const (
	StyleExpert     ContentStyle = "expert"
	StyleExperience ContentStyle = "experience"
	StyleQA         ContentStyle = "qa"
	StyleListicle   ContentStyle = "listicle"
	StyleHowTo      ContentStyle = "howto"
	StyleCompare    ContentStyle = "compare"
)

var ContentStyles = []ContentStyle{
	StyleExpert,
	StyleExperience,
	StyleQA,
	StyleListicle,
	StyleHowTo,
	StyleCompare,
}

// UploadedFile is an image attached to the request that started the job.
type UploadedFile struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// PostJob is one publish attempt. It lives only for the duration of Run.
type PostJob struct {
	UserID          int64              `json:"user_id"`
	Keyword         string             `json:"keyword"`
	Keywords        string             `json:"keywords"`
	Plan            PlanTier           `json:"plan"`
	Credential      PlatformCredential `json:"-"`
	ContentStrategy ContentStrategy    `json:"content_strategy"`
	ImageStrategy   ImageStrategy      `json:"image_strategy"`
	Style           ContentStyle       `json:"style"`
	Complexity      int                `json:"complexity"`
	ScheduledAt     *time.Time         `json:"scheduled_at,omitempty"`
	Title           string             `json:"title"`
	Content         string             `json:"content"`
	Uploads         []UploadedFile     `json:"uploads"`
	DryRun          bool               `json:"dry_run"`
	SaveToLibrary   bool               `json:"save_to_library"`
	Trigger         string             `json:"trigger"`
}

const (
	TriggerUser  = "user"
	TriggerQueue = "queue"
	TriggerTimer = "timer"
)

type PipelineResult struct {
	Success         bool      `json:"success"`
	PostID          int64     `json:"post_id,omitempty"`
	PostURL         string    `json:"post_url,omitempty"`
	Title           string    `json:"title,omitempty"`
	Keyword         string    `json:"keyword,omitempty"`
	ImageCount      int       `json:"image_count"`
	FeaturedMediaID int64     `json:"featured_media_id,omitempty"`
	DryRun          bool      `json:"dry_run,omitempty"`
	ErrorKind       string    `json:"error_kind,omitempty"`
	Error           string    `json:"error,omitempty"`
	FinishedAt      time.Time `json:"finished_at"`
}
