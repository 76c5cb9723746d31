package transfer

import "github.com/maheshrc27/autopost-api/internal/models"

type PostingRequest struct {
	Keyword         string                `json:"keyword"`
	Keywords        string                `json:"keywords"`
	Title           string                `json:"title"`
	Content         string                `json:"content"`
	Style           string                `json:"style"`
	Complexity      int                   `json:"complexity"`
	ContentStrategy string                `json:"content_strategy"`
	ImageStrategy   string                `json:"image_strategy"`
	PlatformID      int64                 `json:"platform_id"`
	ScheduledAt     string                `json:"scheduled_at"`
	DryRun          bool                  `json:"dry_run"`
	SaveToLibrary   bool                  `json:"save_to_library"`
	Uploads         []models.UploadedFile `json:"uploads"`
}

type EnqueueResponse struct {
	TaskID    string `json:"task_id"`
	Queue     string `json:"queue"`
	ProcessAt string `json:"process_at"`
	Message   string `json:"message"`
}

type ScheduledPost struct {
	TaskID    string `json:"task_id"`
	Keyword   string `json:"keyword"`
	ProcessAt string `json:"process_at"`
}

type BatchResponse struct {
	Scheduled []ScheduledPost `json:"scheduled"`
	Message   string          `json:"message"`
}

// AutoPostConfigRequest saves a recurring schedule. Frequency is "immediate"
// (daily), "random" or a whole number of hours from 1 to 24.
type AutoPostConfigRequest struct {
	PlatformID    int64  `json:"platform_id"`
	Keywords      string `json:"keywords"`
	Frequency     string `json:"frequency"`
	Style         string `json:"style"`
	ImageStrategy string `json:"image_strategy"`
}
