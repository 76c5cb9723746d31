package models

import "time"

// AutoPostConfig is a user's standing instruction to post on one platform at
// a fixed or random interval, rotating through a keyword list.
type AutoPostConfig struct {
	ID              int64      `db:"id" json:"id"`
	UserID          int64      `db:"user_id" json:"user_id"`
	PlatformID      int64      `db:"platform_id" json:"platform_id"`
	Keywords        []string   `db:"keywords" json:"keywords"`
	FrequencyHours  int        `db:"frequency_hours" json:"frequency_hours"`
	RandomFrequency bool       `db:"random_frequency" json:"random_frequency"`
	Style           string     `db:"style" json:"style"`
	ImageStrategy   string     `db:"image_strategy" json:"image_strategy"`
	Active          bool       `db:"active" json:"active"`
	KeywordIndex    int        `db:"keyword_index" json:"keyword_index"`
	LastRunAt       *time.Time `db:"last_run_at" json:"last_run_at"`
	NextRunAt       time.Time  `db:"next_run_at" json:"next_run_at"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// NextKeyword is the keyword for the coming run.
func (c *AutoPostConfig) NextKeyword() string {
	if len(c.Keywords) == 0 {
		return ""
	}
	return c.Keywords[c.KeywordIndex%len(c.Keywords)]
}
