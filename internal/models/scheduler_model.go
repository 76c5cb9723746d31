package models

import "time"

type SchedulerConfig struct {
	Enabled            bool     `json:"enabled"`
	MinIntervalMinutes int      `json:"min_interval_minutes"`
	MaxPostsPerDay     int      `json:"max_posts_per_day"`
	KeywordRotation    bool     `json:"keyword_rotation"`
	Keywords           []string `json:"keywords"`
}

// SchedulerConfigPatch carries a partial update. Nil fields are left untouched.
type SchedulerConfigPatch struct {
	Enabled            *bool    `json:"enabled"`
	MinIntervalMinutes *int     `json:"min_interval_minutes"`
	MaxPostsPerDay     *int     `json:"max_posts_per_day"`
	KeywordRotation    *bool    `json:"keyword_rotation"`
	Keywords           []string `json:"keywords"`
}

type SchedulerCounters struct {
	Date                 string     `json:"date"`
	LastPostTime         *time.Time `json:"last_post_time"`
	TodayPostCount       int        `json:"today_post_count"`
	KeywordRotationIndex int        `json:"keyword_rotation_index"`
}

type SchedulerState struct {
	Config   SchedulerConfig
	Counters SchedulerCounters
}

type SchedulerStatus struct {
	Enabled             bool       `json:"enabled"`
	Interval            int        `json:"interval"`
	MaxPostsPerDay      int        `json:"max_posts_per_day"`
	TodayPostCount      int        `json:"today_post_count"`
	LastPostTime        *time.Time `json:"last_post_time"`
	NextPostEligible    bool       `json:"next_post_eligible"`
	Keywords            []string   `json:"keywords"`
	CurrentKeywordIndex int        `json:"current_keyword_index"`
	TestMode            bool       `json:"test_mode"`
}
