package models

import "time"

// Asset is an image in the user's private library.
type Asset struct {
	ID         int64      `db:"id" json:"id"`
	UserID     int64      `db:"user_id" json:"user_id"`
	FileName   string     `db:"file_name" json:"file_name"`
	FileType   string     `db:"file_type" json:"file_type"`
	FileURL    string     `db:"file_url" json:"file_url"`
	AltText    string     `db:"alt_text" json:"alt_text"`
	Keywords   []string   `db:"keywords" json:"keywords"`
	UsageCount int        `db:"usage_count" json:"usage_count"`
	LastUsedAt *time.Time `db:"last_used_at" json:"last_used_at"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}
