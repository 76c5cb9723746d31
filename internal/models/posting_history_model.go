package models

import "time"

type PostingHistory struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	Keyword      string    `db:"keyword" json:"keyword"`
	Title        string    `db:"title" json:"title"`
	PostURL      string    `db:"post_url" json:"post_url"`
	Trigger      string    `db:"trigger" json:"trigger"`
	Status       string    `db:"status" json:"status"`
	ErrorKind    string    `db:"error_kind" json:"error_kind"`
	ErrorMessage string    `db:"error_message" json:"error_message"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

const (
	PostStatusPosted = "posted"
	PostStatusFailed = "failed"
	PostStatusDryRun = "dry_run"
)
