package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/autopost-api/internal/models"
)

type PostingHistoryRepository interface {
	GetByID(ctx context.Context, id int64) (*models.PostingHistory, error)
	Create(ctx context.Context, ph *models.PostingHistory) (int64, error)
	GetByUserID(ctx context.Context, userID int64, limit int) ([]*models.PostingHistory, error)
	CountPostedSince(ctx context.Context, userID int64, since time.Time) (int, error)
}

type postingHistoryRepository struct {
	db *sql.DB
}

func NewPostingHistoryRepository(db *sql.DB) PostingHistoryRepository {
	return &postingHistoryRepository{db: db}
}

const postingHistoryColumns = `id, user_id, keyword, title, post_url, trigger, status, error_kind, error_message, created_at`

func (r *postingHistoryRepository) Create(ctx context.Context, ph *models.PostingHistory) (int64, error) {
	query := `
		INSERT INTO posting_history (user_id, keyword, title, post_url, trigger, status, error_kind, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		ph.UserID, ph.Keyword, ph.Title, ph.PostURL, ph.Trigger, ph.Status, ph.ErrorKind, ph.ErrorMessage,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postingHistoryRepository) GetByID(ctx context.Context, id int64) (*models.PostingHistory, error) {
	query := `SELECT ` + postingHistoryColumns + ` FROM posting_history WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	ph, err := scanPostingHistory(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return ph, nil
}

func (r *postingHistoryRepository) GetByUserID(ctx context.Context, userID int64, limit int) ([]*models.PostingHistory, error) {
	query := `SELECT ` + postingHistoryColumns + ` FROM posting_history WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var phs []*models.PostingHistory
	for rows.Next() {
		ph, err := scanPostingHistory(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		phs = append(phs, ph)
	}
	return phs, rows.Err()
}

// CountPostedSince counts published posts only; failures and dry runs do
// not use up the daily allowance.
func (r *postingHistoryRepository) CountPostedSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM posting_history WHERE user_id = $1 AND status = $2 AND created_at >= $3`

	var n int
	err := r.db.QueryRowContext(ctx, query, userID, models.PostStatusPosted, since).Scan(&n)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return n, nil
}

func scanPostingHistory(row rowScanner) (*models.PostingHistory, error) {
	var ph models.PostingHistory
	err := row.Scan(
		&ph.ID,
		&ph.UserID,
		&ph.Keyword,
		&ph.Title,
		&ph.PostURL,
		&ph.Trigger,
		&ph.Status,
		&ph.ErrorKind,
		&ph.ErrorMessage,
		&ph.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ph, nil
}
