package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/maheshrc27/autopost-api/internal/models"
)

type AssetRepository interface {
	Create(ctx context.Context, tx *sql.Tx, a *models.Asset) (int64, error)
	FindByKeyword(ctx context.Context, userID int64, keyword string, limit int) ([]*models.Asset, error)
	IncrementUsage(ctx context.Context, id int64) error
}

type assetRepository struct {
	db  *sql.DB
	psq sq.StatementBuilderType
}

func NewAssetRepository(db *sql.DB) AssetRepository {
	return &assetRepository{
		db:  db,
		psq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var assetColumns = []string{
	"id", "user_id", "file_name", "file_type", "file_url", "alt_text",
	"keywords", "usage_count", "last_used_at", "created_at",
}

func (r *assetRepository) Create(ctx context.Context, tx *sql.Tx, a *models.Asset) (int64, error) {
	var id int64
	var err error

	query := `
		INSERT INTO assets (user_id, file_name, file_type, file_url, alt_text, keywords)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	args := []any{a.UserID, a.FileName, a.FileType, a.FileURL, a.AltText, pq.Array(a.Keywords)}
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}

	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

// FindByKeyword matches assets tagged with keyword or whose file name
// contains it, least used first, then newest.
func (r *assetRepository) FindByKeyword(ctx context.Context, userID int64, keyword string, limit int) ([]*models.Asset, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" || limit <= 0 {
		return nil, nil
	}

	query, args, err := r.psq.Select(assetColumns...).
		From("assets").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Like{"file_type": "image/%"}).
		Where(sq.Or{
			sq.Expr("? ILIKE ANY(keywords)", keyword),
			sq.ILike{"file_name": "%" + keyword + "%"},
			sq.ILike{"alt_text": "%" + keyword + "%"},
		}).
		OrderBy("usage_count ASC", "created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var assets []*models.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (r *assetRepository) IncrementUsage(ctx context.Context, id int64) error {
	query, args, err := r.psq.Update("assets").
		Set("usage_count", sq.Expr("usage_count + 1")).
		Set("last_used_at", time.Now()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*models.Asset, error) {
	var a models.Asset
	var lastUsed sql.NullTime
	var alt sql.NullString
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.FileName,
		&a.FileType,
		&a.FileURL,
		&alt,
		pq.Array(&a.Keywords),
		&a.UsageCount,
		&lastUsed,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.AltText = alt.String
	if lastUsed.Valid {
		t := lastUsed.Time
		a.LastUsedAt = &t
	}
	return &a, nil
}
