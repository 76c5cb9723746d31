package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/maheshrc27/autopost-api/internal/models"
)

type AutoPostConfigRepository interface {
	Upsert(ctx context.Context, c *models.AutoPostConfig) (int64, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.AutoPostConfig, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.AutoPostConfig, error)
	MarkRun(ctx context.Context, id int64, keywordIndex int, ranAt, nextRunAt time.Time) error
	SetActive(ctx context.Context, id, userID int64, active bool) (bool, error)
}

type autoPostConfigRepository struct {
	db  *sql.DB
	psq sq.StatementBuilderType
}

func NewAutoPostConfigRepository(db *sql.DB) AutoPostConfigRepository {
	return &autoPostConfigRepository{
		db:  db,
		psq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var autoPostConfigColumns = []string{
	"id", "user_id", "platform_id", "keywords", "frequency_hours", "random_frequency",
	"style", "image_strategy", "active", "keyword_index", "last_run_at", "next_run_at",
	"created_at", "updated_at",
}

// Upsert keeps one schedule per user and platform. Saving again replaces the
// settings, reactivates it and restarts the keyword rotation.
func (r *autoPostConfigRepository) Upsert(ctx context.Context, c *models.AutoPostConfig) (int64, error) {
	query, args, err := r.psq.Insert("autopost_configs").
		Columns("user_id", "platform_id", "keywords", "frequency_hours", "random_frequency",
			"style", "image_strategy", "active", "keyword_index", "next_run_at").
		Values(c.UserID, c.PlatformID, pq.Array(c.Keywords), c.FrequencyHours, c.RandomFrequency,
			c.Style, c.ImageStrategy, true, 0, c.NextRunAt).
		Suffix(`ON CONFLICT (user_id, platform_id) DO UPDATE SET
			keywords = EXCLUDED.keywords,
			frequency_hours = EXCLUDED.frequency_hours,
			random_frequency = EXCLUDED.random_frequency,
			style = EXCLUDED.style,
			image_strategy = EXCLUDED.image_strategy,
			active = TRUE,
			keyword_index = 0,
			next_run_at = EXCLUDED.next_run_at,
			updated_at = NOW()
			RETURNING id`).
		ToSql()
	if err != nil {
		return 0, err
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *autoPostConfigRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.AutoPostConfig, error) {
	return r.list(ctx, r.psq.Select(autoPostConfigColumns...).
		From("autopost_configs").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("id ASC"))
}

// ListDue returns active schedules whose next run is not in the future,
// oldest first.
func (r *autoPostConfigRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.AutoPostConfig, error) {
	if limit <= 0 {
		return nil, nil
	}
	return r.list(ctx, r.psq.Select(autoPostConfigColumns...).
		From("autopost_configs").
		Where(sq.Eq{"active": true}).
		Where(sq.LtOrEq{"next_run_at": now}).
		OrderBy("next_run_at ASC").
		Limit(uint64(limit)))
}

func (r *autoPostConfigRepository) MarkRun(ctx context.Context, id int64, keywordIndex int, ranAt, nextRunAt time.Time) error {
	query, args, err := r.psq.Update("autopost_configs").
		Set("keyword_index", keywordIndex).
		Set("last_run_at", ranAt).
		Set("next_run_at", nextRunAt).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// SetActive reports false when no schedule with that id belongs to the user.
func (r *autoPostConfigRepository) SetActive(ctx context.Context, id, userID int64, active bool) (bool, error) {
	query, args, err := r.psq.Update("autopost_configs").
		Set("active", active).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return false, err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *autoPostConfigRepository) list(ctx context.Context, b sq.SelectBuilder) ([]*models.AutoPostConfig, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var configs []*models.AutoPostConfig
	for rows.Next() {
		var c models.AutoPostConfig
		var lastRun sql.NullTime
		err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.PlatformID,
			pq.Array(&c.Keywords),
			&c.FrequencyHours,
			&c.RandomFrequency,
			&c.Style,
			&c.ImageStrategy,
			&c.Active,
			&c.KeywordIndex,
			&lastRun,
			&c.NextRunAt,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		if lastRun.Valid {
			c.LastRunAt = &lastRun.Time
		}
		configs = append(configs, &c)
	}
	return configs, rows.Err()
}
