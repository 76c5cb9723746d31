package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/autopost-api/internal/models"
)

type PlatformRepository interface {
	Create(ctx context.Context, tx *sql.Tx, p *models.Platform) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Platform, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Platform, error)
}

type platformRepository struct {
	db *sql.DB
}

func NewPlatformRepository(db *sql.DB) PlatformRepository {
	return &platformRepository{db: db}
}

func (r *platformRepository) Create(ctx context.Context, tx *sql.Tx, p *models.Platform) (int64, error) {
	var err error
	var id int64

	var insertQuery = `
			INSERT INTO platforms(
				user_id,
				name,
				base_url,
				username,
				encrypted_secret,
				protocol
			)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`

	if tx != nil {
		err = tx.QueryRowContext(ctx, insertQuery,
			p.UserID, p.Name, p.BaseURL, p.Username, p.EncryptedSecret, p.Protocol,
		).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, insertQuery,
			p.UserID, p.Name, p.BaseURL, p.Username, p.EncryptedSecret, p.Protocol,
		).Scan(&id)
	}

	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *platformRepository) GetByID(ctx context.Context, id int64) (*models.Platform, error) {
	query := `
		SELECT id, user_id, name, base_url, username, encrypted_secret, protocol, created_at, updated_at
		FROM platforms
		WHERE id = $1
	`

	var p models.Platform
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.BaseURL,
		&p.Username,
		&p.EncryptedSecret,
		&p.Protocol,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &p, nil
}

// ListByUserID leaves the encrypted secret out.
func (r *platformRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Platform, error) {
	query := `
		SELECT id, user_id, name, base_url, username, protocol, created_at, updated_at
		FROM platforms
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var platforms []*models.Platform
	for rows.Next() {
		var p models.Platform
		err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.BaseURL, &p.Username, &p.Protocol, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		platforms = append(platforms, &p)
	}
	return platforms, rows.Err()
}
