package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/autopost-api/internal/models"
)

// SubscriptionRepository is read-only here; billing owns the writes.
type SubscriptionRepository interface {
	GetByUserID(ctx context.Context, id int64) (*models.Subscription, bool, error)
}

type subscriptionRepository struct {
	db *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) GetByUserID(ctx context.Context, id int64) (*models.Subscription, bool, error) {
	var subscription models.Subscription
	query := `
		SELECT user_id, subscription_id, subscription_end_date, status
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY subscription_end_date DESC
		LIMIT 1
	`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&subscription.UserID,
		&subscription.SubscriptionID,
		&subscription.SubscriptionEndDate,
		&subscription.Status,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return &subscription, true, nil
}
