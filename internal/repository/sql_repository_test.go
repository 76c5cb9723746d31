package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/autopost-api/internal/models"
)

func TestAssetFindByKeyword(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := sqlmock.NewRows(assetColumns).
		AddRow(int64(5), int64(7), "tea.png", "image/png", "https://cdn.test/tea.png", "green tea", "{tea,green}", 0, nil, created)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, user_id, file_name, file_type, file_url, alt_text, keywords, usage_count, last_used_at, created_at FROM assets "+
			"WHERE user_id = $1 AND file_type LIKE $2 AND ($3 ILIKE ANY(keywords) OR file_name ILIKE $4 OR alt_text ILIKE $5) "+
			"ORDER BY usage_count ASC, created_at DESC LIMIT 2")).
		WithArgs(int64(7), "image/%", "tea", "%tea%", "%tea%").
		WillReturnRows(rows)

	assets, err := NewAssetRepository(db).FindByKeyword(context.Background(), 7, " tea ", 2)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, int64(5), assets[0].ID)
	assert.Equal(t, []string{"tea", "green"}, assets[0].Keywords)
	assert.Equal(t, "green tea", assets[0].AltText)
	assert.Nil(t, assets[0].LastUsedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetFindByKeywordEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAssetRepository(db)
	assets, err := repo.FindByKeyword(context.Background(), 7, "  ", 3)
	require.NoError(t, err)
	assert.Nil(t, assets)

	assets, err = repo.FindByKeyword(context.Background(), 7, "tea", 0)
	require.NoError(t, err)
	assert.Nil(t, assets)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetIncrementUsage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE assets SET usage_count = usage_count + 1, last_used_at = $1 WHERE id = $2")).
		WithArgs(sqlmock.AnyArg(), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewAssetRepository(db).IncrementUsage(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO assets")).
		WithArgs(int64(3), "mine.png", "image/png", "https://blog.test/mine.png", "coffee", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))

	id, err := NewAssetRepository(db).Create(context.Background(), nil, &models.Asset{
		UserID:   3,
		FileName: "mine.png",
		FileType: "image/png",
		FileURL:  "https://blog.test/mine.png",
		AltText:  "coffee",
		Keywords: []string{"coffee"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostingHistoryGetByIDMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM posting_history WHERE id = $1")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	ph, err := NewPostingHistoryRepository(db).GetByID(context.Background(), 4)
	require.NoError(t, err)
	assert.Nil(t, ph)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostingHistoryCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO posting_history")).
		WithArgs(int64(3), "tea", "Tea Guide", "https://blog.test/tea/", "user", "posted", "", "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(41)))

	id, err := NewPostingHistoryRepository(db).Create(context.Background(), &models.PostingHistory{
		UserID:  3,
		Keyword: "tea",
		Title:   "Tea Guide",
		PostURL: "https://blog.test/tea/",
		Trigger: models.TriggerUser,
		Status:  models.PostStatusPosted,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(41), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostingHistoryCountPostedSince(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	since := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM posting_history WHERE user_id = $1 AND status = $2 AND created_at >= $3")).
		WithArgs(int64(3), "posted", since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := NewPostingHistoryRepository(db).CountPostedSince(context.Background(), 3, since)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlatformGetByIDMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM platforms")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	p, err := NewPlatformRepository(db).GetByID(context.Background(), 9)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM subscriptions")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	sub, exists, err := NewSubscriptionRepository(db).GetByUserID(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Nil(t, sub)
	assert.NoError(t, mock.ExpectationsWereMet())
}
