package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/maheshrc27/autopost-api/internal/models"
)

type fakeLLM struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   []CompletionRequest
}

func (f *fakeLLM) Complete(_ context.Context, req CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", errors.New("no reply queued")
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type fakeStock struct {
	photos  []models.StockPhoto
	err     error
	query   string
	count   int
	tracked []string
}

func (f *fakeStock) TrackDownload(_ context.Context, p models.StockPhoto) error {
	f.tracked = append(f.tracked, p.URL)
	return nil
}

func (f *fakeStock) Search(_ context.Context, query string, count int, _ string) ([]models.StockPhoto, error) {
	f.query, f.count = query, count
	if f.err != nil {
		return nil, f.err
	}
	return limitPhotos(f.photos, count), nil
}

type fakeAssets struct {
	assets      []*models.Asset
	keyword     string
	incremented []int64
	created     []*models.Asset
}

func (f *fakeAssets) Create(_ context.Context, _ *sql.Tx, a *models.Asset) (int64, error) {
	f.created = append(f.created, a)
	return int64(len(f.created)), nil
}

func (f *fakeAssets) FindByKeyword(_ context.Context, _ int64, keyword string, limit int) ([]*models.Asset, error) {
	f.keyword = keyword
	if len(f.assets) > limit {
		return f.assets[:limit], nil
	}
	return f.assets, nil
}

func (f *fakeAssets) IncrementUsage(_ context.Context, id int64) error {
	f.incremented = append(f.incremented, id)
	return nil
}

// fakeUploader hands out ids from 100 and fails for URLs listed in failFor.
type fakeUploader struct {
	mu      sync.Mutex
	failFor map[string]bool
	uploads []models.MediaSource
}

func (f *fakeUploader) UploadMedia(_ context.Context, _ models.PlatformCredential, media models.MediaSource) (*models.MediaRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[media.URL] {
		return nil, newError(KindRemoteRejected, "media", "rejected", nil)
	}
	f.uploads = append(f.uploads, media)
	id := int64(99 + len(f.uploads))
	return &models.MediaRef{ID: id, URL: fmt.Sprintf("https://site.test/media/%d.png", id)}, nil
}
