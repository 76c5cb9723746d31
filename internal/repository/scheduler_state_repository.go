package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/maheshrc27/autopost-api/internal/models"
)

const (
	schedulerConfigFile   = "config.json"
	schedulerCountersFile = "schedules.json"
	lockRetryDelay        = 50 * time.Millisecond
)

// ErrCorruptState marks a stored document that exists but cannot be decoded.
var ErrCorruptState = errors.New("scheduler state is corrupt")

// SchedulerStateRepository persists the two scheduler documents. A missing
// document is reported with exists=false and no error.
type SchedulerStateRepository interface {
	LoadConfig(ctx context.Context) (*models.SchedulerConfig, bool, error)
	SaveConfig(ctx context.Context, cfg *models.SchedulerConfig) error
	LoadCounters(ctx context.Context) (*models.SchedulerCounters, bool, error)
	SaveCounters(ctx context.Context, c *models.SchedulerCounters) error
}

type fileStateRepository struct {
	dir  string
	mu   sync.Mutex
	lock *flock.Flock
}

// NewFileStateRepository keeps the documents as JSON files in dir. Writes go
// through a temp file and rename under an advisory lock so that a crash never
// leaves a torn document behind.
func NewFileStateRepository(dir string) (SchedulerStateRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &fileStateRepository{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, ".scheduler.lock")),
	}, nil
}

func (r *fileStateRepository) LoadConfig(ctx context.Context) (*models.SchedulerConfig, bool, error) {
	var cfg models.SchedulerConfig
	ok, err := r.read(ctx, schedulerConfigFile, &cfg)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &cfg, true, nil
}

func (r *fileStateRepository) SaveConfig(ctx context.Context, cfg *models.SchedulerConfig) error {
	return r.write(ctx, schedulerConfigFile, cfg)
}

func (r *fileStateRepository) LoadCounters(ctx context.Context) (*models.SchedulerCounters, bool, error) {
	var c models.SchedulerCounters
	ok, err := r.read(ctx, schedulerCountersFile, &c)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &c, true, nil
}

func (r *fileStateRepository) SaveCounters(ctx context.Context, c *models.SchedulerCounters) error {
	return r.write(ctx, schedulerCountersFile, c)
}

func (r *fileStateRepository) read(ctx context.Context, name string, out any) (bool, error) {
	if err := r.acquire(ctx, false); err != nil {
		return false, err
	}
	defer r.release()

	data, err := os.ReadFile(filepath.Join(r.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("%w: decode %s: %v", ErrCorruptState, name, err)
	}
	return true, nil
}

func (r *fileStateRepository) write(ctx context.Context, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	if err := r.acquire(ctx, true); err != nil {
		return err
	}
	defer r.release()

	tmp, err := os.CreateTemp(r.dir, name+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), filepath.Join(r.dir, name)); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// acquire pairs an in-process mutex with the file lock; a Flock treats
// repeated locking from the same process as already held.
func (r *fileStateRepository) acquire(ctx context.Context, exclusive bool) error {
	r.mu.Lock()
	var ok bool
	var err error
	if exclusive {
		ok, err = r.lock.TryLockContext(ctx, lockRetryDelay)
	} else {
		ok, err = r.lock.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("lock state dir: %w", err)
	}
	if !ok {
		r.mu.Unlock()
		return errors.New("lock state dir: not acquired")
	}
	return nil
}

func (r *fileStateRepository) release() {
	if err := r.lock.Unlock(); err != nil {
		slog.Warn("unlock state dir", "error", err)
	}
	r.mu.Unlock()
}
