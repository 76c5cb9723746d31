package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SCHEDULER_MAX_POSTS_PER_DAY", "")
	t.Setenv("BASE_MAX_IMAGES", "")
	t.Setenv("PREMIUM_DAILY_POSTS", "")

	cfg := LoadConfig()

	assert.Equal(t, 24, cfg.Scheduler.MaxPostsPerDay)
	assert.Equal(t, 60, cfg.Scheduler.MinIntervalMinutes)
	assert.Equal(t, 1, cfg.BaseMaxImages)
	assert.Equal(t, 5, cfg.PremiumMaxImages)
	assert.Equal(t, 5, cfg.BaseDailyPosts)
	assert.Equal(t, 100, cfg.PremiumDailyPosts)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "@hourly", cfg.Scheduler.Cron)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SCHEDULER_MAX_POSTS_PER_DAY", "5")
	t.Setenv("SCHEDULER_TEST_MODE", "true")
	t.Setenv("SCHEDULER_KEYWORDS", "coffee, tea ,,matcha")
	t.Setenv("HTTP_TIMEOUT", "10s")
	t.Setenv("OPENAI_TEMPERATURE", "not-a-number")

	cfg := LoadConfig()

	assert.Equal(t, 5, cfg.Scheduler.MaxPostsPerDay)
	assert.True(t, cfg.Scheduler.TestMode)
	assert.Equal(t, []string{"coffee", "tea", "matcha"}, cfg.Scheduler.Keywords)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 0.9, cfg.OpenAI.Temperature)
}
