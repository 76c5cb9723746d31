package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	Prefix     string
}

type OpenAI struct {
	APIKey           string
	BaseURL          string
	Model            string
	Temperature      float64
	PresencePenalty  float64
	FrequencyPenalty float64
	MaxTokens        int
	Timeout          time.Duration
}

type Scheduler struct {
	Cron               string
	TestMode           bool
	Enabled            bool
	MinIntervalMinutes int
	MaxPostsPerDay     int
	KeywordRotation    bool
	Keywords           []string
	Timezone           string
	StateBackend       string
	StateDir           string
}

// Site is the credential used by unattended timer runs.
type Site struct {
	URL      string
	Username string
	Password string
	Protocol string
}

type Telegram struct {
	BotToken string
	ChatID   string
}

type Config struct {
	Port             string
	PostgresURI      string
	RedisURI         string
	SecretKey        string
	CookieName       string
	EncryptionKey    string
	LogLevel         string
	LogFormat        string
	R2               R2
	OpenAI           OpenAI
	Scheduler        Scheduler
	Site             Site
	Telegram         Telegram
	StockProvider    string
	UnsplashKey      string
	PexelsKey        string
	BaseMaxImages    int
	PremiumMaxImages int
	// posts per user per day
	BaseDailyPosts    int
	PremiumDailyPosts int
	HTTPTimeout       time.Duration
	QueueConcurrency  int
}

func LoadConfig() *Config {
	return &Config{
		Port:          getEnv("PORT", "3000"),
		PostgresURI:   getEnv("POSTGRES_URI", ""),
		RedisURI:      getEnv("REDIS_URI", "localhost:6379"),
		SecretKey:     getEnv("SECRET_KEY", ""),
		CookieName:    getEnv("COOKIE_NAME", "autopost_session"),
		EncryptionKey: getEnv("ENCRYPTION_KEY", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			Prefix:     getEnv("R2_STATE_PREFIX", "scheduler/"),
		},
		OpenAI: OpenAI{
			APIKey:           getEnv("OPENAI_API_KEY", ""),
			BaseURL:          getEnv("OPENAI_BASE_URL", ""),
			Model:            getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Temperature:      getEnvFloat("OPENAI_TEMPERATURE", 0.9),
			PresencePenalty:  getEnvFloat("OPENAI_PRESENCE_PENALTY", 0.6),
			FrequencyPenalty: getEnvFloat("OPENAI_FREQUENCY_PENALTY", 0.6),
			MaxTokens:        getEnvInt("OPENAI_MAX_TOKENS", 3000),
			Timeout:          getEnvDuration("OPENAI_TIMEOUT", 90*time.Second),
		},
		Scheduler: Scheduler{
			Cron:               getEnv("SCHEDULER_CRON", "@hourly"),
			TestMode:           getEnvBool("SCHEDULER_TEST_MODE", false),
			Enabled:            getEnvBool("SCHEDULER_ENABLED", true),
			MinIntervalMinutes: getEnvInt("SCHEDULER_MIN_INTERVAL_MINUTES", 60),
			MaxPostsPerDay:     getEnvInt("SCHEDULER_MAX_POSTS_PER_DAY", 24),
			KeywordRotation:    getEnvBool("SCHEDULER_KEYWORD_ROTATION", true),
			Keywords:           getEnvList("SCHEDULER_KEYWORDS", nil),
			Timezone:           getEnv("SCHEDULER_TIMEZONE", "Local"),
			StateBackend:       getEnv("STATE_BACKEND", "file"),
			StateDir:           getEnv("STATE_DIR", "data"),
		},
		Site: Site{
			URL:      getEnv("WP_URL", ""),
			Username: getEnv("WP_USERNAME", ""),
			Password: getEnv("WP_PASSWORD", ""),
			Protocol: getEnv("WP_PROTOCOL", ""),
		},
		Telegram: Telegram{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		},
		StockProvider:     getEnv("STOCK_PROVIDER", "unsplash"),
		UnsplashKey:       getEnv("UNSPLASH_ACCESS_KEY", ""),
		PexelsKey:         getEnv("PEXELS_API_KEY", ""),
		BaseMaxImages:     getEnvInt("BASE_MAX_IMAGES", 1),
		PremiumMaxImages:  getEnvInt("PREMIUM_MAX_IMAGES", 5),
		BaseDailyPosts:    getEnvInt("BASE_DAILY_POSTS", 5),
		PremiumDailyPosts: getEnvInt("PREMIUM_DAILY_POSTS", 100),
		HTTPTimeout:       getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		QueueConcurrency:  getEnvInt("QUEUE_CONCURRENCY", 10),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

// getEnvList splits a comma separated value, dropping empty entries.
func getEnvList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
