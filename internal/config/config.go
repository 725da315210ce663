package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	LogLevel    string
	Environment string
	TaskName    string
	CORSOrigins string

	YouTubeAPIKey      string
	YouTubeDailyQuota  int64
	YouTubeRPS         float64
	TwitchClientID     string
	TwitchClientSecret string
	TwitchRPS          float64
	HTTPTimeout        time.Duration

	ChannelSyncInterval time.Duration
	VideoSyncInterval   time.Duration
	LiveSyncInterval    time.Duration
	BackfillInterval    time.Duration
	BackfillEnabled     bool
	VideoSyncMaxResults int
	BackfillMaxResults  int
}

var requiredKeys = []string{
	"YT_API_KEY",
	"TWITCH_CLIENT_ID",
	"TWITCH_CLIENT_SECRET",
	"DATABASE_URL",
}

// Load reads configuration from the environment, after applying a .env file
// if one exists. Every missing required key is reported in one error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var missing []string
	for _, key := range requiredKeys {
		if strings.TrimSpace(os.Getenv(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    getEnv("REDIS_URL", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Environment: getEnv("ENVIRONMENT", "development"),
		TaskName:    getEnv("TASK_NAME", "WORKER"),
		CORSOrigins: getEnv("CORS_ORIGINS", ""),

		YouTubeAPIKey:      os.Getenv("YT_API_KEY"),
		TwitchClientID:     os.Getenv("TWITCH_CLIENT_ID"),
		TwitchClientSecret: os.Getenv("TWITCH_CLIENT_SECRET"),
	}

	var errs []string
	parse := func(key string, err error) {
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}

	var err error
	cfg.YouTubeDailyQuota, err = getEnvAsInt64("YT_DAILY_QUOTA", 10000)
	parse("YT_DAILY_QUOTA", err)
	cfg.YouTubeRPS, err = getEnvAsFloat("YT_API_RPS", 5)
	parse("YT_API_RPS", err)
	cfg.TwitchRPS, err = getEnvAsFloat("TWITCH_API_RPS", 5)
	parse("TWITCH_API_RPS", err)
	cfg.HTTPTimeout, err = getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second)
	parse("HTTP_TIMEOUT", positive(err, cfg.HTTPTimeout))
	cfg.ChannelSyncInterval, err = getEnvAsDuration("CHANNEL_SYNC_INTERVAL", 24*time.Hour)
	parse("CHANNEL_SYNC_INTERVAL", positive(err, cfg.ChannelSyncInterval))
	cfg.VideoSyncInterval, err = getEnvAsDuration("VIDEO_SYNC_INTERVAL", 2*time.Minute)
	parse("VIDEO_SYNC_INTERVAL", positive(err, cfg.VideoSyncInterval))
	cfg.LiveSyncInterval, err = getEnvAsDuration("LIVE_SYNC_INTERVAL", 2*time.Minute)
	parse("LIVE_SYNC_INTERVAL", positive(err, cfg.LiveSyncInterval))
	cfg.BackfillInterval, err = getEnvAsDuration("BACKFILL_INTERVAL", 24*time.Hour)
	parse("BACKFILL_INTERVAL", positive(err, cfg.BackfillInterval))
	cfg.BackfillEnabled, err = getEnvAsBool("BACKFILL_ENABLED", false)
	parse("BACKFILL_ENABLED", err)
	cfg.VideoSyncMaxResults, err = getEnvAsInt("VIDEO_SYNC_MAX_RESULTS", 50)
	parse("VIDEO_SYNC_MAX_RESULTS", err)
	cfg.BackfillMaxResults, err = getEnvAsInt("BACKFILL_MAX_RESULTS", 0)
	parse("BACKFILL_MAX_RESULTS", err)

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func positive(err error, d time.Duration) error {
	if err == nil && d <= 0 {
		return fmt.Errorf("must be positive, got %s", d)
	}
	return err
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvAsInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
