package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type Config struct {
	Port         string
	AppEnv       string
	LogLevel     string
	DatabaseURL  string
	ServiceToken string

	RedisURL      string
	RedisPassword string
	ResultsTTL    time.Duration
	NATSURL       string
	MongoDBURL    string
	MongoDatabase string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2Bucket          string

	PublishingServiceURL string
	PublishingToken      string
	SyncInterval         time.Duration

	QuotaCap          int
	JudgingStartDay   int
	ArchiveAfter      time.Duration
	AdvanceCron       string
	AssessmentTimeout time.Duration
	JudgingWorkers    int
	AllowedOrigins    string

	// EnvFileLoaded is false when no .env file was read.
	EnvFileLoaded bool
}

// LoadConfig reads .env when present, then the environment. It fails only on
// values that cannot be parsed.
func LoadConfig() (Config, error) {
	envErr := godotenv.Load()

	cfg := Config{
		EnvFileLoaded: envErr == nil,

		Port:         getEnv("PORT", "5300"),
		AppEnv:       getEnv("APP_ENV", "development"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		ServiceToken: getEnv("SERVICE_TOKEN", ""),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		NATSURL:       getEnv("NATS_URL", "nats://localhost:4222"),
		MongoDBURL:    getEnv("MONGODB_URL", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "story_competition"),

		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2Bucket:          getEnv("R2_BUCKET", ""),

		PublishingServiceURL: getEnv("PUBLISHING_SERVICE_URL", ""),
		PublishingToken:      getEnv("PUBLISHING_SERVICE_TOKEN", ""),

		AdvanceCron:    getEnv("ADVANCE_CRON", "*/5 * * * *"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
	}

	var err error
	if cfg.QuotaCap, err = getEnvInt("QUOTA_CAP", 3); err != nil {
		return cfg, err
	}
	if cfg.JudgingStartDay, err = getEnvInt("JUDGING_START_DAY", 26); err != nil {
		return cfg, err
	}
	if cfg.JudgingWorkers, err = getEnvInt("JUDGING_WORKERS", runtime.NumCPU()); err != nil {
		return cfg, err
	}
	if cfg.ArchiveAfter, err = getEnvDuration("ARCHIVE_AFTER", 14*24*time.Hour); err != nil {
		return cfg, err
	}
	if cfg.AssessmentTimeout, err = getEnvDuration("ASSESSMENT_TIMEOUT", 10*time.Second); err != nil {
		return cfg, err
	}
	if cfg.ResultsTTL, err = getEnvDuration("RESULTS_CACHE_TTL", time.Hour); err != nil {
		return cfg, err
	}
	if cfg.SyncInterval, err = getEnvDuration("SYNC_INTERVAL", time.Minute); err != nil {
		return cfg, err
	}
	if cfg.JudgingStartDay < 2 || cfg.JudgingStartDay > 28 {
		return cfg, fmt.Errorf("JUDGING_START_DAY must be between 2 and 28, got %d", cfg.JudgingStartDay)
	}
	if _, err := cron.ParseStandard(cfg.AdvanceCron); err != nil {
		return cfg, fmt.Errorf("ADVANCE_CRON %q: %w", cfg.AdvanceCron, err)
	}
	return cfg, nil
}

// Production reports whether APP_ENV selects production behaviour.
func (c Config) Production() bool { return c.AppEnv == "production" }

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
