// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config is the runtime configuration shared by the binaries under cmd/.
type Config struct {
	Port     string
	AppEnv   string
	LogLevel logrus.Level

	// GameSeed seeds every new game's shuffle and computer player. 0 means time based.
	GameSeed         int64
	HandSize         int
	AllowDiscardDraw bool

	RedisAddr          string // empty disables action publishing
	RedisDB            int
	HistorianQueueName string
	HistorianBatchSize int
	HistorianFlush     time.Duration
	GameInactivity     time.Duration // games idle this long are dropped from memory and marked abandoned

	MaxGames    int           // live games kept in memory
	FinishedTTL time.Duration // how long a finished game stays viewable

	DatabaseURL string // empty disables the result archive

	TokenExpiry    time.Duration // 0 means tokens never expire
	AllowedOrigins []string
}

// IsProduction reports whether APP_ENV is "production".
func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// LoadFromEnv reads the configuration from the process environment.
// Every malformed key is reported in the returned error.
func LoadFromEnv() (Config, error) {
	var bad []string
	note := func(key string, err error) {
		if err != nil {
			bad = append(bad, fmt.Sprintf("%s: %v", key, err))
		}
	}

	cfg := Config{
		Port:               getEnv("PORT", "8000"),
		AppEnv:             getEnv("APP_ENV", "development"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		HistorianQueueName: getEnv("HISTORIAN_QUEUE_NAME", "gin_actions"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
	}

	var err error
	cfg.LogLevel, err = logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	note("LOG_LEVEL", err)

	cfg.GameSeed, err = getEnvInt64("GAME_SEED", 0)
	note("GAME_SEED", err)

	cfg.HandSize, err = getEnvInt("HAND_SIZE", 10)
	note("HAND_SIZE", err)

	cfg.AllowDiscardDraw, err = getEnvBool("ALLOW_DISCARD_DRAW", false)
	note("ALLOW_DISCARD_DRAW", err)

	cfg.RedisDB, err = getEnvInt("REDIS_DB", 0)
	note("REDIS_DB", err)

	cfg.HistorianBatchSize, err = getEnvInt("HISTORIAN_BATCH_SIZE", 20)
	note("HISTORIAN_BATCH_SIZE", err)
	if err == nil && cfg.HistorianBatchSize < 1 {
		note("HISTORIAN_BATCH_SIZE", errors.New("must be positive"))
	}

	flushMs, err := getEnvInt("HISTORIAN_FLUSH_MS", 500)
	note("HISTORIAN_FLUSH_MS", err)
	if err == nil && flushMs < 1 {
		note("HISTORIAN_FLUSH_MS", errors.New("must be positive"))
	}
	cfg.HistorianFlush = time.Duration(flushMs) * time.Millisecond

	inactivitySec, err := getEnvInt("GAME_INACTIVITY_TIMEOUT_SEC", 600) // default 10 min
	note("GAME_INACTIVITY_TIMEOUT_SEC", err)
	if err == nil && inactivitySec < 1 {
		note("GAME_INACTIVITY_TIMEOUT_SEC", errors.New("must be positive"))
	}
	cfg.GameInactivity = time.Duration(inactivitySec) * time.Second

	cfg.MaxGames, err = getEnvInt("MAX_GAMES", 1000)
	note("MAX_GAMES", err)
	if err == nil && cfg.MaxGames < 1 {
		note("MAX_GAMES", errors.New("must be positive"))
	}

	finishedSec, err := getEnvInt("FINISHED_GAME_TTL_SEC", 60)
	note("FINISHED_GAME_TTL_SEC", err)
	if err == nil && finishedSec < 1 {
		note("FINISHED_GAME_TTL_SEC", errors.New("must be positive"))
	}
	cfg.FinishedTTL = time.Duration(finishedSec) * time.Second

	cfg.TokenExpiry, err = ParseTokenExpiry(os.Getenv("TOKEN_EXPIRE_TIME"))
	note("TOKEN_EXPIRE_TIME", err)

	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	if len(bad) > 0 {
		return cfg, fmt.Errorf("invalid configuration: %s", strings.Join(bad, "; "))
	}
	return cfg, nil
}

// ParseTokenExpiry reads a TOKEN_EXPIRE_TIME value. "", "0" and "never" mean no expiry.
func ParseTokenExpiry(value string) (time.Duration, error) {
	switch value {
	case "", "0", "never":
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", value)
	}
	return d, nil
}

// NewLogger builds the process logger at the configured level.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)
	if c.IsProduction() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default value.
func getEnvInt(key string, defaultValue int) (int, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(valueStr)
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}
	return strconv.ParseInt(valueStr, 10, 64)
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}
	return strconv.ParseBool(valueStr)
}
