// cmd/historian/main.go moves game actions from the Redis queue into Postgres.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/ginrummy/internal/cache"
	"github.com/jason-s-yu/ginrummy/internal/config"
	"github.com/jason-s-yu/ginrummy/internal/database"
	"github.com/jason-s-yu/ginrummy/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		logrus.Fatal(err)
	}
	logger := cfg.NewLogger()
	if cfg.RedisAddr == "" || cfg.DatabaseURL == "" {
		logger.Fatal("REDIS_ADDR and DATABASE_URL are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatal(err)
	}
	defer rdb.Close()

	store, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal(err)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal(err)
	}

	hs := historian.New(rdb, store, cfg.HistorianQueueName, logger)
	hs.BatchSize = cfg.HistorianBatchSize
	hs.FlushDelay = cfg.HistorianFlush
	hs.Inactivity = cfg.GameInactivity
	hs.Run(ctx)
}
