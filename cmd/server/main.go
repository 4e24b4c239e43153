// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jason-s-yu/ginrummy/internal/auth"
	"github.com/jason-s-yu/ginrummy/internal/cache"
	"github.com/jason-s-yu/ginrummy/internal/config"
	"github.com/jason-s-yu/ginrummy/internal/database"
	"github.com/jason-s-yu/ginrummy/internal/game"
	"github.com/jason-s-yu/ginrummy/internal/handlers"
	"github.com/jason-s-yu/ginrummy/internal/middleware"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		logrus.Fatal(err)
	}
	logger := cfg.NewLogger()

	if err := auth.Init(cfg.TokenExpiry); err != nil {
		logger.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := handlers.NewGameServer(logger)
	srv.Seed = cfg.GameSeed
	srv.Rules = game.HouseRules{HandSize: cfg.HandSize, AllowDrawFromDiscardPile: cfg.AllowDiscardDraw}
	if err := srv.Rules.Validate(); err != nil {
		logger.Fatalf("HAND_SIZE: %v", err)
	}
	srv.MaxGames = cfg.MaxGames
	srv.IdleTimeout = cfg.GameInactivity
	srv.FinishedTTL = cfg.FinishedTTL
	go srv.RunSweeper(ctx, cfg.FinishedTTL/2)

	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Fatal(err)
		}
		defer rdb.Close()
		srv.Publisher = cache.NewPublisher(rdb, cfg.HistorianQueueName)
		logger.Infof("Publishing game actions to %s.", cfg.RedisAddr)
	}

	if cfg.DatabaseURL != "" {
		store, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal(err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			logger.Fatal(err)
		}
		srv.Results = store
		logger.Info("Archiving game results to Postgres.")
	}

	allowedOrigins := []string{"https://*", "http://*"}
	if cfg.IsProduction() {
		// allow only origins specified in the environment in production mode
		allowedOrigins = cfg.AllowedOrigins
		srv.OriginPatterns = cfg.AllowedOrigins
	}

	r := chi.NewRouter()
	r.Use(middleware.LogMiddleware(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))
	srv.Mount(r)

	addr := ":" + cfg.Port
	if !cfg.IsProduction() {
		// otherwise bind to localhost
		addr = "localhost:" + cfg.Port
	}
	httpServer := &http.Server{Addr: addr, Handler: r}

	go func() {
		logger.Infof("Running on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server exited: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down.")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
