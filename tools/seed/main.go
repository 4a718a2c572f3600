package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/V4T54L/api-performance/internal/adapter/repository/postgres"
	"github.com/V4T54L/api-performance/internal/pkg/config"
	"github.com/V4T54L/api-performance/internal/pkg/logger"
)

func main() {
	authors := flag.Int("authors", 20, "Number of authors")
	posts := flag.Int("posts", 1000, "Number of posts")
	maxComments := flag.Int("max-comments", 10, "Maximum number of comments per post")
	seed := flag.Int64("seed", 42, "Random seed for reproducible data")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	format, _ := logger.ParseFormat(cfg.LogFormat) // validated by config.Load
	log := logger.New(cfg.LogLevel, format, os.Stdout)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := postgres.Open(ctx, cfg.PostgresURL, postgres.PoolConfig{MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := postgres.NewSeedRepository(db, log)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Error("failed to create schema", "error", err)
		os.Exit(1)
	}

	data := newGenerator(*seed).generate(*authors, *posts, *maxComments)
	start := time.Now()
	if err := repo.Seed(ctx, data.authors, data.posts, data.comments, data.tags); err != nil {
		log.Error("failed to seed database", "error", err)
		os.Exit(1)
	}
	log.Info("seed complete", "duration", time.Since(start))
}
