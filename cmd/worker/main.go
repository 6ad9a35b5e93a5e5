// Command worker consumes batch screening tasks from the queue and runs
// the same screening pipeline the synchronous API uses.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hirelens/screener/internal/adapter/observability"
	redisstore "github.com/hirelens/screener/internal/adapter/piistore/redis"
	"github.com/hirelens/screener/internal/adapter/queue/redpanda"
	"github.com/hirelens/screener/internal/adapter/repo/postgres"
	"github.com/hirelens/screener/internal/app"
	"github.com/hirelens/screener/internal/config"
	"github.com/hirelens/screener/internal/domain"
	"github.com/hirelens/screener/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	resumeRepo := postgres.NewResumeRepo(pool)
	resultRepo := postgres.NewResultRepo(pool)

	rdb := redisstore.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	tx, err := app.BuildTaxonomy(cfg)
	if err != nil {
		slog.Error("taxonomy load failed", slog.Any("error", err))
		os.Exit(1)
	}

	// The worker never enqueues; batch fan-out happens in the API server.
	screenSvc := usecase.NewScreenService(resumeRepo, resultRepo, nil,
		app.BuildModelClients(cfg, rdb), tx, cfg.AIMaxTokens)

	handler := func(ctx context.Context, payload domain.ScreenTaskPayload) error {
		return screenSvc.ProcessTask(ctx, payload)
	}
	consumer, err := redpanda.NewConsumer(cfg.KafkaBrokers, cfg.ConsumerGroup, handler, cfg.ConsumerMaxConcurrency)
	if err != nil {
		slog.Error("redpanda consumer connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer consumer.Close()

	slog.Info("worker starting",
		slog.String("group", cfg.ConsumerGroup),
		slog.Int("concurrency", cfg.ConsumerMaxConcurrency))
	if err := consumer.Run(ctx); err != nil {
		slog.Error("consumer stopped", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("worker shut down")
}
