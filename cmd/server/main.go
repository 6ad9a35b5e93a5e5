// Command server starts the resume screening HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpserver "github.com/hirelens/screener/internal/adapter/httpserver"
	"github.com/hirelens/screener/internal/adapter/observability"
	redisstore "github.com/hirelens/screener/internal/adapter/piistore/redis"
	"github.com/hirelens/screener/internal/adapter/queue/redpanda"
	"github.com/hirelens/screener/internal/adapter/repo/postgres"
	tikaext "github.com/hirelens/screener/internal/adapter/textextractor/tika"
	"github.com/hirelens/screener/internal/app"
	"github.com/hirelens/screener/internal/config"
	"github.com/hirelens/screener/internal/service/anonymizer"
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

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	resumeRepo := postgres.NewResumeRepo(pool)
	resultRepo := postgres.NewResultRepo(pool)

	rdb := redisstore.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	piiStore := redisstore.New(rdb)

	producer, err := redpanda.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		slog.Error("redpanda producer connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer producer.Close()

	extractor := tikaext.New(cfg.TikaURL)
	masker := anonymizer.New(piiStore)

	tx, err := app.BuildTaxonomy(cfg)
	if err != nil {
		slog.Error("taxonomy load failed", slog.Any("error", err))
		os.Exit(1)
	}

	uploadSvc := usecase.NewUploadService(extractor, masker, resumeRepo)
	screenSvc := usecase.NewScreenService(resumeRepo, resultRepo, producer,
		app.BuildModelClients(cfg, rdb), tx, cfg.AIMaxTokens)
	resultSvc := usecase.NewResultService(resultRepo)
	piiSvc := usecase.NewPIIService(piiStore)

	dbCheck, redisCheck, tikaCheck := app.BuildReadinessChecks(cfg, pool, piiStore)
	srv := httpserver.NewServer(cfg, uploadSvc, screenSvc, resultSvc, piiSvc, dbCheck, redisCheck, tikaCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
