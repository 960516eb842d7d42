package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"dreamreel/internal/assets"
	"dreamreel/internal/cache"
	"dreamreel/internal/config"
	"dreamreel/internal/emotion"
	"dreamreel/internal/handlers"
	"dreamreel/internal/inference"
	"dreamreel/internal/jobs"
	"dreamreel/internal/log"
	"dreamreel/internal/pipeline"
	"dreamreel/internal/server"
	"dreamreel/internal/video"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	store, err := assets.NewStore(cfg.Assets.Dir, cfg.Assets.PublicPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init asset store")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	if redisClient == nil {
		logger.Info().Msg("redis disabled, asset cleanup queue off")
	}

	inferenceClient := inference.NewClient(cfg.Inference, logger)
	classifier := emotion.NewClassifier(inferenceClient, cfg.Inference.EmotionModel, logger)
	videoClient := video.NewClient(cfg.Video, logger)

	p := pipeline.New(classifier, inferenceClient, videoClient, store, redisClient, cfg.Redis.Stream, cfg.Inference.ImageModel, logger)

	handlerSet := handlers.NewHandlerSet(logger, cfg, p, store, redisClient)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(redisClient, cfg.Redis.Stream, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
