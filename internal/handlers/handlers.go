package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"dreamreel/internal/assets"
	"dreamreel/internal/config"
	"dreamreel/internal/pipeline"
)

// Runner is the orchestration surface the HTTP layer depends on.
type Runner interface {
	Run(ctx context.Context, input pipeline.Input) (pipeline.Result, error)
}

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	pipeline Runner
	store    *assets.Store
	cache    *redis.Client
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, p Runner, store *assets.Store, cache *redis.Client) HandlerSet {
	return HandlerSet{
		log:      log,
		cfg:      cfg,
		pipeline: p,
		store:    store,
		cache:    cache,
	}
}

func (h HandlerSet) Register(engine *gin.Engine) {
	engine.GET("/", h.Home)
	engine.POST("/generate", h.Generate)
	engine.GET("/api/healthz", h.Health)
	engine.Static(h.cfg.Assets.PublicPath, h.store.Dir())
}
