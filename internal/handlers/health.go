package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	Status      string `json:"status"`
	Assets      string `json:"assets"`
	Queue       string `json:"queue"`
	Environment string `json:"environment"`
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	assetsStatus := "ok"
	if err := h.store.Writable(); err != nil {
		assetsStatus = "error"
		h.log.Error().Err(err).Msg("assets dir not writable")
	}

	queueStatus := "disabled"
	if h.cache != nil {
		queueStatus = "ok"
		if err := h.cache.Ping(ctx).Err(); err != nil {
			queueStatus = "error"
			h.log.Error().Err(err).Msg("redis ping failed")
		}
	}

	c.JSON(http.StatusOK, healthResponse{
		Status:      "ok",
		Assets:      assetsStatus,
		Queue:       queueStatus,
		Environment: h.cfg.Environment,
	})
}
