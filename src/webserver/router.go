package webserver

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/stake-plus/middlefinger/src/config"
	"github.com/stake-plus/middlefinger/src/metrics"
	"github.com/stake-plus/middlefinger/src/view"
)

// New builds the HTTP surface over app. ctx bounds background helpers.
func New(ctx context.Context, cfg config.Config, app App, renderer *view.Renderer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), metrics.Middleware())
	attachRoutes(ctx, r, cfg, app, renderer)
	return r
}

func attachRoutes(ctx context.Context, r *gin.Engine, cfg config.Config, app App, renderer *view.Renderer) {
	// Without configured origins the page is same-origin only.
	if len(cfg.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "If-None-Match"},
			ExposeHeaders:    []string{"Content-Length", "ETag"},
			AllowCredentials: true,
		}))
	}

	h := NewHandlers(app, renderer)
	limiter := NewRateLimiter(ctx, cfg.SubmitRate, time.Minute)

	r.GET("/", h.Index)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/v1")
	{
		v1.GET("/state", h.State)
		v1.GET("/live", h.Live)
		v1.PUT("/draft", h.Draft)
		v1.POST("/connect", h.Connect)
		v1.POST("/submit", RateLimitMiddleware(limiter), h.Submit)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("http request")
	}
}
