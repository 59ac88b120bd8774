package api

import (
	"time"

	cocktailHandler "cocktail-recommender/internal/api/handlers/cocktail"
	"cocktail-recommender/internal/api/handlers/health"
	"cocktail-recommender/internal/api/middleware"
	"cocktail-recommender/internal/core/ai/provider"
	"cocktail-recommender/internal/core/ai/queue"
	recipeService "cocktail-recommender/internal/core/recipe"
	"cocktail-recommender/internal/infrastructure/config"
	"cocktail-recommender/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies 路由需要的服務
type Dependencies struct {
	Recipe    *recipeService.Service
	Queue     *queue.Manager
	Predictor provider.HealthChecker
}

// Router HTTP 路由與需要釋放的中間件資源
type Router struct {
	Engine      *gin.Engine
	rateLimiter *middleware.RateLimiter
}

// Close 停止背景清理
func (r *Router) Close() {
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) *Router {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	r := &Router{Engine: engine}

	// 註冊基礎中間件
	engine.Use(middleware.Recovery())
	engine.Use(requestid.New(requestid.WithGenerator(common.GenerateUUID)))
	engine.Use(middleware.Logger())

	// CORS 設置
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// 健康檢查與監控不受限流影響
	healthHandler := health.NewHandler(cfg.App.Version, deps.Recipe.CatalogSize(), deps.Queue, deps.Predictor)
	engine.GET("/health", healthHandler.HealthCheck)
	engine.GET("/ready", healthHandler.ReadinessCheck)
	engine.GET("/live", healthHandler.LivenessCheck)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API 路由組
	api := engine.Group("/api/v1")
	if cfg.Server.MaxBodyBytes > 0 {
		api.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	}
	if cfg.Server.RequestTimeout > 0 {
		api.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	}
	if cfg.RateLimit.Enabled {
		r.rateLimiter = middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		r.rateLimiter.StartCleanup(10 * time.Minute)
		api.Use(middleware.RateLimit(r.rateLimiter, cfg.RateLimit.Window))
	}
	if cfg.DedupWindow > 0 {
		api.Use(middleware.Deduplication(middleware.NewDeduplicator(cfg.DedupWindow)))
	}

	cocktailHandler.NewHandler(deps.Recipe, cfg.App.Debug).Register(api.Group("/cocktail"))

	common.LogInfo("Router setup completed successfully",
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("dedup_window", cfg.DedupWindow),
		zap.Duration("request_timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return r
}
