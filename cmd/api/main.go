package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cocktail-recommender/internal/api"
	"cocktail-recommender/internal/core/ai/cache"
	"cocktail-recommender/internal/core/ai/queue"
	"cocktail-recommender/internal/core/ai/serving"
	"cocktail-recommender/internal/core/cocktail"
	"cocktail-recommender/internal/core/recipe"
	"cocktail-recommender/internal/infrastructure/config"
	"cocktail-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	// 載入設定（.env 由 LoadConfig 讀取）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("predictor_url", cfg.Predictor.BaseURL),
		zap.String("predictor_model", cfg.Predictor.Model),
		zap.String("flavor_path", cfg.Catalog.FlavorPath),
		zap.Bool("legacy_normalization", cfg.Generator.LegacyNormalization),
	)

	// 載入材料表
	catalog, err := cocktail.LoadCatalog(cfg.Catalog.FlavorPath, cfg.Catalog.CategoryPath)
	if err != nil {
		common.LogFatal("Failed to load ingredient catalog", zap.Error(err))
	}

	// 初始化推論客戶端與生成器
	predictor := serving.NewClient(cfg.Predictor)
	balancerOpts := cocktail.DefaultBalancerOptions()
	balancerOpts.MaxIterations = cfg.Generator.MaxIterations
	balancerOpts.LegacyNormalization = cfg.Generator.LegacyNormalization

	generator := cocktail.NewGenerator(catalog, predictor, cocktail.GeneratorOptions{
		MaxLength:            cfg.Generator.MaxLength,
		InputLength:          cfg.Predictor.InputLength,
		ProbabilityThreshold: cfg.Generator.ProbabilityThreshold,
		AlcoholCap:           cfg.Generator.AlcoholCap,
		Balancer:             balancerOpts,
	})

	// 初始化快取
	initCtx, initCancel := context.WithTimeout(context.Background(), 5*time.Second)
	store, err := cache.New(initCtx, cfg.Cache)
	initCancel()
	if err != nil {
		common.LogFatal("Failed to initialize cache", zap.Error(err))
	}
	if store != nil {
		defer store.Close()
	}

	// 啟動生成隊列
	queueManager := queue.NewManager(cfg.Queue)
	queueManager.Start()
	defer queueManager.Close()

	recipeSvc := recipe.NewService(catalog, generator, queueManager, store, cfg.Generator)

	// 設置路由
	router := api.SetupRouter(cfg, api.Dependencies{
		Recipe:    recipeSvc,
		Queue:     queueManager,
		Predictor: predictor,
	})
	defer router.Close()

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router.Engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	serverErr := make(chan error, 1)
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
			zap.Int("ingredients", catalog.Size()),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		common.LogError("Failed to start server", zap.Error(err))
		return
	}

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		return
	}

	common.LogInfo("Server exited")
}
