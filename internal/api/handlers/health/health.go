package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"cocktail-recommender/internal/core/ai/provider"
	"cocktail-recommender/internal/core/ai/queue"
	"cocktail-recommender/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const readinessTimeout = 2 * time.Second

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Version     string                 `json:"version"`
	Ingredients int                    `json:"ingredients"`
	Runtime     map[string]interface{} `json:"runtime"`
	Queue       *queue.Status          `json:"queue,omitempty"`
}

// Handler 健康檢查處理器
type Handler struct {
	version     string
	ingredients int
	queue       *queue.Manager
	predictor   provider.HealthChecker
}

// NewHandler 創建健康檢查處理器；predictor 可為 nil
func NewHandler(version string, ingredients int, queueManager *queue.Manager, predictor provider.HealthChecker) *Handler {
	return &Handler{
		version:     version,
		ingredients: ingredients,
		queue:       queueManager,
		predictor:   predictor,
	}
}

// HealthCheck 健康檢查
func (h *Handler) HealthCheck(c *gin.Context) {
	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:      "ok",
		Timestamp:   time.Now(),
		Version:     h.version,
		Ingredients: h.ingredients,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.queue != nil {
		response.Queue = h.queue.GetQueueStatus()
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查：材料表已載入且推論服務可用
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.ingredients == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "catalog is empty",
		})
		return
	}

	if h.predictor != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		if err := h.predictor.Health(ctx); err != nil {
			common.LogWarn("推論服務尚未就緒", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not_ready",
				"reason": err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ready",
		"ingredients": h.ingredients,
	})
}

// LivenessCheck 存活檢查
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
