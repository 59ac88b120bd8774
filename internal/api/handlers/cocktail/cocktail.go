package cocktail

import (
	"errors"
	"net/http"
	"strconv"

	recipeService "cocktail-recommender/internal/core/recipe"
	"cocktail-recommender/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 雞尾酒推薦 API
type Handler struct {
	service *recipeService.Service
	debug   bool
}

// NewHandler 創建處理器；debug 時錯誤回應附上原始錯誤
func NewHandler(service *recipeService.Service, debug bool) *Handler {
	return &Handler{service: service, debug: debug}
}

// Register 註冊路由
func (h *Handler) Register(group *gin.RouterGroup) {
	group.POST("/predict", h.HandlePredict)
	group.POST("/filter", h.HandleFilter)
	group.POST("/profile", h.HandleProfile)
	group.GET("/ingredients", h.HandleIngredients)
}

func requestID(c *gin.Context) string {
	id := requestid.Get(c)
	if id == "" {
		id = common.GenerateUUID()
		c.Header("X-Request-ID", id)
	}
	return id
}

// respondError 以 CustomError 的狀態碼回應
func (h *Handler) respondError(c *gin.Context, err error) {
	var custom *common.CustomError
	if !errors.As(err, &custom) {
		custom = common.ErrInternalError.Wrap(err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(custom.Status, custom.Response(h.debug))
}

func (h *Handler) bindFeatures(c *gin.Context, id string) (common.Features, bool) {
	var req common.Features
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("request_id", id),
		)
		h.respondError(c, common.ErrInvalidRequest.Wrap(err))
		return req, false
	}
	return req, true
}

// HandlePredict 依起始材料與口味偏好生成配方
func (h *Handler) HandlePredict(c *gin.Context) {
	id := requestID(c)

	req, ok := h.bindFeatures(c, id)
	if !ok {
		return
	}

	common.LogInfo("開始處理配方推薦請求",
		zap.String("request_id", id),
		zap.String("seed", req.Seed),
		zap.Int("max_length", req.MaxLength),
		zap.String("client_ip", c.ClientIP()),
	)

	resp, err := h.service.Recommend(c.Request.Context(), recipeService.RequestFromFeatures(req))
	if err != nil {
		common.LogError("配方推薦失敗",
			zap.Error(err),
			zap.String("request_id", id),
		)
		h.respondError(c, err)
		return
	}

	resp.RequestID = id
	c.JSON(http.StatusOK, resp)
}

// HandleFilter 依口味偏好推薦起始材料
func (h *Handler) HandleFilter(c *gin.Context) {
	id := requestID(c)

	req, ok := h.bindFeatures(c, id)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.respondError(c, common.ErrInvalidRequest.Wrap(common.NewValidationError("limit must be a positive integer")))
			return
		}
		limit = n
	}

	c.JSON(http.StatusOK, h.service.Filter(recipeService.PreferenceFromFeatures(req), limit))
}

// HandleProfile 計算配方的口味輪廓
func (h *Handler) HandleProfile(c *gin.Context) {
	id := requestID(c)

	var req common.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("request_id", id),
		)
		h.respondError(c, common.ErrInvalidRequest.Wrap(err))
		return
	}

	resp, err := h.service.Profile(req.Recipe)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleIngredients 列出所有材料
func (h *Handler) HandleIngredients(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ingredients": h.service.Ingredients(),
	})
}
