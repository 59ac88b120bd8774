package recipe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"cocktail-recommender/internal/core/ai/cache"
	"cocktail-recommender/internal/core/ai/queue"
	"cocktail-recommender/internal/core/cocktail"
	"cocktail-recommender/internal/infrastructure/config"
	"cocktail-recommender/internal/infrastructure/metrics"
	"cocktail-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

// Service 雞尾酒推薦服務：快取、生成隊列與份量換算
type Service struct {
	catalog   *cocktail.Catalog
	generator *cocktail.Generator
	queue     *queue.Manager
	cache     cache.Store
	config    config.GeneratorConfig
}

// NewService 創建推薦服務，store 為 nil 時不使用快取
func NewService(catalog *cocktail.Catalog, generator *cocktail.Generator, queueManager *queue.Manager, store cache.Store, cfg config.GeneratorConfig) *Service {
	return &Service{
		catalog:   catalog,
		generator: generator,
		queue:     queueManager,
		cache:     store,
		config:    cfg,
	}
}

// Recommend 依起始材料與偏好生成配方
func (s *Service) Recommend(ctx context.Context, req RecommendRequest) (*common.RecipeResponse, error) {
	req, err := s.normalize(req)
	if err != nil {
		metrics.RecommendationsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	key := cacheKey(req)
	if resp, ok := s.fromCache(ctx, key); ok {
		metrics.RecommendationsTotal.WithLabelValues("cache_hit").Inc()
		return resp, nil
	}

	start := time.Now()
	recipe, err := s.queue.Submit(ctx, func(jobCtx context.Context) (*cocktail.Recipe, error) {
		return s.generator.Generate(jobCtx, req.Seed, req.Preference, req.MaxLength)
	})
	if err != nil {
		mapped := mapError(err)
		metrics.RecommendationsTotal.WithLabelValues(strings.ToLower(mapped.Code)).Inc()
		common.LogWarn("配方生成失敗",
			zap.String("seed", req.Seed),
			zap.Int("max_length", req.MaxLength),
			zap.Error(err),
		)
		return nil, mapped
	}

	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	metrics.RecipeLength.Observe(float64(len(recipe.Ingredients)))
	metrics.BalancerConvergence.WithLabelValues(strconv.FormatBool(recipe.Balance.Converged)).Inc()
	metrics.RecommendationsTotal.WithLabelValues("generated").Inc()

	resp := s.buildResponse(recipe, req.ServingVolume)
	common.LogInfo("配方已生成",
		zap.String("seed", req.Seed),
		zap.Strings("ingredients", recipe.Ingredients),
		zap.Float64("abv", recipe.Balance.ABV),
		zap.Bool("converged", recipe.Balance.Converged),
		zap.Duration("耗時", time.Since(start)),
	)

	s.toCache(ctx, key, resp)
	return resp, nil
}

// normalize 驗證請求並補上預設值
func (s *Service) normalize(req RecommendRequest) (RecommendRequest, error) {
	req.Seed = cocktail.Normalize(req.Seed)
	if req.Seed == "" {
		return req, common.ErrInvalidRequest.Wrap(common.NewValidationError("seed is required"))
	}
	if _, err := s.catalog.LookupID(req.Seed); err != nil {
		return req, common.ErrUnknownIngredient.Wrap(err)
	}

	if req.MaxLength <= 0 {
		req.MaxLength = s.config.DefaultLength
	}
	if req.MaxLength > s.config.MaxLength {
		return req, common.ErrInvalidRequest.Wrap(common.NewValidationError(
			fmt.Sprintf("max_length must be between 1 and %d", s.config.MaxLength)))
	}

	if req.ServingVolume <= 0 || math.IsNaN(req.ServingVolume) || math.IsInf(req.ServingVolume, 0) {
		req.ServingVolume = s.config.ServingVolume
	}

	req.Preference = req.Preference.Clamp()
	return req, nil
}

// buildResponse 將比例換算為毫升並計算口味輪廓
func (s *Service) buildResponse(recipe *cocktail.Recipe, volume float64) *common.RecipeResponse {
	portions := recipe.Portions(volume)

	resp := &common.RecipeResponse{
		Recipe:      make(map[string]float64, len(portions)),
		Ingredients: make([]common.PortionDTO, len(portions)),
		Profile:     cocktail.TasteProfile(s.catalog, portions),
		Balance: common.BalanceDTO{
			Converged:  recipe.Balance.Converged,
			Iterations: recipe.Balance.Iterations,
			ABV:        recipe.Balance.ABV,
			TasteFit:   recipe.Balance.TasteFit,
		},
	}
	for i, p := range portions {
		// 同一材料出現多次時合併份量
		resp.Recipe[p.Name] += p.Amount
		resp.Ingredients[i] = common.PortionDTO{
			Name:       p.Name,
			Proportion: recipe.Quantities[i],
			AmountML:   p.Amount,
		}
	}
	return resp
}

func (s *Service) fromCache(ctx context.Context, key string) (*common.RecipeResponse, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, common.ErrCacheMiss) {
			common.LogWarn("讀取快取失敗", zap.Error(err))
		}
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}

	var resp common.RecipeResponse
	if err := common.ParseJSONBytes(data, &resp); err != nil {
		common.LogWarn("快取內容無法解析", zap.String("鍵", key), zap.Error(err))
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}

	metrics.CacheHitsTotal.Inc()
	resp.CacheHit = true
	return &resp, true
}

// toCache 寫入快取，失敗只記錄
func (s *Service) toCache(ctx context.Context, key string, resp *common.RecipeResponse) {
	if s.cache == nil {
		return
	}

	data, err := common.ToJSONBytes(resp)
	if err != nil {
		common.LogWarn("序列化推薦結果失敗", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data); err != nil {
		common.LogWarn("寫入快取失敗", zap.String("鍵", key), zap.Error(err))
	}
}

// cacheKey 以正規化後的請求內容計算快取鍵
func cacheKey(req RecommendRequest) string {
	var b strings.Builder
	b.WriteString(req.Seed)
	b.WriteString("|")
	b.WriteString(strconv.Itoa(req.MaxLength))
	b.WriteString("|")
	b.WriteString(strconv.FormatFloat(req.ServingVolume, 'g', -1, 64))
	b.WriteString("|")
	b.WriteString(strconv.FormatFloat(req.Preference.ABV, 'g', -1, 64))
	for _, v := range req.Preference.Taste {
		b.WriteString(",")
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return common.HashString(b.String())
}

// mapError 將核心與隊列錯誤轉為 API 錯誤
func mapError(err error) *common.CustomError {
	var custom *common.CustomError
	switch {
	case errors.Is(err, cocktail.ErrUnknownIngredient):
		return common.ErrUnknownIngredient.Wrap(err)
	case errors.Is(err, cocktail.ErrPredictorFailure):
		return common.ErrPredictorFailure.Wrap(err)
	case errors.Is(err, context.DeadlineExceeded):
		return common.ErrGatewayTimeout.Wrap(err)
	case errors.Is(err, context.Canceled):
		return common.ErrRequestTimeout.Wrap(err)
	case errors.Is(err, queue.ErrClosed):
		return common.ErrServiceUnavailable.Wrap(err)
	case errors.As(err, &custom):
		return custom
	default:
		return common.ErrInternalError.Wrap(err)
	}
}

// Filter 依偏好推薦起始材料
func (s *Service) Filter(pref cocktail.Preference, limit int) *common.FilterResponse {
	if limit <= 0 {
		limit = s.config.FilterLimit
	}

	candidates := cocktail.SeedCandidates(s.catalog, pref.Clamp(), limit)
	resp := &common.FilterResponse{
		Ingredients: make([]string, len(candidates)),
		Flavor:      make(map[string]map[string]float64, len(candidates)),
	}
	for i, c := range candidates {
		resp.Ingredients[i] = c.Ingredient.Name
		resp.Flavor[c.Ingredient.Name] = c.Flavor()
	}
	return resp
}

// Profile 計算任意配方（材料名稱 → 份量）的口味輪廓
func (s *Service) Profile(recipe map[string]float64) (*common.ProfileResponse, error) {
	if len(recipe) == 0 {
		return nil, common.ErrInvalidRequest.Wrap(common.NewValidationError("recipe is empty"))
	}

	names := make([]string, 0, len(recipe))
	for name, amount := range recipe {
		if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
			return nil, common.ErrInvalidRequest.Wrap(common.NewValidationError(
				fmt.Sprintf("invalid amount for %s", name)))
		}
		names = append(names, name)
	}
	// 固定加總順序
	sort.Strings(names)

	portions := make([]cocktail.Portion, len(names))
	known := 0
	for i, name := range names {
		portions[i] = cocktail.Portion{Name: name, Amount: recipe[name]}
		if _, err := s.catalog.LookupID(name); err == nil {
			known++
		}
	}
	if known == 0 {
		return nil, common.ErrUnknownIngredient.Wrap(fmt.Errorf("%w: none of the recipe ingredients are known", cocktail.ErrUnknownIngredient))
	}

	return &common.ProfileResponse{Profile: cocktail.TasteProfile(s.catalog, portions)}, nil
}

// Ingredients 依 id 順序列出所有材料
func (s *Service) Ingredients() []common.IngredientDTO {
	ingredients := s.catalog.Ingredients()
	out := make([]common.IngredientDTO, len(ingredients))
	for i, ing := range ingredients {
		categories := ing.Categories
		if categories == nil {
			categories = []string{}
		}
		out[i] = common.IngredientDTO{
			ID:         ing.ID,
			Name:       ing.Name,
			ABV:        ing.ABV,
			Categories: categories,
		}
	}
	return out
}

// CatalogSize 材料數量
func (s *Service) CatalogSize() int {
	return s.catalog.Size()
}
