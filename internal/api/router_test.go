package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cocktail-recommender/internal/core/ai/provider"
	"cocktail-recommender/internal/core/ai/queue"
	"cocktail-recommender/internal/core/cocktail"
	recipeService "cocktail-recommender/internal/core/recipe"
	"cocktail-recommender/internal/infrastructure/config"
	"cocktail-recommender/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHealth struct{ err error }

func (f fakeHealth) Health(context.Context) error { return f.err }

func testConfig() *config.Config {
	return &config.Config{
		App:    config.AppConfig{Version: "test", Debug: true},
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second, MaxBodyBytes: 1 << 16},
		Generator: config.GeneratorConfig{
			MaxLength:     10,
			DefaultLength: 5,
			ServingVolume: 200,
			FilterLimit:   10,
		},
		Queue: config.QueueConfig{Workers: 1, MaxSize: 10},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, predictor provider.Predictor, health provider.HealthChecker) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog, err := cocktail.NewCatalog([]cocktail.FlavorRecord{
		{Name: "Vodka", ABV: 40},
		{Name: "Soda", ABV: 0, Sweet: 10},
	}, map[string][]string{"Vodka": {cocktail.CategoryAlcohol}, "Soda": {cocktail.CategoryMixer}})
	require.NoError(t, err)

	queueManager := queue.NewManager(cfg.Queue)
	queueManager.Start()
	t.Cleanup(queueManager.Close)

	generator := cocktail.NewGenerator(catalog, predictor, cocktail.GeneratorOptions{})
	svc := recipeService.NewService(catalog, generator, queueManager, nil, cfg.Generator)

	router := SetupRouter(cfg, Dependencies{Recipe: svc, Queue: queueManager, Predictor: health})
	t.Cleanup(router.Close)
	return router.Engine
}

func uniformPredictor() provider.Predictor {
	return provider.PredictorFunc(func(context.Context, []int) ([]float64, error) {
		return []float64{0.5, 0.5}, nil
	})
}

func doJSON(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestPredictEndpoint(t *testing.T) {
	engine := newTestRouter(t, testConfig(), uniformPredictor(), nil)

	w := doJSON(engine, http.MethodPost, "/api/v1/cocktail/predict",
		`{"ABV": 20, "sweet": 50, "seed": "Vodka", "max_length": 3}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp common.RecipeResponse
	require.NoError(t, common.ParseJSONBytes(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Ingredients, 3)
	assert.Contains(t, resp.Recipe, "Vodka")
	assert.Contains(t, resp.Profile, "ABV")
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, resp.RequestID, w.Header().Get("X-Request-ID"))
}

func TestPredictEndpointErrors(t *testing.T) {
	failing := provider.PredictorFunc(func(context.Context, []int) ([]float64, error) {
		return nil, errors.New("model down")
	})

	tests := []struct {
		name      string
		predictor provider.Predictor
		body      string
		status    int
		code      string
	}{
		{"malformed json", uniformPredictor(), `{"seed":`, http.StatusBadRequest, common.ErrCodeInvalidRequest},
		{"missing seed", uniformPredictor(), `{"ABV": 10}`, http.StatusBadRequest, common.ErrCodeInvalidRequest},
		{"unknown seed", uniformPredictor(), `{"seed": "Rum"}`, http.StatusNotFound, common.ErrCodeUnknownIngredient},
		{"predictor failure", failing, `{"seed": "Vodka"}`, http.StatusBadGateway, common.ErrCodePredictorFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestRouter(t, testConfig(), tt.predictor, nil)

			w := doJSON(engine, http.MethodPost, "/api/v1/cocktail/predict", tt.body)
			assert.Equal(t, tt.status, w.Code)

			var resp common.ErrorResponse
			require.NoError(t, common.ParseJSONBytes(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestFilterEndpoint(t *testing.T) {
	engine := newTestRouter(t, testConfig(), uniformPredictor(), nil)

	w := doJSON(engine, http.MethodPost, "/api/v1/cocktail/filter?limit=1", `{"ABV": 35}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp common.FilterResponse
	require.NoError(t, common.ParseJSONBytes(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Vodka"}, resp.Ingredients)
	assert.Equal(t, 40.0, resp.Flavor["Vodka"]["ABV"])

	w = doJSON(engine, http.MethodPost, "/api/v1/cocktail/filter?limit=abc", `{"ABV": 35}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfileEndpoint(t *testing.T) {
	engine := newTestRouter(t, testConfig(), uniformPredictor(), nil)

	w := doJSON(engine, http.MethodPost, "/api/v1/cocktail/profile", `{"recipe": {"Vodka": 50, "Soda": 150}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp common.ProfileResponse
	require.NoError(t, common.ParseJSONBytes(w.Body.Bytes(), &resp))
	assert.InDelta(t, 10.0, resp.Profile["ABV"], 1e-9)

	w = doJSON(engine, http.MethodPost, "/api/v1/cocktail/profile", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngredientsEndpoint(t *testing.T) {
	engine := newTestRouter(t, testConfig(), uniformPredictor(), nil)

	w := doJSON(engine, http.MethodGet, "/api/v1/cocktail/ingredients", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Ingredients []common.IngredientDTO `json:"ingredients"`
	}
	require.NoError(t, common.ParseJSONBytes(w.Body.Bytes(), &resp))
	require.Len(t, resp.Ingredients, 2)
	assert.Equal(t, "Soda", resp.Ingredients[1].Name)
}

func TestHealthEndpoints(t *testing.T) {
	engine := newTestRouter(t, testConfig(), uniformPredictor(), fakeHealth{})

	for _, path := range []string{"/health", "/ready", "/live", "/metrics"} {
		w := doJSON(engine, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	notReady := newTestRouter(t, testConfig(), uniformPredictor(), fakeHealth{err: errors.New("loading")})
	w := doJSON(notReady, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDeduplicationAndRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.DedupWindow = time.Minute
	engine := newTestRouter(t, cfg, uniformPredictor(), nil)

	body := `{"recipe": {"Vodka": 50}}`
	assert.Equal(t, http.StatusOK, doJSON(engine, http.MethodPost, "/api/v1/cocktail/profile", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, doJSON(engine, http.MethodPost, "/api/v1/cocktail/profile", body).Code)

	cfg = testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, Requests: 2, Window: time.Minute}
	engine = newTestRouter(t, cfg, uniformPredictor(), nil)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, doJSON(engine, http.MethodGet, "/api/v1/cocktail/ingredients", "").Code)
	}
	w := doJSON(engine, http.MethodGet, "/api/v1/cocktail/ingredients", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// 健康檢查不受限流
	assert.Equal(t, http.StatusOK, doJSON(engine, http.MethodGet, "/live", "").Code)
}
