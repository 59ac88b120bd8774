package recipe

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"cocktail-recommender/internal/core/ai/cache"
	"cocktail-recommender/internal/core/ai/provider"
	"cocktail-recommender/internal/core/ai/queue"
	"cocktail-recommender/internal/core/cocktail"
	"cocktail-recommender/internal/infrastructure/config"
	"cocktail-recommender/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testGeneratorConfig = config.GeneratorConfig{
	MaxLength:            10,
	DefaultLength:        5,
	ProbabilityThreshold: 1.5,
	AlcoholCap:           2,
	MaxIterations:        100,
	ServingVolume:        200,
	FilterLimit:          10,
}

type fixture struct {
	service *Service
	calls   *int32
}

func newFixture(t *testing.T, predictor provider.Predictor, withCache bool) *fixture {
	t.Helper()

	catalog, err := cocktail.NewCatalog([]cocktail.FlavorRecord{
		{Name: "Vodka", ABV: 40},
		{Name: "Soda", ABV: 0, Sweet: 10},
	}, map[string][]string{"Vodka": {cocktail.CategoryAlcohol}, "Soda": {cocktail.CategoryMixer}})
	require.NoError(t, err)

	var calls int32
	counting := provider.PredictorFunc(func(ctx context.Context, sequence []int) ([]float64, error) {
		atomic.AddInt32(&calls, 1)
		return predictor.Predict(ctx, sequence)
	})

	generator := cocktail.NewGenerator(catalog, counting, cocktail.GeneratorOptions{})
	queueManager := queue.NewManager(config.QueueConfig{Workers: 2, MaxSize: 10})
	queueManager.Start()
	t.Cleanup(queueManager.Close)

	var store cache.Store
	if withCache {
		store = cache.NewManager(config.CacheConfig{Enabled: true, MaxSize: 10, TTL: time.Minute})
		t.Cleanup(func() { _ = store.Close() })
	}

	return &fixture{
		service: NewService(catalog, generator, queueManager, store, testGeneratorConfig),
		calls:   &calls,
	}
}

func uniformPredictor() provider.Predictor {
	return provider.PredictorFunc(func(context.Context, []int) ([]float64, error) {
		return []float64{0.5, 0.5}, nil
	})
}

func vodkaRequest() RecommendRequest {
	return RecommendRequest{
		Seed:       "Vodka",
		Preference: cocktail.Preference{ABV: 20, Taste: cocktail.TasteVector{cocktail.Sweet: 50}},
		MaxLength:  3,
	}
}

func TestRecommend(t *testing.T) {
	f := newFixture(t, uniformPredictor(), false)

	resp, err := f.service.Recommend(context.Background(), vodkaRequest())
	require.NoError(t, err)

	require.Len(t, resp.Ingredients, 3)
	assert.Equal(t, "Vodka", resp.Ingredients[0].Name)
	assert.False(t, resp.CacheHit)

	var total, proportion float64
	for _, p := range resp.Ingredients {
		total += p.AmountML
		proportion += p.Proportion
		assert.InDelta(t, p.Proportion*200, p.AmountML, 1e-9)
	}
	assert.InDelta(t, 200.0, total, 1e-9)
	assert.InDelta(t, 1.0, proportion, 1e-9)

	// Vodka 出現兩次，合併為一項
	assert.Len(t, resp.Recipe, 2)
	assert.InDelta(t, resp.Ingredients[0].AmountML+resp.Ingredients[2].AmountML, resp.Recipe["Vodka"], 1e-9)

	assert.InDelta(t, resp.Balance.ABV, resp.Profile[cocktail.ABVKey], 1e-9)
	assert.Greater(t, resp.Profile[cocktail.ABVKey], 0.0)
	assert.Less(t, resp.Profile[cocktail.ABVKey], 40.0)
}

func TestRecommendServingVolume(t *testing.T) {
	f := newFixture(t, uniformPredictor(), false)

	req := vodkaRequest()
	req.ServingVolume = 90
	resp, err := f.service.Recommend(context.Background(), req)
	require.NoError(t, err)

	var total float64
	for _, amount := range resp.Recipe {
		total += amount
	}
	assert.InDelta(t, 90.0, total, 1e-9)
}

func TestRecommendUsesCache(t *testing.T) {
	f := newFixture(t, uniformPredictor(), true)
	ctx := context.Background()

	first, err := f.service.Recommend(ctx, vodkaRequest())
	require.NoError(t, err)
	calls := atomic.LoadInt32(f.calls)
	require.Greater(t, calls, int32(0))

	second, err := f.service.Recommend(ctx, vodkaRequest())
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, calls, atomic.LoadInt32(f.calls))
	assert.Equal(t, first.Recipe, second.Recipe)

	// 偏好不同就是不同的快取鍵
	req := vodkaRequest()
	req.Preference.ABV = 25
	third, err := f.service.Recommend(ctx, req)
	require.NoError(t, err)
	assert.False(t, third.CacheHit)
}

func TestRecommendErrors(t *testing.T) {
	failing := provider.PredictorFunc(func(context.Context, []int) ([]float64, error) {
		return nil, errors.New("connection refused")
	})

	tests := []struct {
		name      string
		predictor provider.Predictor
		req       func() RecommendRequest
		want      *common.CustomError
		status    int
		noCalls   bool
	}{
		{
			name:      "unknown seed",
			predictor: uniformPredictor(),
			req: func() RecommendRequest {
				r := vodkaRequest()
				r.Seed = "Rum"
				return r
			},
			want:    common.ErrUnknownIngredient,
			status:  http.StatusNotFound,
			noCalls: true,
		},
		{
			name:      "empty seed",
			predictor: uniformPredictor(),
			req: func() RecommendRequest {
				r := vodkaRequest()
				r.Seed = "  "
				return r
			},
			want:    common.ErrInvalidRequest,
			status:  http.StatusBadRequest,
			noCalls: true,
		},
		{
			name:      "max length too large",
			predictor: uniformPredictor(),
			req: func() RecommendRequest {
				r := vodkaRequest()
				r.MaxLength = 11
				return r
			},
			want:    common.ErrInvalidRequest,
			status:  http.StatusBadRequest,
			noCalls: true,
		},
		{
			name:      "predictor failure",
			predictor: failing,
			req:       vodkaRequest,
			want:      common.ErrPredictorFailure,
			status:    http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.predictor, false)

			resp, err := f.service.Recommend(context.Background(), tt.req())
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tt.want)

			var custom *common.CustomError
			require.True(t, errors.As(err, &custom))
			assert.Equal(t, tt.status, custom.Status)

			if tt.noCalls {
				assert.Equal(t, int32(0), atomic.LoadInt32(f.calls))
			}
		})
	}
}

func TestFilter(t *testing.T) {
	f := newFixture(t, uniformPredictor(), false)

	resp := f.service.Filter(cocktail.Preference{ABV: 35}, 0)
	assert.Equal(t, []string{"Vodka", "Soda"}, resp.Ingredients)
	assert.Equal(t, 40.0, resp.Flavor["Vodka"][cocktail.ABVKey])
	assert.Equal(t, 10.0, resp.Flavor["Soda"]["sweet"])

	assert.Len(t, f.service.Filter(cocktail.Preference{}, 1).Ingredients, 1)
}

func TestProfile(t *testing.T) {
	f := newFixture(t, uniformPredictor(), false)

	resp, err := f.service.Profile(map[string]float64{"Vodka": 50, "Soda": 150})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, resp.Profile[cocktail.ABVKey], 1e-12)
	assert.InDelta(t, 7.5, resp.Profile["sweet"], 1e-12)

	_, err = f.service.Profile(nil)
	assert.ErrorIs(t, err, common.ErrInvalidRequest)

	_, err = f.service.Profile(map[string]float64{"Vodka": -1})
	assert.ErrorIs(t, err, common.ErrInvalidRequest)

	_, err = f.service.Profile(map[string]float64{"Rum": 10})
	assert.ErrorIs(t, err, common.ErrUnknownIngredient)
}

func TestIngredients(t *testing.T) {
	f := newFixture(t, uniformPredictor(), false)

	list := f.service.Ingredients()
	require.Len(t, list, 2)
	assert.Equal(t, common.IngredientDTO{ID: 0, Name: "Vodka", ABV: 40, Categories: []string{cocktail.CategoryAlcohol}}, list[0])
	assert.Equal(t, 2, f.service.CatalogSize())
}

func TestPreferenceFromFeatures(t *testing.T) {
	pref := PreferenceFromFeatures(common.Features{ABV: 120, Sweet: 50, PerceivedT: 30, Smoky: -4})

	assert.Equal(t, 100.0, pref.ABV)
	assert.Equal(t, 50.0, pref.Taste[cocktail.Sweet])
	assert.Equal(t, 30.0, pref.Taste[cocktail.PerceivedTemperature])
	assert.Equal(t, 0.0, pref.Taste[cocktail.Smoky])
}
