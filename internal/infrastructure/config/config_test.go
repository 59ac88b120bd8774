package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigWithDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "cocktail", cfg.Predictor.Model)
	assert.Equal(t, 10, cfg.Predictor.InputLength)
	assert.Equal(t, 10, cfg.Generator.MaxLength)
	assert.Equal(t, 5, cfg.Generator.DefaultLength)
	assert.Equal(t, 1.5, cfg.Generator.ProbabilityThreshold)
	assert.Equal(t, 2, cfg.Generator.AlcoholCap)
	assert.Equal(t, 100, cfg.Generator.MaxIterations)
	assert.Equal(t, 200.0, cfg.Generator.ServingVolume)
	assert.False(t, cfg.Generator.LegacyNormalization)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, time.Second, cfg.DedupWindow)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PREDICTOR_BASE_URL", "http://model:8501")
	t.Setenv("PREDICTOR_MODEL", "lstm")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("LEGACY_NORMALIZATION", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://model:8501", cfg.Predictor.BaseURL)
	assert.Equal(t, "lstm", cfg.Predictor.Model)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "redis:6379", cfg.Cache.RedisAddr)
	assert.True(t, cfg.Generator.LegacyNormalization)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: 8000},
			Predictor: PredictorConfig{BaseURL: "http://localhost:8501", InputLength: 10},
			Catalog:   CatalogConfig{FlavorPath: "data/flavor.json"},
			Generator: GeneratorConfig{MaxLength: 10, DefaultLength: 5, ServingVolume: 200},
			Cache:     CacheConfig{Enabled: true, Backend: "memory", MaxSize: 10, TTL: time.Minute, CleanupInterval: time.Minute},
			Queue:     QueueConfig{Workers: 1, MaxSize: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "server port"},
		{name: "default length above max", mutate: func(c *Config) { c.Generator.DefaultLength = 11 }, wantErr: "default length"},
		{name: "unknown cache backend", mutate: func(c *Config) { c.Cache.Backend = "memcached" }, wantErr: "unknown cache backend"},
		{name: "disabled cache skips checks", mutate: func(c *Config) { c.Cache = CacheConfig{} }},
		{name: "no workers", mutate: func(c *Config) { c.Queue.Workers = 0 }, wantErr: "queue workers"},
		{name: "bad rate limit", mutate: func(c *Config) { c.RateLimit = RateLimitConfig{Enabled: true} }, wantErr: "rate limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
