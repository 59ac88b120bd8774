package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Predictor   PredictorConfig `mapstructure:"predictor"`
	Catalog     CatalogConfig   `mapstructure:"catalog"`
	Generator   GeneratorConfig `mapstructure:"generator"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Queue       QueueConfig     `mapstructure:"queue"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// PredictorConfig 模型推論服務配置
type PredictorConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Model         string        `mapstructure:"model"`
	SignatureName string        `mapstructure:"signature_name"`
	Timeout       time.Duration `mapstructure:"timeout"`
	InputLength   int           `mapstructure:"input_length"`
	Breaker       BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig 熔斷器配置
type BreakerConfig struct {
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	OpenTimeout      time.Duration `mapstructure:"open_timeout"`
}

// CatalogConfig 材料資料來源
type CatalogConfig struct {
	FlavorPath   string `mapstructure:"flavor_path"`
	CategoryPath string `mapstructure:"category_path"`
}

// GeneratorConfig 配方生成參數
type GeneratorConfig struct {
	MaxLength            int     `mapstructure:"max_length"`
	DefaultLength        int     `mapstructure:"default_length"`
	ProbabilityThreshold float64 `mapstructure:"probability_threshold"`
	AlcoholCap           int     `mapstructure:"alcohol_cap"`
	MaxIterations        int     `mapstructure:"max_iterations"`
	LegacyNormalization  bool    `mapstructure:"legacy_normalization"`
	ServingVolume        float64 `mapstructure:"serving_volume"`
	FilterLimit          int     `mapstructure:"filter_limit"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
}

// QueueConfig 生成隊列設定
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
	MaxSize int `mapstructure:"max_size"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 不存在時以環境變數與預設值為準
	_ = godotenv.Load()

	setDefaults()

	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 綁定環境變量
	viper.BindEnv("predictor.base_url", "PREDICTOR_BASE_URL")
	viper.BindEnv("predictor.model", "PREDICTOR_MODEL")
	viper.BindEnv("predictor.timeout", "PREDICTOR_TIMEOUT")
	viper.BindEnv("catalog.flavor_path", "FLAVOR_PATH")
	viper.BindEnv("catalog.category_path", "CATEGORY_PATH")
	viper.BindEnv("generator.legacy_normalization", "LEGACY_NORMALIZATION")
	viper.BindEnv("cache.enabled", "CACHE_ENABLED")
	viper.BindEnv("cache.backend", "CACHE_BACKEND")
	viper.BindEnv("cache.redis_addr", "REDIS_ADDR")
	viper.BindEnv("cache.redis_password", "REDIS_PASSWORD")
	viper.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("dedup_window", "DEDUP_WINDOW")
	viper.BindEnv("log_level", "LOG_LEVEL")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults 設定預設值
func setDefaults() {
	// 應用程式設定
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "cocktail-recommender")

	// 伺服器設定
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.request_timeout", "60s")
	viper.SetDefault("server.max_body_bytes", 1<<20)

	// 模型推論服務
	viper.SetDefault("predictor.base_url", "http://localhost:8501")
	viper.SetDefault("predictor.model", "cocktail")
	viper.SetDefault("predictor.signature_name", "")
	viper.SetDefault("predictor.timeout", "5s")
	viper.SetDefault("predictor.input_length", 10)
	viper.SetDefault("predictor.breaker.failure_threshold", 5)
	viper.SetDefault("predictor.breaker.max_requests", 1)
	viper.SetDefault("predictor.breaker.interval", "60s")
	viper.SetDefault("predictor.breaker.open_timeout", "30s")

	// 材料資料
	viper.SetDefault("catalog.flavor_path", "data/flavor.json")
	viper.SetDefault("catalog.category_path", "data/category.json")

	// 生成參數
	viper.SetDefault("generator.max_length", 10)
	viper.SetDefault("generator.default_length", 5)
	viper.SetDefault("generator.probability_threshold", 1.5)
	viper.SetDefault("generator.alcohol_cap", 2)
	viper.SetDefault("generator.max_iterations", 100)
	viper.SetDefault("generator.legacy_normalization", false)
	viper.SetDefault("generator.serving_volume", 200.0)
	viper.SetDefault("generator.filter_limit", 10)

	// 快取設定
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.backend", "memory")
	viper.SetDefault("cache.max_size", 1000)
	viper.SetDefault("cache.ttl", "24h")
	viper.SetDefault("cache.cleanup_interval", "10m")
	viper.SetDefault("cache.redis_addr", "localhost:6379")
	viper.SetDefault("cache.redis_db", 0)

	// 隊列設定
	viper.SetDefault("queue.workers", 4)
	viper.SetDefault("queue.max_size", 100)

	// 限流設定
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", "1m")

	viper.SetDefault("dedup_window", "1s")
	viper.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	if config.Predictor.BaseURL == "" {
		return fmt.Errorf("predictor base url is required")
	}
	if config.Predictor.InputLength <= 0 {
		return fmt.Errorf("invalid predictor input length")
	}

	if config.Catalog.FlavorPath == "" {
		return fmt.Errorf("flavor table path is required")
	}

	if config.Generator.MaxLength <= 0 {
		return fmt.Errorf("invalid generator max length")
	}
	if config.Generator.DefaultLength <= 0 || config.Generator.DefaultLength > config.Generator.MaxLength {
		return fmt.Errorf("generator default length must be within 1..%d", config.Generator.MaxLength)
	}
	if config.Generator.ServingVolume <= 0 {
		return fmt.Errorf("invalid serving volume")
	}

	if config.Cache.Enabled {
		switch config.Cache.Backend {
		case "memory":
			if config.Cache.MaxSize <= 0 {
				return fmt.Errorf("invalid cache max size")
			}
			if config.Cache.CleanupInterval <= 0 {
				return fmt.Errorf("invalid cache cleanup interval")
			}
		case "redis":
			if config.Cache.RedisAddr == "" {
				return fmt.Errorf("redis address is required for redis cache")
			}
		default:
			return fmt.Errorf("unknown cache backend %q", config.Cache.Backend)
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
	}

	if config.Queue.Workers <= 0 {
		return fmt.Errorf("invalid queue workers")
	}
	if config.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue max size")
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit settings")
	}

	return nil
}
