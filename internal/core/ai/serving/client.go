package serving

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cocktail-recommender/internal/infrastructure/config"
	"cocktail-recommender/internal/infrastructure/metrics"
	"cocktail-recommender/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// ErrBreakerOpen 熔斷器開啟，暫停呼叫推論服務
var ErrBreakerOpen = errors.New("predictor circuit breaker is open")

// predictRequest TensorFlow Serving REST predict 請求
type predictRequest struct {
	SignatureName string  `json:"signature_name,omitempty"`
	Instances     [][]int `json:"instances"`
}

// Client TensorFlow Serving REST 推論客戶端
//
// 每次呼叫都是獨立的 HTTP 請求，可同時服務多個生成工作。
type Client struct {
	config  config.PredictorConfig
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker[[]float64]
}

// NewClient 建立推論客戶端
func NewClient(cfg config.PredictorConfig) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	c := &Client{
		config: cfg,
		client: client,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]float64](c.breakerSettings())
	metrics.PredictorBreakerState.Set(stateToFloat(gobreaker.StateClosed))

	return c
}

func (c *Client) breakerSettings() gobreaker.Settings {
	threshold := c.config.Breaker.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	return gobreaker.Settings{
		Name:        "predictor",
		MaxRequests: c.config.Breaker.MaxRequests,
		Interval:    c.config.Breaker.Interval,
		Timeout:     c.config.Breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// 呼叫端取消不算推論服務的失敗
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			common.LogWarn("推論服務熔斷器狀態變更",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.PredictorBreakerState.Set(stateToFloat(to))
		},
	}
}

// Predict 以補齊後的材料 id 序列呼叫模型，回傳下一個材料的機率向量
func (c *Client) Predict(ctx context.Context, sequence []int) ([]float64, error) {
	start := time.Now()

	probs, err := c.breaker.Execute(func() ([]float64, error) {
		return c.predict(ctx, sequence)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %v", ErrBreakerOpen, err)
	}

	duration := time.Since(start)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.PredictorDuration.WithLabelValues(status).Observe(duration.Seconds())
	common.LogPredictorCall(c.config.Model, len(sequence), duration, err)

	return probs, err
}

func (c *Client) predict(ctx context.Context, sequence []int) ([]float64, error) {
	req := predictRequest{
		SignatureName: c.config.SignatureName,
		Instances:     [][]int{sequence},
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post(fmt.Sprintf("/v1/models/%s:predict", c.config.Model))
	if err != nil {
		return nil, fmt.Errorf("failed to send request to predictor: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("predictor returned status %d: %s", resp.StatusCode(), errorMessage(resp.Body()))
	}

	return parsePredictions(resp.Body())
}

// parsePredictions 取出第一筆預測結果
func parsePredictions(body []byte) ([]float64, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("predictor returned invalid JSON")
	}

	first := gjson.GetBytes(body, "predictions.0")
	if !first.Exists() {
		// 部分模型以 outputs 欄位回傳
		first = gjson.GetBytes(body, "outputs.0")
	}
	if !first.IsArray() {
		return nil, errors.New("predictor response has no predictions")
	}

	var (
		probs    []float64
		parseErr error
	)
	first.ForEach(func(_, value gjson.Result) bool {
		if value.Type != gjson.Number {
			parseErr = fmt.Errorf("non-numeric prediction %q", value.Raw)
			return false
		}
		probs = append(probs, value.Float())
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return probs, nil
}

// errorMessage 取出 TensorFlow Serving 的錯誤訊息
func errorMessage(body []byte) string {
	if msg := gjson.GetBytes(body, "error"); msg.Exists() {
		return msg.String()
	}
	if len(body) > 200 {
		return string(body[:200])
	}
	return string(body)
}

// Health 檢查模型是否已載入並可服務
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/v1/models/%s", c.config.Model))
	if err != nil {
		return fmt.Errorf("failed to reach predictor: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("predictor returned status %d: %s", resp.StatusCode(), errorMessage(resp.Body()))
	}

	available := false
	gjson.GetBytes(resp.Body(), "model_version_status").ForEach(func(_, status gjson.Result) bool {
		if status.Get("state").String() == "AVAILABLE" {
			available = true
			return false
		}
		return true
	})
	if !available {
		return fmt.Errorf("model %s has no available version", c.config.Model)
	}

	return nil
}

// BreakerState 熔斷器目前狀態
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
