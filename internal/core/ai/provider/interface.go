package provider

import (
	"context"
)

// Predictor 定義下一個材料預測模型的介面
//
// Predict 接收已補齊到模型固定長度的材料 id 序列，回傳長度等於材料表大小的機率向量，
// 數值非負但不一定已正規化。
type Predictor interface {
	Predict(ctx context.Context, sequence []int) ([]float64, error)
}

// PredictorFunc 讓一般函式實作 Predictor
type PredictorFunc func(ctx context.Context, sequence []int) ([]float64, error)

// Predict 實作 Predictor
func (f PredictorFunc) Predict(ctx context.Context, sequence []int) ([]float64, error) {
	return f(ctx, sequence)
}

// HealthChecker 可回報健康狀態的推論服務
type HealthChecker interface {
	Health(ctx context.Context) error
}
