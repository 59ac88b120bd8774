package cocktail

import (
	"context"
	"fmt"
	"math"

	"cocktail-recommender/internal/core/ai/provider"
	"cocktail-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

// GeneratorOptions 配方生成參數
type GeneratorOptions struct {
	// MaxLength 配方最多材料數（含起始材料）
	MaxLength int
	// InputLength 模型固定的輸入序列長度
	InputLength int
	// ProbabilityThreshold 已選材料機率累計達此值即停止
	ProbabilityThreshold float64
	// AlcoholCap 酒類候選依 id 順序計數，超過此數量的酒類權重乘上 AlcoholDamping
	AlcoholCap     int
	AlcoholDamping float64
	// MixerBoost 無酒精偏好時調和類材料的權重倍數
	MixerBoost float64

	Balancer BalancerOptions
}

// DefaultGeneratorOptions 預設配方生成參數
func DefaultGeneratorOptions() GeneratorOptions {
	return GeneratorOptions{
		MaxLength:            10,
		InputLength:          10,
		ProbabilityThreshold: 1.5,
		AlcoholCap:           2,
		AlcoholDamping:       0.1,
		MixerBoost:           1.5,
		Balancer:             DefaultBalancerOptions(),
	}
}

// Recipe 生成的配方：材料與對應的份量比例
type Recipe struct {
	Ingredients []string
	Quantities  []float64
	Balance     BalanceResult
}

// Portions 以指定總容量換算每項材料的份量
func (r *Recipe) Portions(volume float64) []Portion {
	portions := make([]Portion, len(r.Ingredients))
	for i, name := range r.Ingredients {
		portions[i] = Portion{Name: name, Amount: r.Quantities[i] * volume}
	}
	return portions
}

type generationState int

const (
	stateSeeded generationState = iota
	stateExtending
	stateDone
)

func (s generationState) String() string {
	switch s {
	case stateSeeded:
		return "seeded"
	case stateExtending:
		return "extending"
	default:
		return "done"
	}
}

// Generator 逐步呼叫預測模型，依使用者偏好重新加權後組出配方
//
// Generator 不保存請求狀態，可同時服務多個請求。
type Generator struct {
	catalog   *Catalog
	predictor provider.Predictor
	balancer  *Balancer
	opts      GeneratorOptions
}

// NewGenerator 建立 Generator，未設定的參數使用預設值
func NewGenerator(catalog *Catalog, predictor provider.Predictor, opts GeneratorOptions) *Generator {
	def := DefaultGeneratorOptions()
	if opts.MaxLength <= 0 {
		opts.MaxLength = def.MaxLength
	}
	if opts.InputLength <= 0 {
		opts.InputLength = def.InputLength
	}
	if opts.ProbabilityThreshold <= 0 {
		opts.ProbabilityThreshold = def.ProbabilityThreshold
	}
	if opts.AlcoholCap <= 0 {
		opts.AlcoholCap = def.AlcoholCap
	}
	if opts.AlcoholDamping <= 0 {
		opts.AlcoholDamping = def.AlcoholDamping
	}
	if opts.MixerBoost <= 0 {
		opts.MixerBoost = def.MixerBoost
	}

	return &Generator{
		catalog:   catalog,
		predictor: predictor,
		balancer:  NewBalancer(catalog, opts.Balancer),
		opts:      opts,
	}
}

// MaxLength 回傳預設的最大配方長度
func (g *Generator) MaxLength() int {
	return g.opts.MaxLength
}

// generation 單次生成的狀態
type generation struct {
	state        generationState
	ids          []int
	alcoholCount int
	totalProb    float64
}

// Generate 以起始材料與偏好生成配方
//
// maxLength <= 0 時使用預設值。起始材料不存在時整個生成失敗；
// 預測模型的錯誤會包裝成 ErrPredictorFailure 直接回傳，不重試。
func (g *Generator) Generate(ctx context.Context, seed string, pref Preference, maxLength int) (*Recipe, error) {
	if maxLength <= 0 {
		maxLength = g.opts.MaxLength
	}

	seedIng, err := g.catalog.Attributes(seed)
	if err != nil {
		return nil, fmt.Errorf("invalid seed ingredient: %w", err)
	}

	gen := &generation{state: stateSeeded, ids: []int{seedIng.ID}}

	for gen.state != stateDone {
		if len(gen.ids) >= maxLength || gen.totalProb >= g.opts.ProbabilityThreshold {
			gen.state = stateDone
			break
		}
		gen.state = stateExtending

		if err := g.extend(ctx, gen, pref); err != nil {
			return nil, err
		}
	}

	names := make([]string, len(gen.ids))
	for i, id := range gen.ids {
		ing, _ := g.catalog.ByID(id)
		names[i] = ing.Name
	}

	balance := g.balancer.Balance(names, pref.ABV, pref)
	if !balance.Converged {
		common.LogDebug("份量調整未收斂",
			zap.Strings("ingredients", names),
			zap.Int("iterations", balance.Iterations),
			zap.Float64("abv", balance.ABV),
			zap.Float64("target_abv", pref.ABV),
		)
	}

	return &Recipe{
		Ingredients: names,
		Quantities:  balance.Quantities,
		Balance:     *balance,
	}, nil
}

// extend 執行一次 EXTENDING 轉移，加入一項材料或結束生成
func (g *Generator) extend(ctx context.Context, gen *generation, pref Preference) error {
	sequence := padSequence(gen.ids, g.opts.InputLength)

	probs, err := g.predictor.Predict(ctx, sequence)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPredictorFailure, err)
	}
	if err := g.validateOutput(probs); err != nil {
		return err
	}

	weights := make([]float64, len(probs))
	copy(weights, probs)
	weights[gen.ids[len(gen.ids)-1]] = 0

	// 酒類計數依 id 順序逐一累加且跨步驟保留，達上限後的酒類候選都會被壓低
	var sum float64
	for id := range weights {
		ing, _ := g.catalog.ByID(id)
		if ing.HasCategory(CategoryAlcohol) {
			if gen.alcoholCount >= g.opts.AlcoholCap {
				weights[id] *= g.opts.AlcoholDamping
			} else {
				gen.alcoholCount++
			}
		} else if pref.ABV == 0 && ing.HasCategory(CategoryMixer) {
			weights[id] *= g.opts.MixerBoost
		}

		if weights[id] == 0 {
			continue
		}
		abvCloseness := 1 / (1 + math.Abs(ing.ABV-pref.ABV))
		weights[id] *= ingredientFit(ing, pref) * abvCloseness
		sum += weights[id]
	}

	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		common.LogWarn("重新加權後沒有可選的材料，提前結束生成",
			zap.Int("length", len(gen.ids)),
		)
		gen.state = stateDone
		return nil
	}

	next, best := argmax(weights)
	gen.ids = append(gen.ids, next)
	gen.totalProb += best / sum
	return nil
}

// validateOutput 檢查模型輸出的長度與數值
func (g *Generator) validateOutput(probs []float64) error {
	if len(probs) != g.catalog.Size() {
		return fmt.Errorf("%w: expected %d probabilities, got %d", ErrPredictorFailure, g.catalog.Size(), len(probs))
	}
	for id, p := range probs {
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w: invalid probability %v at id %d", ErrPredictorFailure, p, id)
		}
	}
	return nil
}

// padSequence 與 keras pad_sequences 預設行為相同：左側補 0，過長時保留最後 length 個
func padSequence(ids []int, length int) []int {
	padded := make([]int, length)
	if len(ids) >= length {
		copy(padded, ids[len(ids)-length:])
		return padded
	}
	copy(padded[length-len(ids):], ids)
	return padded
}

// argmax 回傳最大值的 id，同值時取較小的 id
func argmax(values []float64) (int, float64) {
	best := 0
	for id := 1; id < len(values); id++ {
		if values[id] > values[best] {
			best = id
		}
	}
	return best, values[best]
}
