package cocktail

import "math"

// 舊版累計總量固定以 0.1 調整
const legacyAccumulatorRate = 0.1

// BalancerOptions 份量調整參數
type BalancerOptions struct {
	MaxIterations  int
	Step           float64
	ABVTolerance   float64
	TasteThreshold float64
	LowFit         float64
	HighFit        float64
	Shrink         float64
	Grow           float64

	// LegacyNormalization 以調整過程中累計的總量正規化（與舊版推薦結果逐位相同），
	// 此時比例總和不一定為 1。
	LegacyNormalization bool
}

// DefaultBalancerOptions 預設份量調整參數
func DefaultBalancerOptions() BalancerOptions {
	return BalancerOptions{
		MaxIterations:  100,
		Step:           0.1,
		ABVTolerance:   0.5,
		TasteThreshold: 0.8,
		LowFit:         0.5,
		HighFit:        0.8,
		Shrink:         0.9,
		Grow:           1.1,
	}
}

// BalanceResult 份量調整結果
//
// Converged 為 false 時代表迭代次數用盡，Quantities 仍是目前最佳的比例。
type BalanceResult struct {
	Quantities []float64
	Converged  bool
	Iterations int
	ABV        float64
	TasteFit   float64
}

// Balancer 調整各材料份量，使配方接近目標酒精濃度並維持口味契合度
type Balancer struct {
	catalog *Catalog
	opts    BalancerOptions
}

// NewBalancer 建立 Balancer，未設定的參數使用預設值
func NewBalancer(catalog *Catalog, opts BalancerOptions) *Balancer {
	def := DefaultBalancerOptions()
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = def.MaxIterations
	}
	if opts.Step <= 0 {
		opts.Step = def.Step
	}
	if opts.ABVTolerance <= 0 {
		opts.ABVTolerance = def.ABVTolerance
	}
	if opts.TasteThreshold <= 0 {
		opts.TasteThreshold = def.TasteThreshold
	}
	if opts.LowFit <= 0 {
		opts.LowFit = def.LowFit
	}
	if opts.HighFit <= 0 {
		opts.HighFit = def.HighFit
	}
	if opts.Shrink <= 0 {
		opts.Shrink = def.Shrink
	}
	if opts.Grow <= 0 {
		opts.Grow = def.Grow
	}
	return &Balancer{catalog: catalog, opts: opts}
}

// Balance 將材料清單轉為正規化後的份量比例，順序與輸入相同
func (b *Balancer) Balance(names []string, targetABV float64, pref Preference) *BalanceResult {
	n := len(names)
	result := &BalanceResult{Quantities: make([]float64, n)}
	if n == 0 {
		result.Converged = true
		return result
	}

	quantities := make([]float64, n)
	for i := range quantities {
		quantities[i] = 1
	}

	// 每次迭代都會用到，先查好
	abvs := make([]float64, n)
	known := make([]bool, n)
	fits := make([]float64, n)
	for i, name := range names {
		if ing, err := b.catalog.Attributes(name); err == nil {
			abvs[i] = ing.ABV
			known[i] = true
		}
		fits[i] = IngredientFit(b.catalog, name, pref)
	}

	accumulated := float64(n)
	for iter := 0; iter < b.opts.MaxIterations; iter++ {
		abv := RecipeABV(b.catalog, names, quantities)
		tasteFit := weightedFit(fits, quantities)
		if math.Abs(abv-targetABV) < b.opts.ABVTolerance && tasteFit >= b.opts.TasteThreshold {
			result.Converged = true
			break
		}
		result.Iterations++

		raiseAlcohol := abv < targetABV
		for i := range quantities {
			if !known[i] {
				continue
			}
			if (raiseAlcohol && abvs[i] > 0) || (!raiseAlcohol && abvs[i] == 0) {
				quantities[i] += b.opts.Step
				accumulated += b.opts.Step
			}
		}

		for i := range quantities {
			switch {
			case fits[i] < b.opts.LowFit:
				quantities[i] *= b.opts.Shrink
				accumulated -= quantities[i] * legacyAccumulatorRate
			case fits[i] > b.opts.HighFit:
				quantities[i] *= b.opts.Grow
				accumulated += quantities[i] * legacyAccumulatorRate
			}
		}
	}

	result.ABV = RecipeABV(b.catalog, names, quantities)
	result.TasteFit = weightedFit(fits, quantities)

	total := accumulated
	if !b.opts.LegacyNormalization {
		total = 0
		for _, q := range quantities {
			total += q
		}
	}
	for i, q := range quantities {
		if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
			result.Quantities[i] = 1 / float64(n)
			continue
		}
		result.Quantities[i] = q / total
	}

	return result
}

// weightedFit 與 RecipeTasteFit 相同的計算，使用預先算好的契合度
func weightedFit(fits, quantities []float64) float64 {
	var score float64
	for i, f := range fits {
		score += f * quantities[i]
	}
	return score / float64(len(fits))
}
