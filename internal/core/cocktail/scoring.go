package cocktail

import (
	"math"

	"cocktail-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	// MaxCatalogABV 材料表中觀察到的最高酒精濃度，作為 ABV 差距的固定正規化常數
	MaxCatalogABV = 75.5

	tasteWeight = 0.7
	abvWeight   = 0.3
)

// Portion 配方中的一項材料及其份量
type Portion struct {
	Name   string
	Amount float64
}

// ingredientFit 計算單一材料與偏好的契合度，結果介於 0 到 1
func ingredientFit(ing *Ingredient, pref Preference) float64 {
	abvScore := 1 - math.Abs(ing.ABV-pref.ABV)/MaxCatalogABV

	var tasteSum float64
	for d := 0; d < NumDimensions; d++ {
		tasteSum += 1 - math.Abs(ing.Taste[d]/100-pref.Taste[d]/100)
	}
	tasteScore := tasteSum / float64(NumDimensions)

	// ABV 項下限為 0：偏好高於 MaxCatalogABV 時不會出現負的契合度
	return clamp(tasteWeight*tasteScore+abvWeight*clamp(abvScore, 0, 1), 0, 1)
}

// IngredientFit 計算材料與偏好的契合度；未知材料記錄警告並回傳 0
func IngredientFit(c *Catalog, name string, pref Preference) float64 {
	ing, err := c.Attributes(name)
	if err != nil {
		common.LogWarn("計算契合度時找不到材料", zap.String("ingredient", name))
		return 0
	}
	return ingredientFit(ing, pref)
}

// RecipeABV 依份量加權計算配方酒精濃度；未知材料視為 0
func RecipeABV(c *Catalog, names []string, quantities []float64) float64 {
	var total float64
	for _, q := range quantities {
		total += q
	}
	if total <= 0 {
		return 0
	}

	var abv float64
	for i, name := range names {
		if i >= len(quantities) {
			break
		}
		ing, err := c.Attributes(name)
		if err != nil {
			continue
		}
		abv += ing.ABV * (quantities[i] / total)
	}
	return abv
}

// RecipeTasteFit 計算配方整體契合度
//
// 以份量加權後除以材料數量（而非份量總和），與 RecipeABV 的加權方式不同。
func RecipeTasteFit(c *Catalog, names []string, quantities []float64, pref Preference) float64 {
	if len(names) == 0 {
		return 0
	}

	var score float64
	for i, name := range names {
		if i >= len(quantities) {
			break
		}
		score += IngredientFit(c, name, pref) * quantities[i]
	}
	return score / float64(len(names))
}

// TasteProfile 計算配方的口味輪廓（ABV 與各口味維度的份量加權值）
//
// 未知材料不計入輪廓，但其份量仍計入總量。
func TasteProfile(c *Catalog, portions []Portion) map[string]float64 {
	profile := make(map[string]float64, NumDimensions+1)

	var total float64
	for _, p := range portions {
		total += p.Amount
	}
	if total <= 0 {
		return profile
	}

	for _, p := range portions {
		ing, err := c.Attributes(p.Name)
		if err != nil {
			common.LogWarn("計算口味輪廓時找不到材料", zap.String("ingredient", p.Name))
			continue
		}
		ratio := p.Amount / total
		profile[ABVKey] += ing.ABV * ratio
		for _, d := range Dimensions() {
			profile[d.Key()] += ing.Taste[d] * ratio
		}
	}
	return profile
}
