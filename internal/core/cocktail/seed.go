package cocktail

import (
	"math"
	"sort"
)

const (
	// DefaultCandidateLimit 起始材料候選的預設數量
	DefaultCandidateLimit = 10

	candidateFeatureCount = 3
)

// Candidate 起始材料候選
type Candidate struct {
	Ingredient *Ingredient
	// Distance 在偏好最突出的特徵上的差距總和，越小越接近
	Distance float64
}

// Flavor 以欄位名稱回傳候選材料的 ABV 與口味數值
func (c Candidate) Flavor() map[string]float64 {
	flavor := make(map[string]float64, NumDimensions+1)
	flavor[ABVKey] = c.Ingredient.ABV
	for _, d := range Dimensions() {
		flavor[d.Key()] = c.Ingredient.Taste[d]
	}
	return flavor
}

type preferenceFeature struct {
	abv   bool
	dim   Dimension
	value float64
}

// topFeatures 取出偏好值最高的特徵，同值時依 ABV、口味維度順序
func topFeatures(pref Preference, n int) []preferenceFeature {
	features := make([]preferenceFeature, 0, NumDimensions+1)
	features = append(features, preferenceFeature{abv: true, value: pref.ABV})
	for _, d := range Dimensions() {
		features = append(features, preferenceFeature{dim: d, value: pref.Taste[d]})
	}

	sort.SliceStable(features, func(i, j int) bool {
		return features[i].value > features[j].value
	})
	if n < len(features) {
		features = features[:n]
	}
	return features
}

// SeedCandidates 依使用者偏好最突出的三個特徵，挑出最接近的材料作為起始材料候選
//
// 結果依差距由小到大排序，同分時依材料表順序。limit <= 0 時使用 DefaultCandidateLimit。
func SeedCandidates(c *Catalog, pref Preference, limit int) []Candidate {
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}
	features := topFeatures(pref, candidateFeatureCount)

	candidates := make([]Candidate, 0, len(c.ids))
	for id := range c.ingredients {
		ing := &c.ingredients[id]
		// 名稱重複時只計入擁有該名稱的列
		if c.ids[ing.Name] != id {
			continue
		}

		var distance float64
		for _, f := range features {
			value := ing.ABV
			if !f.abv {
				value = ing.Taste[f.dim]
			}
			distance += math.Abs(value - f.value)
		}
		candidates = append(candidates, Candidate{Ingredient: ing, Distance: distance})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})
	if limit < len(candidates) {
		candidates = candidates[:limit]
	}
	return candidates
}
