package recipe

import (
	"cocktail-recommender/internal/core/cocktail"
	"cocktail-recommender/internal/pkg/common"
)

// RecommendRequest 配方推薦請求
type RecommendRequest struct {
	Seed       string
	Preference cocktail.Preference
	// MaxLength <= 0 時使用預設長度
	MaxLength int
	// ServingVolume <= 0 時使用預設總容量（毫升）
	ServingVolume float64
}

// PreferenceFromFeatures 將表單欄位轉為偏好，數值限制在 0-100
func PreferenceFromFeatures(f common.Features) cocktail.Preference {
	var taste cocktail.TasteVector
	taste[cocktail.Sweet] = f.Sweet
	taste[cocktail.Sour] = f.Sour
	taste[cocktail.Bitter] = f.Bitter
	taste[cocktail.Spicy] = f.Spicy
	taste[cocktail.Herbal] = f.Herbal
	taste[cocktail.Floral] = f.Floral
	taste[cocktail.Fruity] = f.Fruity
	taste[cocktail.Nutty] = f.Nutty
	taste[cocktail.Boozy] = f.Boozy
	taste[cocktail.Astringent] = f.Astringent
	taste[cocktail.Umami] = f.Umami
	taste[cocktail.Salty] = f.Salty
	taste[cocktail.PerceivedTemperature] = f.PerceivedT
	taste[cocktail.Creamy] = f.Creamy
	taste[cocktail.Smoky] = f.Smoky

	return cocktail.Preference{ABV: f.ABV, Taste: taste}.Clamp()
}

// RequestFromFeatures 由表單欄位建立推薦請求
func RequestFromFeatures(f common.Features) RecommendRequest {
	return RecommendRequest{
		Seed:          f.Seed,
		Preference:    PreferenceFromFeatures(f),
		MaxLength:     f.MaxLength,
		ServingVolume: f.ServingSize,
	}
}
