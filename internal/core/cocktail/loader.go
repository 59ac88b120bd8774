package cocktail

import (
	"fmt"

	"cocktail-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

// FlavorRecord 材料表（flavor.json）中的一列
type FlavorRecord struct {
	Name                 string  `json:"name"`
	ABV                  float64 `json:"ABV"`
	Sweet                float64 `json:"sweet"`
	Sour                 float64 `json:"sour"`
	Bitter               float64 `json:"bitter"`
	Spicy                float64 `json:"spicy"`
	Herbal               float64 `json:"herbal"`
	Floral               float64 `json:"floral"`
	Fruity               float64 `json:"fruity"`
	Nutty                float64 `json:"nutty"`
	Boozy                float64 `json:"boozy"`
	Astringent           float64 `json:"astringent"`
	Umami                float64 `json:"umami"`
	Salty                float64 `json:"salty"`
	PerceivedTemperature float64 `json:"Perceived_temperature"`
	Creamy               float64 `json:"creamy"`
	Smoky                float64 `json:"smoky"`
}

// TasteVector 依固定維度順序取出口味數值
func (r FlavorRecord) TasteVector() TasteVector {
	var v TasteVector
	v[Sweet] = r.Sweet
	v[Sour] = r.Sour
	v[Bitter] = r.Bitter
	v[Spicy] = r.Spicy
	v[Herbal] = r.Herbal
	v[Floral] = r.Floral
	v[Fruity] = r.Fruity
	v[Nutty] = r.Nutty
	v[Boozy] = r.Boozy
	v[Astringent] = r.Astringent
	v[Umami] = r.Umami
	v[Salty] = r.Salty
	v[PerceivedTemperature] = r.PerceivedTemperature
	v[Creamy] = r.Creamy
	v[Smoky] = r.Smoky
	return v
}

// LoadCatalog 從材料表與分類表檔案建立 Catalog
//
// categoryPath 可為空，此時所有材料都沒有分類。
func LoadCatalog(flavorPath, categoryPath string) (*Catalog, error) {
	var rows []FlavorRecord
	if err := common.DecodeJSONFile(flavorPath, &rows); err != nil {
		return nil, fmt.Errorf("failed to load flavor table: %w", err)
	}

	categories := map[string][]string{}
	if categoryPath != "" {
		if err := common.DecodeJSONFile(categoryPath, &categories); err != nil {
			return nil, fmt.Errorf("failed to load category table: %w", err)
		}
	}

	catalog, err := NewCatalog(rows, categories)
	if err != nil {
		return nil, err
	}

	common.LogInfo("材料表已載入",
		zap.Int("ingredients", catalog.Size()),
		zap.Int("categorized", len(categories)),
		zap.String("flavor_path", flavorPath),
	)
	return catalog, nil
}
