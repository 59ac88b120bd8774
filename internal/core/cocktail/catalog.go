package cocktail

import (
	"fmt"
	"strings"

	"cocktail-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

// 常用的材料分類
const (
	CategoryAlcohol   = "Alcohol"
	CategoryMixer     = "Mixer"
	CategoryCondiment = "Condiment"
)

var quoteReplacer = strings.NewReplacer(`\"`, `"`, `\'`, `'`)

// Normalize 去除前後空白並還原跳脫的引號，讓不同來源的名稱可以互相比對
func Normalize(name string) string {
	return quoteReplacer.Replace(strings.TrimSpace(name))
}

// Ingredient 材料屬性
type Ingredient struct {
	ID         int
	Name       string
	ABV        float64
	Taste      TasteVector
	Categories []string
}

// HasCategory 檢查材料是否屬於指定分類
func (i *Ingredient) HasCategory(label string) bool {
	for _, c := range i.Categories {
		if c == label {
			return true
		}
	}
	return false
}

// Catalog 材料表索引，建立後不可變，可在多個請求間共用
type Catalog struct {
	ingredients []Ingredient
	ids         map[string]int
}

// NewCatalog 依材料表順序建立索引，id 即為列序號
//
// 模型輸出的機率向量與列序號一一對應，因此不可重新排序。
func NewCatalog(rows []FlavorRecord, categories map[string][]string) (*Catalog, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyCatalog
	}

	normalizedCategories := make(map[string][]string, len(categories))
	for name, labels := range categories {
		normalizedCategories[Normalize(name)] = labels
	}

	c := &Catalog{
		ingredients: make([]Ingredient, len(rows)),
		ids:         make(map[string]int, len(rows)),
	}
	for idx, row := range rows {
		name := Normalize(row.Name)
		if name == "" {
			return nil, fmt.Errorf("flavor row %d has no name", idx)
		}
		if prev, exists := c.ids[name]; exists {
			common.LogWarn("材料名稱重複，以較後的列為準",
				zap.String("name", name),
				zap.Int("previous_id", prev),
				zap.Int("id", idx),
			)
		}
		c.ids[name] = idx
		c.ingredients[idx] = Ingredient{
			ID:         idx,
			Name:       name,
			ABV:        row.ABV,
			Taste:      row.TasteVector(),
			Categories: append([]string(nil), normalizedCategories[name]...),
		}
	}

	return c, nil
}

// Size 材料數量，也是模型輸出向量的長度
func (c *Catalog) Size() int {
	return len(c.ingredients)
}

// LookupID 以名稱查詢材料 id
func (c *Catalog) LookupID(name string) (int, error) {
	id, ok := c.ids[Normalize(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownIngredient, name)
	}
	return id, nil
}

// Attributes 以名稱查詢材料屬性
func (c *Catalog) Attributes(name string) (*Ingredient, error) {
	id, err := c.LookupID(name)
	if err != nil {
		return nil, err
	}
	return &c.ingredients[id], nil
}

// ByID 以 id 查詢材料屬性
func (c *Catalog) ByID(id int) (*Ingredient, bool) {
	if id < 0 || id >= len(c.ingredients) {
		return nil, false
	}
	return &c.ingredients[id], true
}

// Categories 回傳材料的分類，未知材料回傳 nil
func (c *Catalog) Categories(name string) []string {
	ing, err := c.Attributes(name)
	if err != nil {
		return nil
	}
	return ing.Categories
}

// HasCategory 檢查材料是否屬於指定分類
func (c *Catalog) HasCategory(name, label string) bool {
	ing, err := c.Attributes(name)
	if err != nil {
		return false
	}
	return ing.HasCategory(label)
}

// Names 依 id 順序回傳所有材料名稱
func (c *Catalog) Names() []string {
	names := make([]string, len(c.ingredients))
	for i := range c.ingredients {
		names[i] = c.ingredients[i].Name
	}
	return names
}

// Ingredients 依 id 順序回傳材料屬性的副本
func (c *Catalog) Ingredients() []Ingredient {
	out := make([]Ingredient, len(c.ingredients))
	copy(out, c.ingredients)
	return out
}
