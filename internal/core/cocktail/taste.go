package cocktail

import "math"

// Dimension 口味維度
type Dimension int

// 口味維度（順序固定）
const (
	Sweet Dimension = iota
	Sour
	Bitter
	Spicy
	Herbal
	Floral
	Fruity
	Nutty
	Boozy
	Astringent
	Umami
	Salty
	PerceivedTemperature
	Creamy
	Smoky

	// NumDimensions 口味維度數量
	NumDimensions = int(Smoky) + 1
)

// ABVKey 口味輪廓中酒精濃度的鍵
const ABVKey = "ABV"

var dimensionKeys = [NumDimensions]string{
	"sweet",
	"sour",
	"bitter",
	"spicy",
	"herbal",
	"floral",
	"fruity",
	"nutty",
	"boozy",
	"astringent",
	"umami",
	"salty",
	"Perceived_temperature",
	"creamy",
	"smoky",
}

// Key 回傳維度在材料表中的欄位名稱
func (d Dimension) Key() string {
	return dimensionKeys[d]
}

// Dimensions 依固定順序回傳所有口味維度
func Dimensions() []Dimension {
	dims := make([]Dimension, NumDimensions)
	for i := range dims {
		dims[i] = Dimension(i)
	}
	return dims
}

// TasteVector 各口味維度的數值（0-100）
type TasteVector [NumDimensions]float64

// Preference 使用者偏好：目標酒精濃度與各口味目標值
type Preference struct {
	ABV   float64
	Taste TasteVector
}

// Clamp 將所有數值限制在 0-100
func (p Preference) Clamp() Preference {
	p.ABV = clamp(p.ABV, 0, 100)
	for i, v := range p.Taste {
		p.Taste[i] = clamp(v, 0, 100)
	}
	return p
}

// Values 以欄位名稱回傳偏好值（含 ABV）
func (p Preference) Values() map[string]float64 {
	values := make(map[string]float64, NumDimensions+1)
	values[ABVKey] = p.ABV
	for _, d := range Dimensions() {
		values[d.Key()] = p.Taste[d]
	}
	return values
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
