package common

// Features 使用者口味偏好（與前端表單欄位一致）
type Features struct {
	ABV         float64 `json:"ABV"`
	Sweet       float64 `json:"sweet"`
	Sour        float64 `json:"sour"`
	Bitter      float64 `json:"bitter"`
	Spicy       float64 `json:"spicy"`
	Herbal      float64 `json:"herbal"`
	Floral      float64 `json:"floral"`
	Fruity      float64 `json:"fruity"`
	Nutty       float64 `json:"nutty"`
	Boozy       float64 `json:"boozy"`
	Astringent  float64 `json:"astringent"`
	Umami       float64 `json:"umami"`
	Salty       float64 `json:"salty"`
	PerceivedT  float64 `json:"perceived_t"`
	Creamy      float64 `json:"creamy"`
	Smoky       float64 `json:"smoky"`
	Seed        string  `json:"seed"`
	MaxLength   int     `json:"max_length,omitempty"`
	ServingSize float64 `json:"serving_ml,omitempty"`
}

// PortionDTO 配方中的單一材料
type PortionDTO struct {
	Name       string  `json:"name"`
	Proportion float64 `json:"proportion"`
	AmountML   float64 `json:"amount_ml"`
}

// BalanceDTO 份量調整結果
type BalanceDTO struct {
	Converged  bool    `json:"converged"`
	Iterations int     `json:"iterations"`
	ABV        float64 `json:"abv"`
	TasteFit   float64 `json:"taste_fit"`
}

// RecipeResponse 推薦結果
type RecipeResponse struct {
	Recipe      map[string]float64 `json:"recipe"`
	Ingredients []PortionDTO       `json:"ingredients"`
	Profile     map[string]float64 `json:"profile"`
	Balance     BalanceDTO         `json:"balance"`
	RequestID   string             `json:"request_id,omitempty"`
	CacheHit    bool               `json:"cache_hit"`
}

// FilterResponse 推薦的起始材料
type FilterResponse struct {
	Ingredients []string                      `json:"ingredients"`
	Flavor      map[string]map[string]float64 `json:"flavor"`
}

// ProfileRequest 計算配方口味輪廓的請求
type ProfileRequest struct {
	Recipe map[string]float64 `json:"recipe" binding:"required"`
}

// ProfileResponse 配方口味輪廓
type ProfileResponse struct {
	Profile map[string]float64 `json:"profile"`
}

// IngredientDTO 材料清單項目
type IngredientDTO struct {
	ID         int      `json:"id"`
	Name       string   `json:"name"`
	ABV        float64  `json:"abv"`
	Categories []string `json:"categories"`
}
