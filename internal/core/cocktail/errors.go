package cocktail

import "errors"

var (
	// ErrUnknownIngredient 材料不在材料表中
	ErrUnknownIngredient = errors.New("unknown ingredient")

	// ErrPredictorFailure 模型呼叫失敗或輸出格式錯誤
	ErrPredictorFailure = errors.New("predictor failure")

	// ErrEmptyCatalog 材料表為空
	ErrEmptyCatalog = errors.New("empty ingredient catalog")
)
