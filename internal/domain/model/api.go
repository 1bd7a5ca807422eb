package model

// SearchRequest 検索リクエスト。空のキーワードは全件一致
type SearchRequest struct {
	Keyword string `json:"keyword"`
}

// SelectTargetRequest 終点選択リクエスト
type SelectTargetRequest struct {
	FeatureID string `json:"feature_id" binding:"required"`
}

// HeatToggleResponse ヒートレイヤー切替の結果
type HeatToggleResponse struct {
	Visible bool `json:"visible"`
}

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Notice  string `json:"notice,omitempty"` // 画面にそのまま出す文言
}
