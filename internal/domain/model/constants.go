package model

// 画面に表示する固定文言
const (
	DefaultNarrative    = "西汉彭城，楚王永眠于狮山，玉衣金缕，千古一叹。"
	StoryTitlePrefix    = "汉墓物语："
	StoryCloseText      = "合卷"
	PopupActionLabel    = "选为汉途终点"
	PopupFallbackImage  = "https://via.placeholder.com/120?text=汉影"
	RouteButtonIdle     = "请先选择汉途终点"
	RouteButtonReady    = "导航到选中点"
	LoadFailureNotice   = "数据加载失败！请检查 data/sites.geojson 文件路径。"
	NoTargetNotice      = "请先点击一个遗址Marker选中终点！"
	RouteFailureNotice  = "路径规划失败，请稍后重试。"
	SearchMissNoticeFmt = "未找到包含 \"%s\" 的景点。请尝试其他关键词，如 \"狮子山\"。"
)

// ルーティング設定
const (
	RouteProfileFoot = "foot"
	RouteLineColor   = "blue"
	RouteLineWeight  = 4
)

// DefaultHeatGradient 遺跡密度ヒートレイヤーの既定グラデーション
func DefaultHeatGradient() map[string]string {
	return map[string]string{
		"0.4":  "blue",
		"0.65": "lime",
		"1":    "red",
	}
}

// DefaultHeatOptions 既定のヒートレイヤーオプション
func DefaultHeatOptions() HeatOptions {
	return HeatOptions{
		Radius:   25,
		Blur:     15,
		MaxZoom:  17,
		Gradient: DefaultHeatGradient(),
	}
}
