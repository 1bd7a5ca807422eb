package repository

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/ellison351/gis-web/internal/domain/model"
)

// MarkerLayer 遺跡マーカーの表示を担う
type MarkerLayer interface {
	ShowMarker(featureID string)
	HideMarker(featureID string)
	// ShowAllMarkers 全マーカーを再表示する（マーカーレイヤーの再追加）
	ShowAllMarkers()
	BindPopup(featureID string, popup model.Popup)
	OpenPopup(featureID string)
	// ScaleMarker マーカーアイコンの拡大率を設定する（1.0で元の大きさ）
	ScaleMarker(featureID string, scale float64)
	// FitBounds 指定範囲が収まるよう表示を合わせる
	FitBounds(bound orb.Bound)
}

// HeatView 密度ヒートレイヤーの着脱
type HeatView interface {
	AddHeatLayer(layer model.HeatLayer)
	RemoveHeatLayer()
	HasHeatLayer() bool
}

// RouteView ルートオーバーレイの着脱。経路計算の失敗はこの層で処理され、呼び出し元には返らない
type RouteView interface {
	AddRoute(ctx context.Context, req model.RouteRequest) model.RouteHandle
	RemoveRoute(handle model.RouteHandle)
}

// StoryView 物語パネルの表示
type StoryView interface {
	ShowStoryPanel(panel model.StoryPanel)
	RemoveStoryPanel(panelID string)
}

// Controls 画面上のUIコントロール
type Controls interface {
	SetRouteButton(button model.RouteButton)
}

// Notifier ユーザーへの通知
type Notifier interface {
	Notify(level model.NoticeLevel, message string)
}

// MapView 地図描画側の協調オブジェクト
type MapView interface {
	MarkerLayer
	HeatView
	RouteView
	StoryView
	Controls
	Notifier
}
