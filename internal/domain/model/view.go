package model

import (
	"time"

	"github.com/paulmach/orb"
)

// Bounds 地図の表示範囲（南西端と北東端）
type Bounds struct {
	SouthWest LatLng `json:"south_west"`
	NorthEast LatLng `json:"north_east"`
}

// BoundsFromOrb orb.Bound を Bounds に変換
func BoundsFromOrb(b orb.Bound) Bounds {
	return Bounds{
		SouthWest: LatLngFromPoint(b.Min),
		NorthEast: LatLngFromPoint(b.Max),
	}
}

// ToOrb Bounds を orb.Bound に変換
func (b Bounds) ToOrb() orb.Bound {
	return orb.Bound{Min: b.SouthWest.ToPoint(), Max: b.NorthEast.ToPoint()}
}

// MatchResult キーワード検索の結果
type MatchResult struct {
	Keyword string   `json:"keyword"`
	Matches []string `json:"matches"` // 一致した遺跡ID（ストア順）
	Hidden  []string `json:"hidden"`  // 非表示にした遺跡ID
	Bounds  *Bounds  `json:"bounds,omitempty"`
}

// Found 一致が1件以上あるか
func (r *MatchResult) Found() bool {
	return len(r.Matches) > 0
}

// Popup マーカーに紐づくリッチポップアップの内容
type Popup struct {
	Title         string `json:"title"`
	Type          string `json:"type,omitempty"`
	Description   string `json:"description,omitempty"`
	Image         string `json:"image,omitempty"`
	FallbackImage string `json:"fallback_image,omitempty"` // 画像読み込み失敗時の代替
	ActionLabel   string `json:"action_label"`             // 「選為漢途終点」ボタン
}

// HeatOptions 密度ヒートレイヤーの描画オプション
type HeatOptions struct {
	Radius   int               `json:"radius" yaml:"radius"`
	Blur     int               `json:"blur" yaml:"blur"`
	MaxZoom  int               `json:"max_zoom" yaml:"max_zoom"`
	Gradient map[string]string `json:"gradient" yaml:"gradient"`
}

// HeatLayer 遺跡密度のヒートレイヤー
type HeatLayer struct {
	Points  []LatLng    `json:"points"`
	Options HeatOptions `json:"options"`
}

// LineStyle ルート線のスタイル
type LineStyle struct {
	Color  string `json:"color" yaml:"color"`
	Weight int    `json:"weight" yaml:"weight"`
}

// RouteRequest ルートオーバーレイの生成要求。経由地は [起点, 終点] の2点のみ
type RouteRequest struct {
	ID                 string    `json:"id"`
	Waypoints          []LatLng  `json:"waypoints"`
	Profile            string    `json:"profile"` // "foot"
	LineStyle          LineStyle `json:"line_style"`
	RouteWhileDragging bool      `json:"route_while_dragging"`
	AddWaypoints       bool      `json:"add_waypoints"`
	ShowItinerary      bool      `json:"show_itinerary"`
	CreateMarkers      bool      `json:"create_markers"`
}

// Origin 起点
func (r *RouteRequest) Origin() LatLng {
	return r.Waypoints[0]
}

// Destination 終点
func (r *RouteRequest) Destination() LatLng {
	return r.Waypoints[len(r.Waypoints)-1]
}

// RouteDetails 経路計算の結果
type RouteDetails struct {
	TotalDuration  time.Duration `json:"total_duration"`
	DistanceMeters int           `json:"distance_meters"`
	Polyline       string        `json:"polyline"`
}

// RouteHandle 地図上のルートオーバーレイへのハンドル
type RouteHandle string

// StoryPanel 遺跡ごとの一時的な物語パネル
type StoryPanel struct {
	ID        string    `json:"id"`
	FeatureID string    `json:"feature_id"`
	Title     string    `json:"title"`
	Narrative string    `json:"narrative"`
	CloseText string    `json:"close_text"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NoticeLevel 通知レベル
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeWarn  NoticeLevel = "warn"
	NoticeError NoticeLevel = "error"
)

// Notice ユーザーに見せる通知（ページのalert相当）
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
}

// RouteButton ナビゲーション開始ボタンの状態
type RouteButton struct {
	Enabled bool   `json:"enabled"`
	Label   string `json:"label"`
}
