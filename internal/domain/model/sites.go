package model

import (
	"github.com/paulmach/orb"
)

// LatLng 緯度経度を表す基本的な型（API境界や経路検索で使用）
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ToPoint LatLng を orb.Point（[経度, 緯度]）に変換
func (l LatLng) ToPoint() orb.Point {
	return orb.Point{l.Lng, l.Lat}
}

// LatLngFromPoint orb.Point から LatLng に変換
func LatLngFromPoint(p orb.Point) LatLng {
	return LatLng{Lat: p.Lat(), Lng: p.Lon()}
}

// Feature 遺跡（史跡スポット）を表すモデル。ロード後は不変
type Feature struct {
	ID          string    `json:"id"`                    // 暗黙のID（GeoJSONのidまたはロード順）
	Name        string    `json:"name"`                  // 遺跡名（必須）
	Type        *string   `json:"type,omitempty"`        // 種別（NULLABLE）
	Description *string   `json:"description,omitempty"` // 説明文（NULLABLE）
	Image       *string   `json:"image,omitempty"`       // 画像URL（NULLABLE）
	Point       orb.Point `json:"-"`                     // [longitude, latitude]
}

// ToLatLng 遺跡の位置情報をLatLng型に変換
func (f *Feature) ToLatLng() LatLng {
	return LatLngFromPoint(f.Point)
}

// GetType 種別が存在する場合は値を、存在しない場合は空文字列を返す
func (f *Feature) GetType() string {
	if f.Type != nil {
		return *f.Type
	}
	return ""
}

// GetDescription 説明文が存在する場合は値を、存在しない場合は空文字列を返す
func (f *Feature) GetDescription() string {
	if f.Description != nil {
		return *f.Description
	}
	return ""
}

// HasDescription 説明文が設定されているかチェック
func (f *Feature) HasDescription() bool {
	return f.Description != nil && *f.Description != ""
}

// GetImage 画像URLが存在する場合は値を、存在しない場合は空文字列を返す
func (f *Feature) GetImage() string {
	if f.Image != nil {
		return *f.Image
	}
	return ""
}

// OptionalString 空文字列ならnil、それ以外はポインタを返す
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
