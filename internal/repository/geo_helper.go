package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/ellison351/gis-web/internal/domain/model"
)

// GeoPoint PostGIS POINT 型の JSON 表現（ST_AsGeoJSON の結果）
type GeoPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// ParseGeoPoint ST_AsGeoJSON の文字列を orb.Point に変換
func ParseGeoPoint(raw string) (orb.Point, error) {
	var gp GeoPoint
	if err := json.Unmarshal([]byte(raw), &gp); err != nil {
		return orb.Point{}, fmt.Errorf("location GeoJSONパースエラー: %w", err)
	}
	if gp.Type != "Point" {
		return orb.Point{}, fmt.Errorf("ポイント以外のジオメトリです: %s", gp.Type)
	}
	if len(gp.Coordinates) < 2 {
		return orb.Point{}, errors.New("座標が不足しています")
	}
	return orb.Point{gp.Coordinates[0], gp.Coordinates[1]}, nil
}

// siteRecord 各データソースの1行を共通の形にしたもの
type siteRecord struct {
	ID          string
	Name        string
	Type        string
	Description string
	Image       string
	Point       orb.Point
}

// toFeature 必須項目と座標範囲を検証して model.Feature にする
func (r siteRecord) toFeature(index int) (*model.Feature, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, fmt.Errorf("%d件目の遺跡にnameがありません", index)
	}
	if lon, lat := r.Point.Lon(), r.Point.Lat(); lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("%d件目の遺跡の座標が範囲外です: [%f, %f]", index, lon, lat)
	}

	id := strings.TrimSpace(r.ID)
	if id == "" {
		id = "site-" + strconv.Itoa(index)
	}
	return &model.Feature{
		ID:          id,
		Name:        name,
		Type:        model.OptionalString(r.Type),
		Description: model.OptionalString(r.Description),
		Image:       model.OptionalString(r.Image),
		Point:       r.Point,
	}, nil
}

// recordsToFeatures 全件を変換する。1件でも不正なら何も返さない
func recordsToFeatures(records []siteRecord) ([]*model.Feature, error) {
	features := make([]*model.Feature, 0, len(records))
	for i, r := range records {
		f, err := r.toFeature(i + 1)
		if err != nil {
			return nil, err
		}
		features = append(features, f)
	}
	return features, nil
}

// validTableName SQLに埋め込むテーブル名として安全か
func validTableName(name string) bool {
	if name == "" {
		return false
	}
	for _, part := range strings.Split(name, ".") {
		if part == "" {
			return false
		}
		for i, c := range part {
			isLetter := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
			isDigit := c >= '0' && c <= '9'
			if !isLetter && !(isDigit && i > 0) {
				return false
			}
		}
	}
	return true
}
