package geodata

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/ellison351/gis-web/internal/domain/model"
)

// DecodeSites GeoJSON FeatureCollection を遺跡の並びに変換する。
// 1件でも不正な要素があればエラーを返し、途中までの結果は返さない
func DecodeSites(data []byte) ([]*model.Feature, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("GeoJSONのパースに失敗: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("FeatureCollectionではありません: %q", fc.Type)
	}

	sites := make([]*model.Feature, 0, len(fc.Features))
	for i, f := range fc.Features {
		site, err := featureToSite(f, i+1)
		if err != nil {
			return nil, fmt.Errorf("%d件目の遺跡が不正: %w", i+1, err)
		}
		sites = append(sites, site)
	}
	return sites, nil
}

func featureToSite(f *geojson.Feature, index int) (*model.Feature, error) {
	if f == nil || f.Geometry == nil {
		return nil, errors.New("ジオメトリがありません")
	}
	point, ok := f.Geometry.(orb.Point)
	if !ok {
		return nil, fmt.Errorf("ポイント以外のジオメトリです: %s", f.Geometry.GeoJSONType())
	}

	name := strings.TrimSpace(stringProp(f.Properties, "name"))
	if name == "" {
		return nil, errors.New("nameがありません")
	}

	return &model.Feature{
		ID:          siteID(f, index),
		Name:        name,
		Type:        model.OptionalString(stringProp(f.Properties, "type")),
		Description: model.OptionalString(stringProp(f.Properties, "description")),
		Image:       model.OptionalString(stringProp(f.Properties, "image")),
		Point:       point,
	}, nil
}

// siteID Featureのid、properties.id、ロード順の順に決める
func siteID(f *geojson.Feature, index int) string {
	if id := idString(f.ID); id != "" {
		return id
	}
	if id := idString(f.Properties["id"]); id != "" {
		return id
	}
	return fmt.Sprintf("site-%d", index)
}

// stringProp 文字列のプロパティを取り出す。型が違えば空文字列
func stringProp(props geojson.Properties, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func idString(v interface{}) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}

// EncodeSites 遺跡の並びを GeoJSON FeatureCollection にする
func EncodeSites(sites []*model.Feature) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, s := range sites {
		f := geojson.NewFeature(s.Point)
		f.ID = s.ID
		f.Properties["id"] = s.ID
		f.Properties["name"] = s.Name
		if s.Type != nil {
			f.Properties["type"] = *s.Type
		}
		if s.Description != nil {
			f.Properties["description"] = *s.Description
		}
		if s.Image != nil {
			f.Properties["image"] = *s.Image
		}
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("GeoJSONの生成に失敗: %w", err)
	}
	return data, nil
}
