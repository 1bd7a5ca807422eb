package helper

import (
	"github.com/ellison351/gis-web/internal/domain/model"
)

// BuildPopup 遺跡マーカーに紐づけるポップアップ内容を組み立てる
func BuildPopup(feature *model.Feature) model.Popup {
	popup := model.Popup{
		Title:       feature.Name,
		Type:        feature.GetType(),
		Description: feature.GetDescription(),
		ActionLabel: model.PopupActionLabel,
	}
	if image := feature.GetImage(); image != "" {
		popup.Image = image
		popup.FallbackImage = model.PopupFallbackImage
	}
	return popup
}

// HeatPoints 遺跡群の座標をヒートレイヤー用に並べる
func HeatPoints(features []*model.Feature) []model.LatLng {
	points := make([]model.LatLng, 0, len(features))
	for _, f := range features {
		points = append(points, f.ToLatLng())
	}
	return points
}
