package service

import (
	"go.uber.org/zap"

	"github.com/ellison351/gis-web/internal/domain/model"
	"github.com/ellison351/gis-web/internal/domain/repository"
)

// TargetSelection 選択中の終点を1つだけ保持する。未選択に戻る遷移はない
type TargetSelection struct {
	target   *model.LatLng
	controls repository.Controls
	logger   *zap.Logger
}

// NewTargetSelection 未選択状態のTargetSelectionを作成
func NewTargetSelection(controls repository.Controls, logger *zap.Logger) *TargetSelection {
	return &TargetSelection{
		controls: controls,
		logger:   logger,
	}
}

// Select 終点を設定する。以前の終点は破棄される
func (t *TargetSelection) Select(coord model.LatLng) {
	t.target = &coord
	t.controls.SetRouteButton(model.RouteButton{
		Enabled: true,
		Label:   model.RouteButtonReady,
	})
	t.logger.Info("✅ 終点を選択", zap.Float64("lat", coord.Lat), zap.Float64("lng", coord.Lng))
}

// Target 現在の終点
func (t *TargetSelection) Target() (model.LatLng, bool) {
	if t.target == nil {
		return model.LatLng{}, false
	}
	return *t.target, true
}

// IsSelected 終点が選択済みか
func (t *TargetSelection) IsSelected() bool {
	return t.target != nil
}
