package service

import (
	"github.com/ellison351/gis-web/internal/domain/helper"
	"github.com/ellison351/gis-web/internal/domain/model"
	"github.com/ellison351/gis-web/internal/domain/repository"
)

// HeatLayerToggle 遺跡密度ヒートレイヤーの表示切替
type HeatLayerToggle struct {
	view  repository.HeatView
	layer model.HeatLayer
}

// NewHeatLayerToggle 全遺跡の座標からヒートレイヤーを組み立てる
func NewHeatLayerToggle(view repository.HeatView, store *FeatureStore, options model.HeatOptions) *HeatLayerToggle {
	return &HeatLayerToggle{
		view:  view,
		layer: model.HeatLayer{Points: helper.HeatPoints(store.All()), Options: options},
	}
}

// Attach ヒートレイヤーを表示する
func (h *HeatLayerToggle) Attach() {
	if !h.view.HasHeatLayer() {
		h.view.AddHeatLayer(h.layer)
	}
}

// Toggle 表示中なら外し、非表示なら付ける。切替後の表示状態を返す
func (h *HeatLayerToggle) Toggle() bool {
	if h.view.HasHeatLayer() {
		h.view.RemoveHeatLayer()
		return false
	}
	h.view.AddHeatLayer(h.layer)
	return true
}
