package repository

import (
	"context"

	"github.com/ellison351/gis-web/internal/domain/model"
)

// DirectionsProvider 徒歩ルートを計算する外部サービス
type DirectionsProvider interface {
	GetWalkingRoute(ctx context.Context, origin model.LatLng, waypoints ...model.LatLng) (*model.RouteDetails, error)
}
