package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geo"
	"go.uber.org/zap"

	"github.com/ellison351/gis-web/internal/domain/model"
	"github.com/ellison351/gis-web/internal/domain/repository"
)

// routingView ルーティングが使う地図側の機能
type routingView interface {
	repository.RouteView
	repository.Notifier
}

// RoutingController 固定の起点から選択中の終点への徒歩ルートを1本だけ維持する
type RoutingController struct {
	store     *FeatureStore
	selection *TargetSelection
	view      routingView
	origin    model.LatLng
	lineStyle model.LineStyle
	logger    *zap.Logger

	active *model.RouteHandle
}

// NewRoutingController 新しいRoutingControllerを作成
func NewRoutingController(store *FeatureStore, selection *TargetSelection, view routingView, origin model.LatLng, lineStyle model.LineStyle, logger *zap.Logger) *RoutingController {
	return &RoutingController{
		store:     store,
		selection: selection,
		view:      view,
		origin:    origin,
		lineStyle: lineStyle,
		logger:    logger,
	}
}

// StartRouting 既存ルートを取り除き、[起点, 終点] の新しいルートを追加する。
// 終点未選択ならロード順で最初の遺跡を終点にする。遺跡がなければ通知して中断する
func (r *RoutingController) StartRouting(ctx context.Context) (*model.RouteRequest, error) {
	target, ok := r.selection.Target()
	if !ok {
		first, exists := r.store.First()
		if !exists {
			r.logger.Warn("⚠️ 終点を決定できないためルート作成を中断")
			r.view.Notify(model.NoticeError, model.NoTargetNotice)
			return nil, model.ErrNoRoutableTarget
		}
		target = first.ToLatLng()
		r.selection.Select(target)
	}

	r.Teardown()

	req := model.RouteRequest{
		ID:                 uuid.New().String(),
		Waypoints:          []model.LatLng{r.origin, target},
		Profile:            model.RouteProfileFoot,
		LineStyle:          r.lineStyle,
		RouteWhileDragging: true,
		AddWaypoints:       false,
		ShowItinerary:      true,
		CreateMarkers:      false,
	}

	handle := r.view.AddRoute(ctx, req)
	r.active = &handle

	r.logger.Info("✅ ルート作成開始",
		zap.String("route_id", req.ID),
		zap.Float64("straight_line_meters", geo.DistanceHaversine(r.origin.ToPoint(), target.ToPoint())))
	return &req, nil
}

// ActiveRoute 現在のルートハンドル
func (r *RoutingController) ActiveRoute() (model.RouteHandle, bool) {
	if r.active == nil {
		return "", false
	}
	return *r.active, true
}

// Teardown 現在のルートを地図から取り除く
func (r *RoutingController) Teardown() {
	if r.active == nil {
		return
	}
	r.view.RemoveRoute(*r.active)
	r.active = nil
}
