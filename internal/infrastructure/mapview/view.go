package mapview

import (
	"context"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/ellison351/gis-web/internal/domain/model"
	"github.com/ellison351/gis-web/internal/domain/repository"
)

const (
	// MaxNotices スナップショットに残す通知の上限
	MaxNotices = 20
	// DefaultRouteTimeout 経路計算1回あたりの上限時間
	DefaultRouteTimeout = 15 * time.Second
)

// RouteStatus ルートオーバーレイの計算状態
type RouteStatus string

const (
	RouteStatusPending   RouteStatus = "pending"
	RouteStatusReady     RouteStatus = "ready"
	RouteStatusFailed    RouteStatus = "failed"
	RouteStatusDelegated RouteStatus = "delegated" // 経路計算をブラウザ側に任せる
)

// MarkerState 1つの遺跡マーカーの表示状態
type MarkerState struct {
	FeatureID string       `json:"feature_id"`
	Name      string       `json:"name"`
	Position  model.LatLng `json:"position"`
	Visible   bool         `json:"visible"`
	Scale     float64      `json:"scale"`
	Popup     *model.Popup `json:"popup,omitempty"`
}

// RouteOverlay 地図上のルートとその計算結果
type RouteOverlay struct {
	Handle  model.RouteHandle   `json:"handle"`
	Request model.RouteRequest  `json:"request"`
	Status  RouteStatus         `json:"status"`
	Details *model.RouteDetails `json:"details,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// Snapshot ブラウザへ送る地図全体の状態
type Snapshot struct {
	SessionID   string             `json:"session_id"`
	Version     uint64             `json:"version"`
	Markers     []MarkerState      `json:"markers"`
	OpenPopup   string             `json:"open_popup,omitempty"`
	Bounds      *model.Bounds      `json:"bounds,omitempty"`
	Heat        *model.HeatLayer   `json:"heat,omitempty"`
	Routes      []RouteOverlay     `json:"routes"`
	Stories     []model.StoryPanel `json:"stories"`
	RouteButton model.RouteButton  `json:"route_button"`
	Notices     []model.Notice     `json:"notices"`
}

type routeEntry struct {
	overlay RouteOverlay
	cancel  context.CancelFunc
	done    chan struct{}
}

// View repository.MapView のサーバー側実装。状態をメモリに持ち、変更を購読者に知らせる
type View struct {
	sessionID    string
	directions   repository.DirectionsProvider
	routeTimeout time.Duration
	now          func() time.Time
	logger       *zap.Logger

	mu          sync.Mutex
	markers     map[string]*MarkerState
	order       []string
	openPopup   string
	bounds      *model.Bounds
	heat        *model.HeatLayer
	routes      map[model.RouteHandle]*routeEntry
	routeOrder  []model.RouteHandle
	stories     map[string]model.StoryPanel
	storyOrder  []string
	button      model.RouteButton
	notices     []model.Notice
	version     uint64
	subscribers map[int]chan struct{}
	nextSub     int
	closed      bool

	wg sync.WaitGroup
}

// Option Viewの設定
type Option func(*View)

// WithRouteTimeout 経路計算の上限時間を変える
func WithRouteTimeout(d time.Duration) Option {
	return func(v *View) { v.routeTimeout = d }
}

// WithClock 通知時刻の取得元を差し替える
func WithClock(now func() time.Time) Option {
	return func(v *View) { v.now = now }
}

// NewView 遺跡ごとのマーカーを持つViewを作る。directionsがnilなら経路計算はブラウザ側に任せる
func NewView(sessionID string, features []*model.Feature, directions repository.DirectionsProvider, logger *zap.Logger, opts ...Option) *View {
	v := &View{
		sessionID:    sessionID,
		directions:   directions,
		routeTimeout: DefaultRouteTimeout,
		now:          time.Now,
		logger:       logger.With(zap.String("session_id", sessionID)),
		markers:      make(map[string]*MarkerState, len(features)),
		routes:       make(map[model.RouteHandle]*routeEntry),
		stories:      make(map[string]model.StoryPanel),
		subscribers:  make(map[int]chan struct{}),
	}
	for _, f := range features {
		v.markers[f.ID] = &MarkerState{
			FeatureID: f.ID,
			Name:      f.Name,
			Position:  f.ToLatLng(),
			Visible:   true,
			Scale:     1,
		}
		v.order = append(v.order, f.ID)
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// --- MarkerLayer ---

func (v *View) ShowMarker(featureID string) {
	v.update(func() {
		if m, ok := v.markers[featureID]; ok {
			m.Visible = true
		}
	})
}

func (v *View) HideMarker(featureID string) {
	v.update(func() {
		if m, ok := v.markers[featureID]; ok {
			m.Visible = false
		}
	})
}

func (v *View) ShowAllMarkers() {
	v.update(func() {
		for _, m := range v.markers {
			m.Visible = true
		}
	})
}

func (v *View) BindPopup(featureID string, popup model.Popup) {
	v.update(func() {
		if m, ok := v.markers[featureID]; ok {
			p := popup
			m.Popup = &p
		}
	})
}

func (v *View) OpenPopup(featureID string) {
	v.update(func() {
		v.openPopup = featureID
	})
}

func (v *View) ScaleMarker(featureID string, scale float64) {
	v.update(func() {
		if m, ok := v.markers[featureID]; ok {
			m.Scale = scale
		}
	})
}

func (v *View) FitBounds(bound orb.Bound) {
	v.update(func() {
		b := model.BoundsFromOrb(bound)
		v.bounds = &b
	})
}

// --- HeatView ---

func (v *View) AddHeatLayer(layer model.HeatLayer) {
	v.update(func() {
		v.heat = &layer
	})
}

func (v *View) RemoveHeatLayer() {
	v.update(func() {
		v.heat = nil
	})
}

func (v *View) HasHeatLayer() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.heat != nil
}

// --- RouteView ---

// AddRoute ルートを追加し、経路計算をバックグラウンドで始める。
// 計算はリクエストのキャンセルに影響されず、RemoveRouteかタイムアウトで止まる
func (v *View) AddRoute(ctx context.Context, req model.RouteRequest) model.RouteHandle {
	handle := model.RouteHandle(req.ID)
	entry := &routeEntry{
		overlay: RouteOverlay{Handle: handle, Request: req, Status: RouteStatusPending},
		done:    make(chan struct{}),
	}

	v.mu.Lock()
	if v.directions == nil || v.closed {
		entry.overlay.Status = RouteStatusDelegated
		close(entry.done)
		v.putRouteLocked(entry)
		v.mu.Unlock()
		return handle
	}
	computeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), v.routeTimeout)
	entry.cancel = cancel
	v.putRouteLocked(entry)
	v.wg.Add(1)
	v.mu.Unlock()

	go v.computeRoute(computeCtx, entry)
	return handle
}

func (v *View) RemoveRoute(handle model.RouteHandle) {
	v.update(func() {
		entry, ok := v.routes[handle]
		if !ok {
			return
		}
		if entry.cancel != nil {
			entry.cancel()
		}
		delete(v.routes, handle)
		for i, h := range v.routeOrder {
			if h == handle {
				v.routeOrder = append(v.routeOrder[:i], v.routeOrder[i+1:]...)
				break
			}
		}
	})
}

// RouteDone 経路計算の完了を待つチャネル。未知のハンドルなら閉じ済みのチャネルを返す
func (v *View) RouteDone(handle model.RouteHandle) <-chan struct{} {
	v.mu.Lock()
	defer v.mu.Unlock()
	if entry, ok := v.routes[handle]; ok {
		return entry.done
	}
	done := make(chan struct{})
	close(done)
	return done
}

func (v *View) putRouteLocked(entry *routeEntry) {
	v.routes[entry.overlay.Handle] = entry
	v.routeOrder = append(v.routeOrder, entry.overlay.Handle)
	v.bumpLocked()
}

func (v *View) computeRoute(ctx context.Context, entry *routeEntry) {
	defer v.wg.Done()
	defer close(entry.done)
	defer entry.cancel()

	req := entry.overlay.Request
	details, err := v.directions.GetWalkingRoute(ctx, req.Origin(), req.Destination())

	v.mu.Lock()
	defer v.mu.Unlock()
	if current, ok := v.routes[entry.overlay.Handle]; !ok || current != entry {
		v.logger.Debug("取り除かれたルートの計算結果を破棄", zap.String("route_id", req.ID))
		return
	}
	if err != nil {
		v.logger.Warn("❌ 経路計算に失敗", zap.String("route_id", req.ID), zap.Error(err))
		entry.overlay.Status = RouteStatusFailed
		entry.overlay.Error = err.Error()
		v.pushNoticeLocked(model.NoticeError, model.RouteFailureNotice)
	} else {
		v.logger.Info("✅ 経路計算完了",
			zap.String("route_id", req.ID),
			zap.Int("distance_meters", details.DistanceMeters),
			zap.Duration("duration", details.TotalDuration))
		entry.overlay.Status = RouteStatusReady
		entry.overlay.Details = details
	}
	v.bumpLocked()
}

// --- StoryView ---

func (v *View) ShowStoryPanel(panel model.StoryPanel) {
	v.update(func() {
		if _, exists := v.stories[panel.ID]; !exists {
			v.storyOrder = append(v.storyOrder, panel.ID)
		}
		v.stories[panel.ID] = panel
	})
}

func (v *View) RemoveStoryPanel(panelID string) {
	v.update(func() {
		if _, ok := v.stories[panelID]; !ok {
			return
		}
		delete(v.stories, panelID)
		for i, id := range v.storyOrder {
			if id == panelID {
				v.storyOrder = append(v.storyOrder[:i], v.storyOrder[i+1:]...)
				break
			}
		}
	})
}

// --- Controls / Notifier ---

func (v *View) SetRouteButton(button model.RouteButton) {
	v.update(func() {
		v.button = button
	})
}

func (v *View) Notify(level model.NoticeLevel, message string) {
	v.update(func() {
		v.pushNoticeLocked(level, message)
	})
}

func (v *View) pushNoticeLocked(level model.NoticeLevel, message string) {
	v.notices = append(v.notices, model.Notice{Level: level, Message: message, At: v.now()})
	if over := len(v.notices) - MaxNotices; over > 0 {
		v.notices = append([]model.Notice(nil), v.notices[over:]...)
	}
}

// --- スナップショットと購読 ---

// Snapshot 現在の地図の状態を複製して返す
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	snap := Snapshot{
		SessionID:   v.sessionID,
		Version:     v.version,
		OpenPopup:   v.openPopup,
		Markers:     make([]MarkerState, 0, len(v.order)),
		Routes:      make([]RouteOverlay, 0, len(v.routeOrder)),
		Stories:     make([]model.StoryPanel, 0, len(v.storyOrder)),
		RouteButton: v.button,
		Notices:     append([]model.Notice{}, v.notices...),
	}
	for _, id := range v.order {
		m := *v.markers[id]
		if m.Popup != nil {
			p := *m.Popup
			m.Popup = &p
		}
		snap.Markers = append(snap.Markers, m)
	}
	if v.bounds != nil {
		b := *v.bounds
		snap.Bounds = &b
	}
	if v.heat != nil {
		h := *v.heat
		snap.Heat = &h
	}
	for _, h := range v.routeOrder {
		snap.Routes = append(snap.Routes, v.routes[h].overlay)
	}
	for _, id := range v.storyOrder {
		snap.Stories = append(snap.Stories, v.stories[id])
	}
	return snap
}

// VisibleMarkers 表示中のマーカーIDをロード順に返す
func (v *View) VisibleMarkers() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	ids := make([]string, 0, len(v.order))
	for _, id := range v.order {
		if v.markers[id].Visible {
			ids = append(ids, id)
		}
	}
	return ids
}

// Subscribe 状態変更の通知を受け取る。通知はまとめられ、最新のSnapshotを取り直す前提
func (v *View) Subscribe() (<-chan struct{}, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	ch := make(chan struct{}, 1)
	if v.closed {
		close(ch)
		return ch, func() {}
	}
	id := v.nextSub
	v.nextSub++
	v.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			if sub, ok := v.subscribers[id]; ok {
				delete(v.subscribers, id)
				close(sub)
			}
		})
	}
}

// Close 計算中のルートを止めて完了を待ち、購読者のチャネルを閉じる
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	for _, entry := range v.routes {
		if entry.cancel != nil {
			entry.cancel()
		}
	}
	v.mu.Unlock()

	v.wg.Wait()

	v.mu.Lock()
	defer v.mu.Unlock()
	for id, ch := range v.subscribers {
		delete(v.subscribers, id)
		close(ch)
	}
}

func (v *View) update(fn func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn()
	v.bumpLocked()
}

func (v *View) bumpLocked() {
	v.version++
	for _, ch := range v.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
